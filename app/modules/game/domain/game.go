package gamedomain

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
)

// PlayerCount is the fixed event size.
const PlayerCount = 12

// Formats lists the valid team sizes: 1 = FFA, otherwise NvN.
var Formats = []int{1, 2, 3, 4, 6}

var teamTags = []string{"A", "B", "C", "D", "E", "F"}

// Game is the collection of teams for one event.
type Game struct {
	Teams []*Team
}

// NewGame shuffles names with the given source, assigns team tags
// cyclically (omitted in FFA), and groups consecutive runs of size
// format into teams.
func NewGame(format int, names []string, rng *rand.Rand) (*Game, error) {
	if !slices.Contains(Formats, format) {
		return nil, fmt.Errorf("unsupported format %d", format)
	}
	if len(names) != PlayerCount {
		return nil, errs.InvalidPlayerNum(PlayerCount)
	}

	shuffled := slices.Clone(names)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	players := make([]*Player, 0, PlayerCount)
	for i, name := range shuffled {
		tag := ""
		if format > 1 {
			tag = teamTags[(i/format)%len(teamTags)]
		}
		players = append(players, &Player{Name: name, Tag: tag})
	}

	return &Game{Teams: MakeTeams(players)}, nil
}

// Format is the team size, derived from the first team. 1 = FFA.
func (g *Game) Format() int { return len(g.Teams[0].Players) }

func (g *Game) IsFFA() bool { return g.Format() == 1 }

// FormatName renders the format the way titles carry it.
func (g *Game) FormatName() string {
	if g.IsFFA() {
		return "FFA"
	}
	return fmt.Sprintf("%dv%d", g.Format(), g.Format())
}

// IsFinished reports whether every team recorded all races.
func (g *Game) IsFinished() bool {
	for _, t := range g.Teams {
		if !t.IsFinished() {
			return false
		}
	}
	return true
}

// Players flattens the teams in stored order.
func (g *Game) Players() []*Player {
	var players []*Player
	for _, t := range g.Teams {
		players = append(players, t.Players...)
	}
	return players
}

// GetPlayer finds a player by exact name across all teams, failing with
// NotParticipant when absent.
func (g *Game) GetPlayer(name string) (*Player, error) {
	for _, t := range g.Teams {
		for _, p := range t.Players {
			if p.Name == name {
				return p, nil
			}
		}
	}
	return nil, errs.NotParticipant(name)
}

// Ranking returns all players sorted by descending total, ties broken
// by stable stored order.
func (g *Game) Ranking() []*Player {
	players := g.Players()
	slices.SortStableFunc(players, func(a, b *Player) int {
		return b.TotalPoint() - a.TotalPoint()
	})
	return players
}

// RankedTeams returns the teams sorted by descending total, ties broken
// by stable stored order.
func (g *Game) RankedTeams() []*Team {
	teams := slices.Clone(g.Teams)
	slices.SortStableFunc(teams, func(a, b *Team) int {
		return b.TotalPoint() - a.TotalPoint()
	})
	return teams
}
