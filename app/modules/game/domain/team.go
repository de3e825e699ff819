package gamedomain

import "slices"

// Team is a group of players sharing a tag. In FFA mode every player is
// its own untagged team.
type Team struct {
	Tag     string
	Players []*Player
}

func (t *Team) TotalPoint() int {
	total := 0
	for _, p := range t.Players {
		total += p.TotalPoint()
	}
	return total
}

func (t *Team) IsFinished() bool {
	for _, p := range t.Players {
		if !p.IsFinished() {
			return false
		}
	}
	return true
}

// Ranked returns the members sorted by descending total, ties keeping
// their stored order.
func (t *Team) Ranked() []*Player {
	ranked := slices.Clone(t.Players)
	slices.SortStableFunc(ranked, func(a, b *Player) int {
		return b.TotalPoint() - a.TotalPoint()
	})
	return ranked
}

// MakeTeams partitions players by tag, preserving input order within
// each group; team order follows first appearance of each tag. Players
// with an empty tag each form their own team (FFA). Tags are assumed
// pre-assigned uniquely per intended team.
func MakeTeams(players []*Player) []*Team {
	var teams []*Team
	byTag := make(map[string]*Team)

	for _, p := range players {
		if p.Tag == "" {
			teams = append(teams, &Team{Players: []*Player{p}})
			continue
		}
		team, ok := byTag[p.Tag]
		if !ok {
			team = &Team{Tag: p.Tag}
			byTag[p.Tag] = team
			teams = append(teams, team)
		}
		team.Players = append(team.Players, p)
	}

	return teams
}
