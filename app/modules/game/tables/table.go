// Package gametables is the codec between a game and its Discord
// message embed. The rendered ranking is also the storage format:
// decode recovers every player's name, tag, and point history from the
// field grammar alone, so the grammar must stay unambiguous.
package gametables

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	gamedomain "github.com/mk-lounge/gatherbot/app/modules/game/domain"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

var (
	titleRe = regexp.MustCompile(`^Format: (FFA|\dv\d)$`)

	// "{rank}. {name} @{remaining}" with an optional "[{tag}] " in team
	// mode. Display names never contain spaces.
	fieldNameRe = regexp.MustCompile(`^\d+\. (?:\[([A-Z])\] )?(\S+) @(\d+)$`)

	// "{total}pt ({dash-joined points})"
	fieldValueRe = regexp.MustCompile(`^(\d+)pt \(([\d-]*)\)$`)
)

// Table wraps a game with its archived flag. The flag is driven only by
// the explicit end/resume commands, never derived from race progress.
type Table struct {
	Game  *gamedomain.Game
	State tables.State
}

// Embed renders the full player ranking as fields; team mode prefixes a
// team summary in the description and annotates each player with its
// tag.
func (t *Table) Embed() *discordgo.MessageEmbed {
	g := t.Game

	e := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Format: %s", g.FormatName()),
		Color: t.State.Color(),
	}

	if !g.IsFFA() {
		lines := make([]string, 0, len(g.Teams))
		for i, team := range g.RankedTeams() {
			lines = append(lines, fmt.Sprintf("%d. Team %s: %dpt", i+1, team.Tag, team.TotalPoint()))
		}
		e.Description = strings.Join(lines, "\n")
	}

	for i, p := range g.Ranking() {
		name := fmt.Sprintf("%d. %s @%d", i+1, p.Name, p.RemainingRaces())
		if p.Tag != "" {
			name = fmt.Sprintf("%d. [%s] %s @%d", i+1, p.Tag, p.Name, p.RemainingRaces())
		}

		points := make([]string, 0, len(p.Points))
		for _, pt := range p.Points {
			points = append(points, strconv.Itoa(pt))
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: fmt.Sprintf("%dpt (%s)", p.TotalPoint(), strings.Join(points, "-")),
		})
	}

	return e
}

// Decode parses a game embed back into a table. Players are read in
// rendered ranking order and regrouped by tag, so a decoded game is in
// canonical (ranking) order. The redundant total and remaining-races
// annotations are cross-checked against the parsed history.
func Decode(m *discordgo.Message) (*Table, error) {
	if len(m.Embeds) == 0 {
		return nil, fmt.Errorf("message %s has no embeds", m.ID)
	}
	e := m.Embeds[0]

	title := titleRe.FindStringSubmatch(e.Title)
	if title == nil {
		return nil, fmt.Errorf("malformed game title %q", e.Title)
	}

	players := make([]*gamedomain.Player, 0, len(e.Fields))
	for _, f := range e.Fields {
		p, err := decodePlayer(f)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	if len(players) != gamedomain.PlayerCount {
		return nil, errs.InvalidPlayerNum(gamedomain.PlayerCount)
	}

	g := &gamedomain.Game{Teams: gamedomain.MakeTeams(players)}
	if g.FormatName() != title[1] {
		return nil, fmt.Errorf("game title says %s but fields group as %s", title[1], g.FormatName())
	}

	return &Table{Game: g, State: tables.StateFromColor(e.Color)}, nil
}

func decodePlayer(f *discordgo.MessageEmbedField) (*gamedomain.Player, error) {
	name := fieldNameRe.FindStringSubmatch(f.Name)
	if name == nil {
		return nil, fmt.Errorf("malformed player field name %q", f.Name)
	}
	value := fieldValueRe.FindStringSubmatch(f.Value)
	if value == nil {
		return nil, fmt.Errorf("malformed player field value %q", f.Value)
	}

	p := &gamedomain.Player{Tag: name[1], Name: name[2]}
	if value[2] != "" {
		for _, s := range strings.Split(value[2], "-") {
			pt, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("malformed point history %q: %w", f.Value, err)
			}
			p.Points = append(p.Points, pt)
		}
	}

	remaining, _ := strconv.Atoi(name[3])
	if remaining != p.RemainingRaces() {
		return nil, fmt.Errorf("player %s claims %d races left but has %d results", p.Name, remaining, len(p.Points))
	}
	total, _ := strconv.Atoi(value[1])
	if total != p.TotalPoint() {
		return nil, fmt.Errorf("player %s claims %dpt but history sums to %dpt", p.Name, total, p.TotalPoint())
	}

	return p, nil
}

// Valid is the discovery predicate for game tables.
func Valid(botID string, m *discordgo.Message) bool {
	if m.Author == nil || m.Author.ID != botID || len(m.Embeds) != 1 {
		return false
	}
	e := m.Embeds[0]
	return titleRe.MatchString(e.Title) && tables.ValidColor(e.Color)
}

// FromChannel finds and decodes the channel's current game table.
func FromChannel(r tables.HistoryReader, channelID, botID string, opts tables.FetchOptions) (*Table, *discordgo.Message, error) {
	msg, err := tables.FindMessage(r, channelID, func(m *discordgo.Message) bool {
		return Valid(botID, m)
	}, opts)
	if err != nil {
		return nil, nil, err
	}
	t, err := Decode(msg)
	if err != nil {
		return nil, nil, err
	}
	if err := tables.CheckArchived(t.State, opts.AllowArchived); err != nil {
		return nil, nil, err
	}
	return t, msg, nil
}
