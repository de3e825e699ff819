// Package gathertables is the codec between a gather table and its
// Discord message embed. The embed is the durable record: Embed and
// Decode must stay exact inverses for every valid table state.
package gathertables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	gatherdomain "github.com/mk-lounge/gatherbot/app/modules/gather/domain"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

var (
	titleRe = regexp.MustCompile(`^Members @(\d+)$`)
	lineRe  = regexp.MustCompile(`^\d+\. (.+)$`)
)

// Embed renders the table: a "Members @<slots-left>" title, the state
// color, and a numbered line per participant.
func Embed(t *gatherdomain.Table) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(t.Names))
	for i, name := range t.Names {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, name))
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Members @%d", t.SlotsLeft()),
		Color:       t.State.Color(),
		Description: strings.Join(lines, "\n"),
	}
}

// Decode parses a gather embed back into a table. State is inferred
// from the color alone.
func Decode(m *discordgo.Message) (*gatherdomain.Table, error) {
	if len(m.Embeds) == 0 {
		return nil, fmt.Errorf("message %s has no embeds", m.ID)
	}
	e := m.Embeds[0]

	var names []string
	if e.Description != "" {
		for _, line := range strings.Split(e.Description, "\n") {
			match := lineRe.FindStringSubmatch(line)
			if match == nil {
				return nil, fmt.Errorf("malformed gather line %q", line)
			}
			names = append(names, match[1])
		}
	}

	return gatherdomain.New(names, tables.StateFromColor(e.Color)), nil
}

// Valid is the discovery predicate: authored by the bot, a gather
// title, and a state color.
func Valid(botID string, m *discordgo.Message) bool {
	if m.Author == nil || m.Author.ID != botID || len(m.Embeds) != 1 {
		return false
	}
	e := m.Embeds[0]
	return titleRe.MatchString(e.Title) && tables.ValidColor(e.Color)
}

// FromChannel finds and decodes the channel's current gather table.
func FromChannel(r tables.HistoryReader, channelID, botID string, opts tables.FetchOptions) (*gatherdomain.Table, *discordgo.Message, error) {
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
