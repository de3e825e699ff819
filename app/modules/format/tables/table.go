// Package formattables is the codec between a format-vote table and
// its Discord message embed.
package formattables

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	formatdomain "github.com/mk-lounge/gatherbot/app/modules/format/domain"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

const (
	// Title is the fixed format-table title, part of the wire contract.
	Title = "Preferred format"

	description = "Click the buttons to vote for the format you prefer"

	// noVotes marks an empty bucket; Discord rejects empty field
	// values, so absence cannot be encoded as absence.
	noVotes = "No votes"
)

// BucketNames maps bucket keys to rendered field names, in the fixed
// order FFA, 2v2, 3v3, 4v4, 6v6, Unvoted.
var BucketNames = map[int]string{
	1:                       "FFA",
	2:                       "2v2",
	3:                       "3v3",
	4:                       "4v4",
	6:                       "6v6",
	formatdomain.UnvotedKey: "Unvoted",
}

var bucketKeys = func() map[string]int {
	keys := make(map[string]int, len(BucketNames))
	for k, name := range BucketNames {
		keys[name] = k
	}
	return keys
}()

// Embed renders one field per bucket in fixed order; empty buckets
// carry the no-votes marker, populated ones a comma-joined name list.
func Embed(t *formatdomain.Table) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(formatdomain.BucketOrder))
	for _, k := range formatdomain.BucketOrder {
		value := noVotes
		if members := t.Data[k]; len(members) > 0 {
			value = strings.Join(members, ",")
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  BucketNames[k],
			Value: value,
		})
	}
	return &discordgo.MessageEmbed{
		Title:       Title,
		Color:       t.State.Color(),
		Description: description,
		Fields:      fields,
	}
}

// Decode parses a format embed back into a table; the no-votes marker
// reads as an empty bucket, not a parse error. Construction re-checks
// the 12-member union.
func Decode(m *discordgo.Message) (*formatdomain.Table, error) {
	if len(m.Embeds) == 0 {
		return nil, fmt.Errorf("message %s has no embeds", m.ID)
	}
	e := m.Embeds[0]

	data := make(map[int][]string, len(e.Fields))
	for _, f := range e.Fields {
		k, ok := bucketKeys[f.Name]
		if !ok {
			return nil, fmt.Errorf("unknown format field %q", f.Name)
		}
		if f.Value == noVotes {
			data[k] = []string{}
			continue
		}
		data[k] = strings.Split(f.Value, ",")
	}

	return formatdomain.New(data, tables.StateFromColor(e.Color))
}

// Valid is the discovery predicate for format tables.
func Valid(botID string, m *discordgo.Message) bool {
	if m.Author == nil || m.Author.ID != botID || len(m.Embeds) != 1 {
		return false
	}
	e := m.Embeds[0]
	return e.Title == Title && tables.ValidColor(e.Color)
}

// FromChannel finds and decodes the channel's current format table.
func FromChannel(r tables.HistoryReader, channelID, botID string, opts tables.FetchOptions) (*formatdomain.Table, *discordgo.Message, error) {
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
