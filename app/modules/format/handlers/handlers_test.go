package formathandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mk-lounge/gatherbot/app/discord"
	"github.com/mk-lounge/gatherbot/app/events"
	formatdomain "github.com/mk-lounge/gatherbot/app/modules/format/domain"
	formattables "github.com/mk-lounge/gatherbot/app/modules/format/tables"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

func newHandlers(t *testing.T) (*Handlers, *fakeSession, *fakePublisher) {
	t.Helper()
	session := &fakeSession{}
	publisher := &fakePublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(discord.NewSender(session, logger), publisher, logger), session, publisher
}

func roster(n int) []string {
	faker := gofakeit.New(23)
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", faker.Gamertag(), i)
	}
	return names
}

func gatherCompleted(t *testing.T, names []string) *message.Message {
	t.Helper()
	payload, err := json.Marshal(events.GatherCompletedPayload{
		GuildID:   "guild",
		ChannelID: "chan",
		Names:     names,
	})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func voteClick(t *testing.T, table *formatdomain.Table, user string, choice int) *discordgo.InteractionCreate {
	t.Helper()
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "guild",
		ChannelID: "chan",
		Message: &discordgo.Message{
			ID:     "table-msg",
			Embeds: []*discordgo.MessageEmbed{formattables.Embed(table)},
		},
		Member: &discordgo.Member{User: &discordgo.User{Username: user}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: SelectID,
			Values:   []string{strconv.Itoa(choice)},
		},
	}}
}

func TestHandleGatherCompletedPostsVoteTable(t *testing.T) {
	h, session, _ := newHandlers(t)

	require.NoError(t, h.HandleGatherCompleted(gatherCompleted(t, roster(12))))

	require.Len(t, session.sent, 1)
	embed := session.sent[0].Embeds[0]
	assert.Equal(t, formattables.Title, embed.Title)

	decoded, err := formattables.Decode(&discordgo.Message{Embeds: []*discordgo.MessageEmbed{embed}})
	require.NoError(t, err)
	assert.Len(t, decoded.Data[formatdomain.UnvotedKey], 12, "everyone starts unvoted")
	assert.Len(t, session.sent[0].Components, 1, "select menu attached")
}

func TestHandleGatherCompletedRejectsShortRoster(t *testing.T) {
	h, session, _ := newHandlers(t)

	err := h.HandleGatherCompleted(gatherCompleted(t, roster(11)))
	assert.ErrorIs(t, err, errs.KindInvalidPlayerNum)
	assert.Empty(t, session.sent)
}

func TestHandleVoteRecordsChoice(t *testing.T) {
	h, session, publisher := newHandlers(t)

	table, err := formatdomain.New(map[int][]string{formatdomain.UnvotedKey: roster(12)}, tables.StateOngoing)
	require.NoError(t, err)
	voter := table.Data[formatdomain.UnvotedKey][0]

	require.NoError(t, h.HandleVote(context.Background(), voteClick(t, table, voter, 2)))

	edited, err := formattables.Decode(&discordgo.Message{Embeds: *session.lastEdit().Embeds})
	require.NoError(t, err)
	assert.Contains(t, edited.Data[2], voter)
	assert.Len(t, edited.Data[formatdomain.UnvotedKey], 11)
	assert.Equal(t, tables.StateOngoing, edited.State)
	assert.NotEmpty(t, *session.lastEdit().Components)
	assert.Empty(t, publisher.topics)
}

func TestHandleVoteLastVoteResolves(t *testing.T) {
	h, session, publisher := newHandlers(t)

	names := roster(12)
	table, err := formatdomain.New(map[int][]string{
		2:                       names[:6],
		3:                       names[6:11],
		formatdomain.UnvotedKey: names[11:],
	}, tables.StateOngoing)
	require.NoError(t, err)

	require.NoError(t, h.HandleVote(context.Background(), voteClick(t, table, names[11], 3)))

	edited, err := formattables.Decode(&discordgo.Message{Embeds: *session.lastEdit().Embeds})
	require.NoError(t, err)
	assert.Equal(t, tables.StateDone, edited.State)
	assert.Empty(t, *session.lastEdit().Components, "resolved vote loses its menu")

	require.Equal(t, []string{events.FormatResolved}, publisher.topics)
	payload, ok := publisher.payloads[0].(events.FormatResolvedPayload)
	require.True(t, ok)
	assert.Equal(t, 2, payload.Format, "6 votes for 2v2 beat 6 for 3v3 on bucket order")
	assert.Len(t, payload.Names, 12)
}

func TestHandleVoteNonParticipant(t *testing.T) {
	h, session, _ := newHandlers(t)

	table, err := formatdomain.New(map[int][]string{formatdomain.UnvotedKey: roster(12)}, tables.StateOngoing)
	require.NoError(t, err)

	err = h.HandleVote(context.Background(), voteClick(t, table, "stranger", 2))
	assert.ErrorIs(t, err, errs.KindNotParticipant)
	assert.Empty(t, session.edits)
}

func TestHandleVoteArchivedTable(t *testing.T) {
	h, session, _ := newHandlers(t)

	names := roster(12)
	table, err := formatdomain.New(map[int][]string{2: names}, tables.StateDone)
	require.NoError(t, err)

	err = h.HandleVote(context.Background(), voteClick(t, table, names[0], 3))
	assert.ErrorIs(t, err, errs.KindArchivedTable)
	assert.Empty(t, session.edits)
}
