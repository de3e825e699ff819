// Package formathandlers runs the format vote: it consumes the
// completed gather roster, posts the vote table, and records exclusive
// votes until the unvoted bucket empties.
package formathandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"

	"github.com/mk-lounge/gatherbot/app/discord"
	"github.com/mk-lounge/gatherbot/app/events"
	formatdomain "github.com/mk-lounge/gatherbot/app/modules/format/domain"
	formattables "github.com/mk-lounge/gatherbot/app/modules/format/tables"
	"github.com/mk-lounge/gatherbot/app/shared/attr"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

// SelectID is the vote select menu's custom ID, kept stable across
// deploys.
const SelectID = "format"

// Publisher publishes module events onto the router.
type Publisher interface {
	PublishJSON(topic string, payload any) error
}

// Handlers holds the format module's Discord and router entry points.
type Handlers struct {
	sender    *discord.Sender
	publisher Publisher
	logger    *slog.Logger
}

func New(sender *discord.Sender, publisher Publisher, logger *slog.Logger) *Handlers {
	return &Handlers{
		sender:    sender,
		publisher: publisher,
		logger:    logger,
	}
}

// Register binds the vote select menu onto the bot.
func (h *Handlers) Register(bot *discord.Bot) {
	bot.Component("format", SelectID, h.HandleVote)
}

// View returns the format select menu attached to an ongoing vote.
func View() []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(formatdomain.BucketOrder)-1)
	for _, k := range formatdomain.BucketOrder {
		if k == formatdomain.UnvotedKey {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: formattables.BucketNames[k],
			Value: strconv.Itoa(k),
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    SelectID,
					Placeholder: "Select your preferred format",
					Options:     options,
				},
			},
		},
	}
}

// HandleGatherCompleted posts a fresh vote table with the whole roster
// in the unvoted bucket.
func (h *Handlers) HandleGatherCompleted(msg *message.Message) error {
	var payload events.GatherCompletedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", events.GatherCompleted, err)
	}

	table, err := formatdomain.New(map[int][]string{
		formatdomain.UnvotedKey: payload.Names,
	}, tables.StateOngoing)
	if err != nil {
		return err
	}

	sent, err := h.sender.SendTable(msg.Context(), payload.ChannelID, formattables.Embed(table), View())
	if err != nil {
		return err
	}

	h.logger.Info("format vote started",
		attr.CorrelationIDFromMsg(msg),
		attr.ChannelID(payload.ChannelID),
		attr.MessageID(sent.ID),
	)
	return nil
}

// HandleVote moves the voter into the selected bucket. Emptying the
// unvoted bucket resolves the vote and hands the winning format to the
// game module.
func (h *Handlers) HandleVote(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}

	table, err := formattables.Decode(ic.Message)
	if err != nil {
		return err
	}
	if table.State == tables.StateDone {
		return errs.ArchivedTable()
	}

	name := discord.DisplayName(ic)
	if !table.HasMember(name) {
		return errs.NotParticipant(name)
	}

	choice, err := strconv.Atoi(ic.MessageComponentData().Values[0])
	if err != nil {
		return fmt.Errorf("unparsable format choice %q: %w", ic.MessageComponentData().Values[0], err)
	}
	if err := table.CastVote(name, choice); err != nil {
		return err
	}

	if table.Resolved() {
		table.State = tables.StateDone
		if err := h.sender.EditTable(ctx, ic.ChannelID, ic.Message.ID, formattables.Embed(table), nil); err != nil {
			return err
		}
		if err := h.publisher.PublishJSON(events.FormatResolved, events.FormatResolvedPayload{
			GuildID:   ic.GuildID,
			ChannelID: ic.ChannelID,
			Format:    table.Winner(),
			Names:     table.Members(),
		}); err != nil {
			return err
		}
		h.logger.Info("format resolved",
			attr.ChannelID(ic.ChannelID),
			attr.Format(table.Winner()),
		)
	} else {
		if err := h.sender.EditTable(ctx, ic.ChannelID, ic.Message.ID, formattables.Embed(table), View()); err != nil {
			return err
		}
	}

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"Your vote has been recorded",
		"投票が記録されました",
	), true)
}
