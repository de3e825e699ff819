// Package gatherhandlers wires the gather table to Discord: the
// /gather command posts a fresh table, the Join/Cancel buttons mutate
// it through a decode → mutate → encode round trip on the triggering
// message.
package gatherhandlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/mk-lounge/gatherbot/app/discord"
	"github.com/mk-lounge/gatherbot/app/events"
	gatherdomain "github.com/mk-lounge/gatherbot/app/modules/gather/domain"
	gathertables "github.com/mk-lounge/gatherbot/app/modules/gather/tables"
	"github.com/mk-lounge/gatherbot/app/shared/attr"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
)

// Component custom IDs, kept stable so live tables keep working across
// deploys.
const (
	JoinButtonID   = "_join_button"
	CancelButtonID = "_cancel_button"
)

// Publisher publishes module events onto the router.
type Publisher interface {
	PublishJSON(topic string, payload any) error
}

// Handlers holds the gather module's Discord entry points.
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

// Register binds the module's command and components onto the bot.
func (h *Handlers) Register(bot *discord.Bot) {
	bot.Command("gather", &discordgo.ApplicationCommand{
		Name:        "gather",
		Description: "Start collecting members for a 12-player event",
	}, h.HandleGather)
	bot.Component("gather", JoinButtonID, h.HandleJoin)
	bot.Component("gather", CancelButtonID, h.HandleCancel)
}

// View returns the Join/Cancel controls attached to an ongoing gather
// table.
func View() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Join", Style: discordgo.PrimaryButton, CustomID: JoinButtonID},
				discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: CancelButtonID},
			},
		},
	}
}

// HandleGather posts a fresh, empty gather table to the channel.
func (h *Handlers) HandleGather(ctx context.Context, ic *discordgo.InteractionCreate) error {
	table := gatherdomain.New(nil, tables.StateOngoing)

	msg, err := h.sender.SendTable(ctx, ic.ChannelID, gathertables.Embed(table), View())
	if err != nil {
		return err
	}
	h.logger.Info("gather started", attr.ChannelID(ic.ChannelID), attr.MessageID(msg.ID))

	return h.sender.RespondEphemeral(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"Gather table posted.",
		"募集テーブルを作成しました。",
	))
}

// HandleJoin adds the clicking user to the table. The 12th distinct
// join archives the gather and hands the roster to the format module.
func (h *Handlers) HandleJoin(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}

	table, err := gathertables.Decode(ic.Message)
	if err != nil {
		return err
	}
	if table.State == tables.StateDone {
		return errs.ArchivedTable()
	}

	name := discord.DisplayName(ic)
	table.AddName(name)

	if table.State == tables.StateDone {
		// Strip the buttons: the gather is complete and archived.
		if err := h.sender.EditTable(ctx, ic.ChannelID, ic.Message.ID, gathertables.Embed(table), nil); err != nil {
			return err
		}
		if err := h.publisher.PublishJSON(events.GatherCompleted, events.GatherCompletedPayload{
			GuildID:   ic.GuildID,
			ChannelID: ic.ChannelID,
			Names:     table.Names,
		}); err != nil {
			return err
		}
		h.logger.Info("gather completed", attr.ChannelID(ic.ChannelID), attr.Int("members", table.Len()))
	} else {
		if err := h.sender.EditTable(ctx, ic.ChannelID, ic.Message.ID, gathertables.Embed(table), View()); err != nil {
			return err
		}
	}

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"You have joined the Game",
		"ゲームに参加しました。",
	), true)
}

// HandleCancel removes the clicking user from the table; cancelling
// without having joined is a silent no-op.
func (h *Handlers) HandleCancel(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}

	table, err := gathertables.Decode(ic.Message)
	if err != nil {
		return err
	}
	if table.State == tables.StateDone {
		return errs.ArchivedTable()
	}

	table.RemoveName(discord.DisplayName(ic))

	if err := h.sender.EditTable(ctx, ic.ChannelID, ic.Message.ID, gathertables.Embed(table), View()); err != nil {
		return err
	}

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"You have canceled the Game",
		"ゲームをキャンセルしました。",
	), true)
}
