// Package gamehandlers runs the game phase: it consumes the resolved
// format, posts the game table, and records race results until the
// event is explicitly ended. Unlike button-driven tables, the result
// commands are not bound to a message, so every operation rediscovers
// the channel's current game table by scanning recent history.
package gamehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"

	"github.com/mk-lounge/gatherbot/app/discord"
	"github.com/mk-lounge/gatherbot/app/events"
	gamedomain "github.com/mk-lounge/gatherbot/app/modules/game/domain"
	gametables "github.com/mk-lounge/gatherbot/app/modules/game/tables"
	"github.com/mk-lounge/gatherbot/app/shared/attr"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/app/shared/tables"
	"github.com/mk-lounge/gatherbot/internal/metrics"
)

// Component custom IDs, kept stable across deploys.
const (
	EndButtonID    = "_end_button"
	ResumeButtonID = "_resume_button"
)

// lastIndex selects the most recent race result by default.
const lastIndex = -1

// Handlers holds the game module's Discord and router entry points.
type Handlers struct {
	sender  *discord.Sender
	history tables.HistoryReader
	metrics *metrics.Metrics
	logger  *slog.Logger
	rng     *rand.Rand
	botID   string
	fetch   tables.FetchOptions
}

func New(sender *discord.Sender, history tables.HistoryReader, m *metrics.Metrics, logger *slog.Logger, rng *rand.Rand, botID string, fetch tables.FetchOptions) *Handlers {
	return &Handlers{
		sender:  sender,
		history: history,
		metrics: m,
		logger:  logger,
		rng:     rng,
		botID:   botID,
		fetch:   fetch,
	}
}

// Register binds the module's commands and components onto the bot.
func (h *Handlers) Register(bot *discord.Bot) {
	one, twelve := float64(1), float64(12)

	bot.Command("game", &discordgo.ApplicationCommand{
		Name:        "result",
		Description: "Record your placement for the current race",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "rank",
				Description: "Your placement, 1-12",
				Required:    true,
				MinValue:    &one,
				MaxValue:    twelve,
			},
		},
	}, h.HandleResult)

	bot.Command("game", &discordgo.ApplicationCommand{
		Name:        "revert",
		Description: "Drop one of your recorded results (default: most recent)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "index",
				Description: "Race index to drop; negative counts from the end",
			},
		},
	}, h.HandleRevert)

	bot.Command("game", &discordgo.ApplicationCommand{
		Name:        "amend",
		Description: "Overwrite one of your recorded results (default: most recent)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "rank",
				Description: "The corrected placement, 1-12",
				Required:    true,
				MinValue:    &one,
				MaxValue:    twelve,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "index",
				Description: "Race index to overwrite; negative counts from the end",
			},
		},
	}, h.HandleAmend)

	bot.Command("game", &discordgo.ApplicationCommand{
		Name:        "end",
		Description: "Archive the current game table",
	}, h.HandleEnd)

	bot.Command("game", &discordgo.ApplicationCommand{
		Name:        "resume",
		Description: "Reopen the most recent archived game table",
	}, h.HandleResume)

	bot.Component("game", EndButtonID, h.HandleEndButton)
	bot.Component("game", ResumeButtonID, h.HandleResumeButton)
}

// View returns the End control attached to an ongoing game table.
func View() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "End", Style: discordgo.DangerButton, CustomID: EndButtonID},
			},
		},
	}
}

// ResumeView returns the Resume control attached to an archived table.
func ResumeView() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Resume", Style: discordgo.PrimaryButton, CustomID: ResumeButtonID},
			},
		},
	}
}

// HandleFormatResolved shuffles the roster into teams of the winning
// format and posts the game table.
func (h *Handlers) HandleFormatResolved(msg *message.Message) error {
	var payload events.FormatResolvedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", events.FormatResolved, err)
	}

	game, err := gamedomain.NewGame(payload.Format, payload.Names, h.rng)
	if err != nil {
		return err
	}
	table := &gametables.Table{Game: game, State: tables.StateOngoing}

	sent, err := h.sender.SendTable(msg.Context(), payload.ChannelID, table.Embed(), View())
	if err != nil {
		return err
	}

	h.logger.Info("game started",
		attr.CorrelationIDFromMsg(msg),
		attr.ChannelID(payload.ChannelID),
		attr.MessageID(sent.ID),
		attr.Format(payload.Format),
	)
	return nil
}

// fetchGame rediscovers the channel's current game table and counts the
// outcome.
func (h *Handlers) fetchGame(channelID string, allowArchived bool) (*gametables.Table, *discordgo.Message, error) {
	opts := h.fetch
	opts.AllowArchived = allowArchived

	table, msg, err := gametables.FromChannel(h.history, channelID, h.botID, opts)
	switch {
	case err == nil:
		h.metrics.TableFetchesTotal.WithLabelValues("game", "found").Inc()
	case errors.Is(err, errs.KindTableNotFound):
		h.metrics.TableFetchesTotal.WithLabelValues("game", "not_found").Inc()
	case errors.Is(err, errs.KindArchivedTable):
		h.metrics.TableFetchesTotal.WithLabelValues("game", "archived").Inc()
	default:
		h.metrics.TableFetchesTotal.WithLabelValues("game", "error").Inc()
	}
	return table, msg, err
}

// mutateResult runs one decode → mutate → encode cycle against the
// invoking user's player record.
func (h *Handlers) mutateResult(ctx context.Context, ic *discordgo.InteractionCreate, mutate func(*gamedomain.Player) error) (*gametables.Table, error) {
	table, msg, err := h.fetchGame(ic.ChannelID, false)
	if err != nil {
		return nil, err
	}

	player, err := table.Game.GetPlayer(discord.DisplayName(ic))
	if err != nil {
		return nil, err
	}
	if err := mutate(player); err != nil {
		return nil, err
	}

	if err := h.sender.EditTable(ctx, ic.ChannelID, msg.ID, table.Embed(), View()); err != nil {
		return nil, err
	}
	return table, nil
}

// HandleResult records the invoking player's placement for the current
// race.
func (h *Handlers) HandleResult(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	rank := int(requiredOption(ic, "rank"))

	var remaining int
	table, err := h.mutateResult(ctx, ic, func(p *gamedomain.Player) error {
		if err := p.AddRank(rank); err != nil {
			return err
		}
		remaining = p.RemainingRaces()
		return nil
	})
	if err != nil {
		return err
	}

	if table.Game.IsFinished() {
		return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
			"All 12 races are in. Use /end to archive the table.",
			"全12レースの結果が揃いました。/end でテーブルを終了できます。",
		), false)
	}
	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		fmt.Sprintf("Result recorded. %d races left.", remaining),
		fmt.Sprintf("結果を記録しました。残り%dレースです。", remaining),
	), true)
}

// HandleRevert drops one of the invoking player's recorded results.
func (h *Handlers) HandleRevert(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	index := int(optionalOption(ic, "index", lastIndex))

	if _, err := h.mutateResult(ctx, ic, func(p *gamedomain.Player) error {
		return p.RemoveRank(index)
	}); err != nil {
		return err
	}

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"Result removed.",
		"結果を削除しました。",
	), true)
}

// HandleAmend overwrites one of the invoking player's recorded results.
func (h *Handlers) HandleAmend(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	rank := int(requiredOption(ic, "rank"))
	index := int(optionalOption(ic, "index", lastIndex))

	if _, err := h.mutateResult(ctx, ic, func(p *gamedomain.Player) error {
		return p.EditRank(rank, index)
	}); err != nil {
		return err
	}

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"Result amended.",
		"結果を修正しました。",
	), true)
}

// HandleEnd archives the channel's current game table.
func (h *Handlers) HandleEnd(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	table, msg, err := h.fetchGame(ic.ChannelID, false)
	if err != nil {
		return err
	}
	return h.endTable(ctx, ic, table, msg)
}

// HandleEndButton archives the table carrying the button.
func (h *Handlers) HandleEndButton(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	table, err := gametables.Decode(ic.Message)
	if err != nil {
		return err
	}
	if table.State == tables.StateDone {
		return errs.ArchivedTable()
	}
	return h.endTable(ctx, ic, table, ic.Message)
}

func (h *Handlers) endTable(ctx context.Context, ic *discordgo.InteractionCreate, table *gametables.Table, msg *discordgo.Message) error {
	table.State = tables.StateDone
	if err := h.sender.EditTable(ctx, ic.ChannelID, msg.ID, table.Embed(), ResumeView()); err != nil {
		return err
	}
	h.logger.Info("game archived", attr.ChannelID(ic.ChannelID), attr.MessageID(msg.ID))

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"The game has been archived.",
		"ゲームを終了しました。",
	), true)
}

// HandleResume reopens the most recent game table, archived or not.
func (h *Handlers) HandleResume(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	table, msg, err := h.fetchGame(ic.ChannelID, true)
	if err != nil {
		return err
	}
	return h.resumeTable(ctx, ic, table, msg)
}

// HandleResumeButton reopens the archived table carrying the button.
func (h *Handlers) HandleResumeButton(ctx context.Context, ic *discordgo.InteractionCreate) error {
	if err := h.sender.Defer(ctx, ic.Interaction); err != nil {
		return err
	}
	table, err := gametables.Decode(ic.Message)
	if err != nil {
		return err
	}
	return h.resumeTable(ctx, ic, table, ic.Message)
}

func (h *Handlers) resumeTable(ctx context.Context, ic *discordgo.InteractionCreate, table *gametables.Table, msg *discordgo.Message) error {
	if table.State == tables.StateOngoing {
		return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
			"The game is already ongoing.",
			"ゲームはすでに進行中です。",
		), true)
	}

	table.State = tables.StateOngoing
	if err := h.sender.EditTable(ctx, ic.ChannelID, msg.ID, table.Embed(), View()); err != nil {
		return err
	}
	h.logger.Info("game resumed", attr.ChannelID(ic.ChannelID), attr.MessageID(msg.ID))

	return h.sender.Followup(ctx, ic.Interaction, discord.Localize(ic.Locale,
		"The game has been resumed.",
		"ゲームを再開しました。",
	), true)
}

func requiredOption(ic *discordgo.InteractionCreate, name string) int64 {
	for _, opt := range ic.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return 0
}

func optionalOption(ic *discordgo.InteractionCreate, name string, fallback int64) int64 {
	for _, opt := range ic.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return fallback
}
