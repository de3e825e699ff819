// Package discord is the boundary with the chat platform: session
// lifecycle, slash command registration, and interaction dispatch.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mk-lounge/gatherbot/app/shared/attr"
	"github.com/mk-lounge/gatherbot/app/shared/errs"
	"github.com/mk-lounge/gatherbot/config"
	"github.com/mk-lounge/gatherbot/internal/metrics"
)

// Handler processes one command or component interaction. Domain
// errors returned here are localized back to the user; anything else
// is logged and counted.
type Handler func(ctx context.Context, ic *discordgo.InteractionCreate) error

type registration struct {
	module  string
	action  string
	handler Handler
}

// Bot owns the gateway session and routes interactions to module
// handlers by command name or component custom ID.
type Bot struct {
	session *discordgo.Session
	sender  *Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     config.DiscordConfig

	commands    map[string]registration
	components  map[string]registration
	definitions []*discordgo.ApplicationCommand
}

func New(cfg config.DiscordConfig, logger *slog.Logger, m *metrics.Metrics) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return &Bot{
		session:    session,
		sender:     NewSender(session, logger),
		logger:     logger,
		metrics:    m,
		cfg:        cfg,
		commands:   make(map[string]registration),
		components: make(map[string]registration),
	}, nil
}

func (b *Bot) Session() *discordgo.Session { return b.session }

// Sender returns the rate-limited writer modules send tables through.
func (b *Bot) Sender() *Sender { return b.sender }

// BotID is the application user ID, used as the table author predicate.
func (b *Bot) BotID() string { return b.cfg.AppID }

// Command registers a slash command definition and its handler.
func (b *Bot) Command(module string, def *discordgo.ApplicationCommand, h Handler) {
	b.commands[def.Name] = registration{module: module, action: def.Name, handler: h}
	b.definitions = append(b.definitions, def)
}

// Component registers a handler for a message component custom ID.
func (b *Bot) Component(module, customID string, h Handler) {
	b.components[customID] = registration{module: module, action: customID, handler: h}
}

// Open connects the gateway and overwrites the command set. With a
// guild ID configured commands register per-guild (instant), otherwise
// globally.
func (b *Bot) Open(ctx context.Context) error {
	b.session.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.dispatch(ctx, ic)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, b.definitions); err != nil {
		return fmt.Errorf("registering application commands: %w", err)
	}

	b.logger.Info("discord gateway open", attr.Int("commands", len(b.definitions)))
	return nil
}

func (b *Bot) Close() error { return b.session.Close() }

func (b *Bot) dispatch(ctx context.Context, ic *discordgo.InteractionCreate) {
	var reg registration
	var ok bool

	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		reg, ok = b.commands[ic.ApplicationCommandData().Name]
	case discordgo.InteractionMessageComponent:
		reg, ok = b.components[ic.MessageComponentData().CustomID]
	default:
		return
	}
	if !ok {
		// Unknown commands and stray components are ignored.
		return
	}

	b.metrics.InteractionsTotal.WithLabelValues(reg.module, reg.action).Inc()

	if err := reg.handler(ctx, ic); err != nil {
		b.replyError(ctx, ic, reg, err)
	}
}

// replyError renders domain errors to the user in their locale and
// swallows them; everything else is logged and counted.
func (b *Bot) replyError(ctx context.Context, ic *discordgo.InteractionCreate, reg registration, err error) {
	var domainErr *errs.Error
	if errors.As(err, &domainErr) {
		b.reply(ctx, ic, domainErr.Localize(string(ic.Locale)))
		return
	}

	b.metrics.HandlerErrorsTotal.WithLabelValues(reg.module, reg.action).Inc()
	b.logger.Error("handler failed",
		attr.String("module", reg.module),
		attr.String("action", reg.action),
		attr.ChannelID(ic.ChannelID),
		attr.Error(err),
	)
	b.reply(ctx, ic, "Unexpected error raised.\n予期しないエラーが発生しました。")
}

// reply tries an immediate ephemeral response and falls back to a
// followup when the interaction was already acknowledged.
func (b *Bot) reply(ctx context.Context, ic *discordgo.InteractionCreate, content string) {
	if err := b.sender.RespondEphemeral(ctx, ic.Interaction, content); err != nil {
		if err := b.sender.Followup(ctx, ic.Interaction, content, true); err != nil {
			b.logger.Warn("failed to deliver error reply", attr.Error(err))
		}
	}
}

// DisplayName resolves the interaction user's display identifier:
// global name when set, else username, spaces flattened to underscores
// so the table grammar stays unambiguous.
func DisplayName(ic *discordgo.InteractionCreate) string {
	user := ic.User
	if ic.Member != nil {
		user = ic.Member.User
	}
	name := user.GlobalName
	if name == "" {
		name = user.Username
	}
	return strings.ReplaceAll(name, " ", "_")
}
