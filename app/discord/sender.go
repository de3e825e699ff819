package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// Session is the slice of *discordgo.Session the sender writes through.
// Handlers hold this interface so tests can run against a fake.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sender serializes outbound writes behind a modest rate limit; the
// library already honors Discord's hard limits, this just keeps table
// edit bursts polite.
type Sender struct {
	session Session
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewSender(session Session, logger *slog.Logger) *Sender {
	return NewSenderWithLimit(session, logger, rate.Limit(4), 4)
}

func NewSenderWithLimit(session Session, logger *slog.Logger, limit rate.Limit, burst int) *Sender {
	return &Sender{
		session: session,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// SendTable posts a new table message with its controls.
func (s *Sender) SendTable(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	msg, err := s.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return nil, fmt.Errorf("sending table to channel %s: %w", channelID, err)
	}
	return msg, nil
}

// EditTable rewrites a table message in place. Passing an empty
// component list strips the controls, archiving the table's UI.
func (s *Sender) EditTable(ctx context.Context, channelID, messageID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Embeds = &[]*discordgo.MessageEmbed{embed}
	edit.Components = &components
	if _, err := s.session.ChannelMessageEditComplex(edit); err != nil {
		return fmt.Errorf("editing table message %s: %w", messageID, err)
	}
	return nil
}

// Defer acknowledges an interaction ephemerally within the platform
// response deadline; the real reply follows up later.
func (s *Sender) Defer(ctx context.Context, i *discordgo.Interaction) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// RespondEphemeral sends an immediate ephemeral reply.
func (s *Sender) RespondEphemeral(ctx context.Context, i *discordgo.Interaction, content string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// Followup sends a followup message for an already-acknowledged
// interaction.
func (s *Sender) Followup(ctx context.Context, i *discordgo.Interaction, content string, ephemeral bool) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	params := &discordgo.WebhookParams{Content: content}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	if _, err := s.session.FollowupMessageCreate(i, true, params); err != nil {
		return fmt.Errorf("sending followup: %w", err)
	}
	return nil
}
