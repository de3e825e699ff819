// Package eventbus wraps the in-process Watermill Pub/Sub used for
// module choreography. There is deliberately no broker: the bot is a
// single process and all durable state lives in Discord messages.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventBus is a gochannel Pub/Sub carrying JSON payloads.
type EventBus struct {
	pubsub *gochannel.GoChannel
}

func New(logger *slog.Logger) *EventBus {
	return &EventBus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
	}
}

// PublishJSON marshals the payload and publishes it with a fresh UUID
// and correlation ID.
func (b *EventBus) PublishJSON(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	middleware.SetCorrelationID(uuid.New().String(), msg)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

func (b *EventBus) Subscriber() message.Subscriber { return b.pubsub }

func (b *EventBus) Close() error { return b.pubsub.Close() }
