// Package attr provides slog.Attr constructors shared across modules so
// log fields keep consistent keys.
package attr

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

func Error(err error) slog.Attr { return slog.Any("error", err) }

func ChannelID(id string) slog.Attr { return slog.String("channel_id", id) }

func MessageID(id string) slog.Attr { return slog.String("message_id", id) }

func UserName(name string) slog.Attr { return slog.String("user_name", name) }

func Table(kind string) slog.Attr { return slog.String("table", kind) }

func Format(format int) slog.Attr { return slog.Int("format", format) }

// CorrelationIDFromMsg extracts the correlation ID set by the router
// middleware for cross-module tracing of one event chain.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}
