// Package tables holds the conventions shared by every message-embedded
// table: the state/color signal and the channel-history discovery scan.
//
// A table's only durable record is the Discord message carrying its
// embed. Each table package provides an encode/decode pair over
// *discordgo.MessageEmbed plus a validity predicate; this package finds
// the message to decode.
package tables

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mk-lounge/gatherbot/app/shared/errs"
)

// State is the table lifecycle flag encoded in the embed color.
type State int

const (
	StateOngoing State = iota
	StateDone
)

func (s State) String() string {
	if s == StateDone {
		return "DONE"
	}
	return "ONGOING"
}

// Embed colors signaling state. These are part of the wire contract:
// decode infers state from the color alone.
const (
	ColorOngoing = 0x5865F2 // blurple
	ColorDone    = 0x99AAB5 // greyple
)

func (s State) Color() int {
	if s == StateDone {
		return ColorDone
	}
	return ColorOngoing
}

// StateFromColor maps an embed color back to a state. Callers validate
// the color before decoding, so anything non-done reads as ongoing.
func StateFromColor(color int) State {
	if color == ColorDone {
		return StateDone
	}
	return StateOngoing
}

// ValidColor reports whether the color is one of the two state colors.
func ValidColor(color int) bool {
	return color == ColorOngoing || color == ColorDone
}

// HistoryReader is the slice of the Discord session used by the scan.
type HistoryReader interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// FetchOptions bound the history scan. The scan is a heuristic: the
// most recent matching message in the window is assumed canonical for
// the channel.
type FetchOptions struct {
	// MessageLimit caps how many messages are examined, newest first.
	MessageLimit int
	// MaxAge discards messages older than this span.
	MaxAge time.Duration
	// AllowArchived permits returning a table whose state is DONE.
	AllowArchived bool
}

const (
	DefaultMessageLimit = 50
	DefaultMaxAge       = 24 * time.Hour

	// Discord's per-request history page cap.
	historyPageSize = 100
)

func (o FetchOptions) withDefaults() FetchOptions {
	if o.MessageLimit <= 0 {
		o.MessageLimit = DefaultMessageLimit
	}
	if o.MaxAge <= 0 {
		o.MaxAge = DefaultMaxAge
	}
	return o
}

// FindMessage scans the channel history newest-first for the most
// recent message satisfying valid, within the window bounds. It fails
// with TableNotFound when nothing matches.
func FindMessage(r HistoryReader, channelID string, valid func(*discordgo.Message) bool, opts FetchOptions) (*discordgo.Message, error) {
	opts = opts.withDefaults()
	cutoff := time.Now().Add(-opts.MaxAge)

	remaining := opts.MessageLimit
	beforeID := ""
	for remaining > 0 {
		pageSize := remaining
		if pageSize > historyPageSize {
			pageSize = historyPageSize
		}

		msgs, err := r.ChannelMessages(channelID, pageSize, beforeID, "", "")
		if err != nil {
			return nil, fmt.Errorf("reading channel history: %w", err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, m := range msgs {
			if m.Timestamp.Before(cutoff) {
				return nil, errs.TableNotFound()
			}
			if valid(m) {
				return m, nil
			}
		}

		remaining -= len(msgs)
		beforeID = msgs[len(msgs)-1].ID
	}

	return nil, errs.TableNotFound()
}

// CheckArchived enforces the archived-access rule after decoding.
func CheckArchived(state State, allowArchived bool) error {
	if state == StateDone && !allowArchived {
		return errs.ArchivedTable()
	}
	return nil
}
