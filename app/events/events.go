// Package events defines the topics and payloads exchanged between
// modules over the in-process router.
package events

// Topics. One event chain runs gather → format → game per channel.
const (
	// GatherCompleted fires when the 12th distinct member joins a
	// gather table.
	GatherCompleted = "gather.completed"

	// FormatResolved fires when the unvoted bucket of a format table
	// empties.
	FormatResolved = "format.resolved"
)

// GatherCompletedPayload carries the full roster to the format module.
type GatherCompletedPayload struct {
	GuildID   string   `json:"guild_id"`
	ChannelID string   `json:"channel_id"`
	Names     []string `json:"names"`
}

// FormatResolvedPayload carries the winning format and roster to the
// game module.
type FormatResolvedPayload struct {
	GuildID   string   `json:"guild_id"`
	ChannelID string   `json:"channel_id"`
	Format    int      `json:"format"`
	Names     []string `json:"names"`
}
