package moderation

import "golang.org/x/time/rate"

// EngineConfig carries the fixed knobs of the moderation engine. It is built
// once at startup and passed in at construction; nothing in the engine
// mutates it afterwards.
type EngineConfig struct {
	// OwnerID always resolves to the owner role and bypasses permission
	// checks. Zero means no configured owner.
	OwnerID int64

	// WarnKickThreshold is the live warn count that triggers an automatic
	// conversation kick.
	WarnKickThreshold int

	// DefaultMuteMinutes applies when a mute command omits or mangles the
	// duration argument.
	DefaultMuteMinutes int

	// FanoutRate limits per-conversation platform calls during global kicks
	// and broadcasts, to stay under the outbound channel's rate limits.
	FanoutRate rate.Limit

	// DatabasePath and LogPath are snapshotted by the backup and log-export
	// operations. Empty disables the respective operation.
	DatabasePath string
	LogPath      string
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.WarnKickThreshold == 0 {
		c.WarnKickThreshold = 3
	}
	if c.DefaultMuteMinutes == 0 {
		c.DefaultMuteMinutes = 10
	}
	if c.FanoutRate == 0 {
		c.FanoutRate = rate.Limit(25)
	}
	return c
}
