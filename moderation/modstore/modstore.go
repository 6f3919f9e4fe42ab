package modstore

import (
	"context"
	"time"
)

// GlobalScope marks rows (roles, mutes, bans) that apply in every conversation.
const GlobalScope int64 = 0

type RoleAssignment struct {
	ID     uint   `gorm:"primaryKey"`
	UserID int64  `gorm:"index:idx_role_user_scope,unique;not null"`
	Role   string `gorm:"not null"`
	Scope  int64  `gorm:"index:idx_role_user_scope,unique;default:0"`
}

type Warn struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index;not null"`
	IssuedBy  int64
	Reason    string
	CreatedAt time.Time
	Scope     int64 `gorm:"default:0"`
}

type Mute struct {
	ID       uint  `gorm:"primaryKey"`
	UserID   int64 `gorm:"index;not null"`
	IssuedBy int64
	Until    time.Time `gorm:"not null"`
	Reason   string
	Scope    int64 `gorm:"default:0"`
}

// ActiveIn reports whether the mute suppresses the user in the given
// conversation at the given instant. A global mute matches everywhere.
func (m *Mute) ActiveIn(conversation int64, now time.Time) bool {
	if !m.Until.After(now) {
		return false
	}
	return m.Scope == GlobalScope || m.Scope == conversation
}

type Ban struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index;not null"`
	IssuedBy  int64
	Reason    string
	CreatedAt time.Time
	Scope     int64 `gorm:"default:0"`
}

// AppliesIn reports whether the ban covers the given conversation. Bans have
// no natural expiry; they persist until explicitly removed.
func (b *Ban) AppliesIn(conversation int64) bool {
	return b.Scope == GlobalScope || b.Scope == conversation
}

type BlacklistWord struct {
	ID   uint   `gorm:"primaryKey"`
	Word string `gorm:"uniqueIndex;not null"`
}

type KnownChat struct {
	Conversation int64 `gorm:"primaryKey"`
}

// Wipe targets, matching the six logical tables.
const (
	TableWarns     = "warns"
	TableMutes     = "mutes"
	TableRoles     = "roles"
	TableBans      = "bans"
	TableBlacklist = "blacklist"
	TableChats     = "chats"
)

// ModStore is the persistence surface for all moderation state. Every read
// re-queries current state; callers never cache mutable copies across calls.
type ModStore interface {
	SetRole(ctx context.Context, user int64, role string, scope int64) error
	RemoveRoles(ctx context.Context, user, scope int64) error
	RemoveAllRoles(ctx context.Context, user int64) error
	// RoleFor returns the most recently assigned role row for (user, scope),
	// with no scope fallback and no owner override.
	RoleFor(ctx context.Context, user, scope int64) (string, bool, error)
	RolesInScope(ctx context.Context, scope int64) ([]RoleAssignment, error)

	AddWarn(ctx context.Context, user, issuer int64, reason string, scope int64) error
	WarnsOf(ctx context.Context, user int64) ([]Warn, error)
	// RemoveLastWarn deletes the highest-id warn row for the user across all
	// scopes. Returns false if the user has no warns.
	RemoveLastWarn(ctx context.Context, user int64) (bool, error)

	AddMute(ctx context.Context, user, issuer int64, until time.Time, reason string, scope int64) error
	MutesOf(ctx context.Context, user int64) ([]Mute, error)
	AllMutes(ctx context.Context) ([]Mute, error)
	DeleteMute(ctx context.Context, id uint) error
	DeleteMutes(ctx context.Context, user, scope int64) error

	AddBan(ctx context.Context, user, issuer int64, reason string, scope int64) error
	BansOf(ctx context.Context, user int64) ([]Ban, error)
	RemoveBans(ctx context.Context, user, scope int64) error
	RemoveAllBans(ctx context.Context, user int64) error

	AddBlacklistWord(ctx context.Context, word string) error
	RemoveBlacklistWord(ctx context.Context, word string) error
	BlacklistWords(ctx context.Context) ([]string, error)

	AddChat(ctx context.Context, conversation int64) error
	Chats(ctx context.Context) ([]int64, error)

	Wipe(ctx context.Context, table string) error
}
