package moderation

import (
	"context"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

// EffectiveRole resolves the role in force for a user within a scope. The
// configured owner identity short-circuits to owner regardless of stored
// rows. Otherwise the scoped row wins, falling back to the global row, then
// to plain user. A transient zero-row window during a concurrent role change
// resolves to plain user rather than an error.
func (e *Engine) EffectiveRole(ctx context.Context, user, scope int64) (Role, error) {
	if e.Config.OwnerID != 0 && user == e.Config.OwnerID {
		return RoleOwner, nil
	}
	role, ok, err := e.Store.RoleFor(ctx, user, scope)
	if err != nil {
		return RoleUser, err
	}
	if !ok && scope != modstore.GlobalScope {
		role, ok, err = e.Store.RoleFor(ctx, user, modstore.GlobalScope)
		if err != nil {
			return RoleUser, err
		}
	}
	if !ok {
		return RoleUser, nil
	}
	return CanonicalRole(role), nil
}

// HasPermission reports whether the user may invoke the given canonical
// action within the scope. Resolved fresh from the store on every call:
// roles can change between actions, so nothing here is cached.
func (e *Engine) HasPermission(ctx context.Context, user int64, action string, scope int64) bool {
	if e.Config.OwnerID != 0 && user == e.Config.OwnerID {
		return true
	}
	role, err := e.EffectiveRole(ctx, user, scope)
	if err != nil {
		e.Logger.Error("role lookup failed", "err", err, "user", user, "scope", scope)
		return false
	}
	return role.Can(action)
}

// IsOwner reports whether the user is the configured owner identity.
func (e *Engine) IsOwner(user int64) bool {
	return e.Config.OwnerID != 0 && user == e.Config.OwnerID
}
