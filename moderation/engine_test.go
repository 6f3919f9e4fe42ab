package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

func TestWarnThresholdKick(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	target := int64(501)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn 501 flood")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn 501 flood again")))
	assert.Equal(0, client.RemovalCount(testChat, target))

	warns, err := eng.Store.WarnsOf(ctx, target)
	assert.NoError(err)
	assert.Len(warns, 2)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn 501 enough")))
	assert.Equal(1, client.RemovalCount(testChat, target))

	// a fourth warn kicks again; the threshold is a floor, not a one-shot
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn 501 still here")))
	assert.Equal(2, client.RemovalCount(testChat, target))
}

func TestWarnRequiresPermission(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	plain := int64(502)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, plain, "/warn 501 spite")))

	warns, err := eng.Store.WarnsOf(ctx, 501)
	assert.NoError(err)
	assert.Empty(warns)
	assert.Contains(client.SentTexts(testChat), msgNoPermission)
}

func TestUnwarnRemovesLatestAcrossScopes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	target := int64(503)
	_, err := eng.Warn(ctx, target, testOwner, "first", testChat)
	assert.NoError(err)
	_, err = eng.Warn(ctx, target, testOwner, "second", testChat2)
	assert.NoError(err)

	removed, err := eng.Unwarn(ctx, target)
	assert.NoError(err)
	assert.True(removed)

	warns, err := eng.Store.WarnsOf(ctx, target)
	assert.NoError(err)
	require.Len(t, warns, 1)
	assert.Equal(testChat, warns[0].Scope)
	assert.Equal("first", warns[0].Reason)
}

func TestMuteSuppressesMessages(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	target := int64(504)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/mute 504 5 spam")))

	evt := groupMessage(testChat, target, "hello everyone")
	assert.NoError(eng.ProcessMessage(ctx, evt))
	require.Len(t, client.Deletes, 1)
	assert.Equal(evt.ConversationMessageID, client.Deletes[0].ConversationMessageID)

	// enforcement never deletes the mute row
	mutes, err := eng.Store.MutesOf(ctx, target)
	assert.NoError(err)
	assert.Len(mutes, 1)

	// mutes do not apply in other conversations
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, target, "hello over here")))
	assert.Len(client.Deletes, 1)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/unmute 504")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, target, "can talk again")))
	assert.Len(client.Deletes, 1)
}

func TestZeroMinuteMuteWaitsForWatcher(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	target := int64(505)
	until, err := eng.Mute(ctx, target, testOwner, 0, "instant", testChat)
	assert.NoError(err)
	assert.False(until.After(time.Now()))

	// already inactive for enforcement, but the row stays until the watcher runs
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, target, "still talking")))
	mutes, err := eng.Store.MutesOf(ctx, target)
	assert.NoError(err)
	assert.Len(mutes, 1)

	eng.ReleaseExpiredMutes(ctx)
	mutes, err = eng.Store.MutesOf(ctx, target)
	assert.NoError(err)
	assert.Empty(mutes)
}

func TestGlobalBanEndToEnd(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	// register two conversations
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "hi")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, testOwner, "hi")))

	target := int64(506)
	assert.NoError(eng.Store.SetRole(ctx, target, string(RoleHelper), testChat))

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/sban 506 grief")))

	bans, err := eng.Store.BansOf(ctx, target)
	assert.NoError(err)
	require.Len(t, bans, 1)
	assert.Equal(modstore.GlobalScope, bans[0].Scope)

	// roles stripped everywhere, kicked from every known conversation
	_, ok, err := eng.Store.RoleFor(ctx, target, testChat)
	assert.NoError(err)
	assert.False(ok)
	assert.Equal(1, client.RemovalCount(testChat, target))
	assert.Equal(1, client.RemovalCount(testChat2, target))

	// messages from the banned user are dropped with no reply
	before := len(client.Sent)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, target, "привет")))
	assert.Len(client.Sent, before)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/sunban 506")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, target, "привет")))
	assert.Contains(client.SentTexts(testChat2), "Привет!")
}

func TestLocalBanScoping(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	target := int64(507)
	kicked, attempted, err := eng.Ban(ctx, target, testOwner, "rude", testChat)
	assert.NoError(err)
	assert.Equal(1, kicked)
	assert.Equal(1, attempted)
	assert.Equal(1, client.RemovalCount(testChat, target))

	// suppressed in the banned conversation only
	before := len(client.Sent)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, target, "привет")))
	assert.Len(client.Sent, before)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, target, "привет")))
	assert.Contains(client.SentTexts(testChat2), "Привет!")
}

func TestEffectiveRoleResolution(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	user := int64(508)

	role, err := eng.EffectiveRole(ctx, user, testChat)
	assert.NoError(err)
	assert.Equal(RoleUser, role)

	assert.NoError(eng.Store.SetRole(ctx, user, string(RoleHelper), modstore.GlobalScope))
	role, err = eng.EffectiveRole(ctx, user, testChat)
	assert.NoError(err)
	assert.Equal(RoleHelper, role)

	// scoped assignment wins over the global one
	assert.NoError(eng.Store.SetRole(ctx, user, string(RoleAdmin), testChat))
	role, err = eng.EffectiveRole(ctx, user, testChat)
	assert.NoError(err)
	assert.Equal(RoleAdmin, role)
	role, err = eng.EffectiveRole(ctx, user, testChat2)
	assert.NoError(err)
	assert.Equal(RoleHelper, role)

	// the configured owner outranks any stored row
	assert.NoError(eng.Store.SetRole(ctx, testOwner, string(RoleHelper), testChat))
	role, err = eng.EffectiveRole(ctx, testOwner, testChat)
	assert.NoError(err)
	assert.Equal(RoleOwner, role)
}

func TestProcessMessageRecoversPanics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	// nil action member access paths must not bring down the loop even if a
	// handler misbehaves; a nil client would panic inside dispatch
	eng.Client = nil
	assert.NotPanics(func() {
		_ = eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn 501"))
	})
}
