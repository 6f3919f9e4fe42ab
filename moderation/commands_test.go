package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

func TestResolveAlias(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		token string
		key   string
		ok    bool
	}{
		{"/warn", "warn", true},
		{"!warn", "warn", true},
		{"/варн", "warn", true},
		{"!МУТ", "mute", true},
		{"/gzov", "broadcast", true},
		{"/снять", "removerole", true},
		{"warn", "", false},
		{"варн", "", false},
		{"/notacommand", "", false},
		{"//", "", false},
	}
	for _, fix := range fixtures {
		key, ok := resolveAlias(fix.token)
		assert.Equal(fix.ok, ok, "token %q", fix.token)
		assert.Equal(fix.key, key, "token %q", fix.token)
	}
}

func TestResolveTarget(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)
	client.Handles["durov"] = 1

	evt := groupMessage(testChat, testOwner, "")

	// reply wins over arguments
	withReply := groupMessage(testChat, testOwner, "")
	withReply.Reply = &ReplyRef{Sender: 321, ConversationMessageID: 7}
	target, rest := eng.resolveTarget(ctx, withReply, []string{"999", "reason"})
	assert.Equal(int64(321), target)
	assert.Equal([]string{"999", "reason"}, rest)

	target, rest = eng.resolveTarget(ctx, evt, []string{"[id123|Some Name]", "spam"})
	assert.Equal(int64(123), target)
	assert.Equal([]string{"spam"}, rest)

	target, rest = eng.resolveTarget(ctx, evt, []string{"456", "flood"})
	assert.Equal(int64(456), target)
	assert.Equal([]string{"flood"}, rest)

	target, _ = eng.resolveTarget(ctx, evt, []string{"@durov"})
	assert.Equal(int64(1), target)

	target, _ = eng.resolveTarget(ctx, evt, []string{"https://vk.com/durov"})
	assert.Equal(int64(1), target)

	target, _ = eng.resolveTarget(ctx, evt, []string{"@whoisthis"})
	assert.Equal(int64(0), target)

	target, _ = eng.resolveTarget(ctx, evt, nil)
	assert.Equal(int64(0), target)
}

func TestDispatchIgnoresPlainChat(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, 901, "warn is a useful command")))
	assert.Empty(client.Sent)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, 901, "привет")))
	assert.Contains(client.SentTexts(testChat), "Привет!")
}

func TestDispatchMissingTarget(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/warn")))
	assert.Contains(client.SentTexts(testChat), msgNoTarget)
}

func TestSetRoleCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/setmoder 902")))
	role, ok, err := eng.Store.RoleFor(ctx, 902, testChat)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(string(RoleModerator), role)

	// re-assignment in the same scope replaces the row
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/setadmin 902")))
	rows, err := eng.Store.RolesInScope(ctx, testChat)
	assert.NoError(err)
	require.Len(t, rows, 1)
	assert.Equal(string(RoleAdmin), rows[0].Role)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/allhelper 903")))
	role, ok, err = eng.Store.RoleFor(ctx, 903, modstore.GlobalScope)
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(string(RoleHelper), role)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/removerole 902")))
	_, ok, err = eng.Store.RoleFor(ctx, 902, testChat)
	assert.NoError(err)
	assert.False(ok)
}

func TestAdminCannotGrantAdmin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	admin := int64(904)
	assert.NoError(eng.Store.SetRole(ctx, admin, string(RoleAdmin), testChat))

	// admins may appoint moderators but not other admins
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, admin, "/setmoder 905")))
	_, ok, err := eng.Store.RoleFor(ctx, 905, testChat)
	assert.NoError(err)
	assert.True(ok)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, admin, "/setadmin 906")))
	_, ok, err = eng.Store.RoleFor(ctx, 906, testChat)
	assert.NoError(err)
	assert.False(ok)
	assert.Contains(client.SentTexts(testChat), msgNoPermission)
}

func TestClearRequiresOutranking(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	moder := int64(907)
	admin := int64(908)
	assert.NoError(eng.Store.SetRole(ctx, moder, string(RoleModerator), testChat))
	assert.NoError(eng.Store.SetRole(ctx, admin, string(RoleAdmin), testChat))

	// a moderator cannot clear an admin's message
	evt := groupMessage(testChat, moder, "/clear")
	evt.Reply = &ReplyRef{Sender: admin, ConversationMessageID: 77}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Empty(client.Deletes)

	// the admin can clear the moderator's message; the command message goes too
	evt = groupMessage(testChat, admin, "/clear")
	evt.Reply = &ReplyRef{Sender: moder, ConversationMessageID: 78}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	require.Len(t, client.Deletes, 2)
	assert.Equal(int64(78), client.Deletes[0].ConversationMessageID)
	assert.Equal(evt.ConversationMessageID, client.Deletes[1].ConversationMessageID)
}

func TestBroadcastFansOutToKnownChats(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "hi")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, testOwner, "hi")))

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/broadcast игра начинается")))

	for _, conv := range []int64{testChat, testChat2} {
		delivered := false
		for _, text := range client.SentTexts(conv) {
			if strings.Contains(text, "@all") && strings.Contains(text, "игра начинается") {
				delivered = true
			}
		}
		assert.True(delivered, "no broadcast delivered to %d", conv)
	}
}
