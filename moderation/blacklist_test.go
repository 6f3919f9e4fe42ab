package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/moderation/modstore"
)

func TestBlacklistCascade(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	// register two conversations, then blacklist a word (stored lower-cased)
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "hi")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat2, testOwner, "hi")))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/blacklist add SPAM")))

	offender := int64(801)
	assert.NoError(eng.Store.SetRole(ctx, offender, string(RoleModerator), testChat))
	assert.NoError(eng.Store.SetRole(ctx, offender, string(RoleHelper), modstore.GlobalScope))

	evt := groupMessage(testChat, offender, "buy SPAM now")
	assert.NoError(eng.ProcessMessage(ctx, evt))

	// message deleted
	require.NotEmpty(t, client.Deletes)
	assert.Equal(evt.ConversationMessageID, client.Deletes[0].ConversationMessageID)

	// roles stripped in every scope
	_, ok, err := eng.Store.RoleFor(ctx, offender, testChat)
	assert.NoError(err)
	assert.False(ok)
	_, ok, err = eng.Store.RoleFor(ctx, offender, modstore.GlobalScope)
	assert.NoError(err)
	assert.False(ok)

	// kicked from every known conversation
	assert.Equal(1, client.RemovalCount(testChat, offender))
	assert.Equal(1, client.RemovalCount(testChat2, offender))

	// exactly one global ban naming the word
	bans, err := eng.Store.BansOf(ctx, offender)
	assert.NoError(err)
	require.Len(t, bans, 1)
	assert.Equal(modstore.GlobalScope, bans[0].Scope)
	assert.Equal("Blacklisted word: spam", bans[0].Reason)

	// owner notified
	ownerTexts := strings.Join(client.SentTexts(testOwner), "\n")
	assert.Contains(ownerTexts, "BLACKLIST TRIGGER")
}

func TestBlacklistNoMatchPassesThrough(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.Store.AddBlacklistWord(ctx, "spam"))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, 802, "перловка на ужин")))

	assert.Empty(client.Deletes)
	bans, err := eng.Store.BansOf(ctx, 802)
	assert.NoError(err)
	assert.Empty(bans)
}

func TestBlacklistMatchesSubstringsCaseInsensitive(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineFixture(t)

	assert.NoError(eng.Store.AddBlacklistWord(ctx, "Spam"))

	for _, text := range []string{"spam", "SPAM", "buy sPaM now", "спам-spam-спам"} {
		matched, err := eng.enforceBlacklist(ctx, groupMessage(testChat, 803, text))
		assert.NoError(err)
		assert.True(matched, "expected %q to match", text)
	}
	matched, err := eng.enforceBlacklist(ctx, groupMessage(testChat, 803, "spa m"))
	assert.NoError(err)
	assert.False(matched)
}

func TestBlacklistCommandManagesWords(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/blacklist add scam")))
	words, err := eng.Store.BlacklistWords(ctx)
	assert.NoError(err)
	assert.Equal([]string{"scam"}, words)

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/blacklist list")))
	assert.Contains(strings.Join(client.SentTexts(testChat), "\n"), "scam")

	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/blacklist remove scam")))
	words, err = eng.Store.BlacklistWords(ctx)
	assert.NoError(err)
	assert.Empty(words)
}

func TestBlacklistExemptsOwner(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	assert.NoError(eng.Store.AddBlacklistWord(ctx, "scam"))

	// the owner can say the word, and in particular can remove it again
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, testOwner, "/blacklist remove scam")))
	words, err := eng.Store.BlacklistWords(ctx)
	assert.NoError(err)
	assert.Empty(words)

	assert.Empty(client.Deletes)
	bans, err := eng.Store.BansOf(ctx, testOwner)
	assert.NoError(err)
	assert.Empty(bans)
	assert.Equal(0, client.RemovalCount(testChat, testOwner))
}

func TestBlacklistCommandOwnerOnly(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, client := engineFixture(t)

	admin := int64(804)
	assert.NoError(eng.Store.SetRole(ctx, admin, string(RoleAdmin), testChat))
	assert.NoError(eng.ProcessMessage(ctx, groupMessage(testChat, admin, "/blacklist add scam")))

	words, err := eng.Store.BlacklistWords(ctx)
	assert.NoError(err)
	assert.Empty(words)
	assert.Contains(client.SentTexts(testChat), msgNoPermission)
}
