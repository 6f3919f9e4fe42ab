package moderation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/time/rate"
)

// chdirTemp switches to a fresh temp directory for the duration of the
// test, mirroring t.Chdir (unavailable before Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestCreateBackupFile(t *testing.T) {
	assert := assert.New(t)
	chdirTemp(t)

	require.NoError(t, os.WriteFile("warden.db", []byte("db contents"), 0o644))
	eng, _ := engineFixtureConfig(t, EngineConfig{
		OwnerID:      testOwner,
		FanoutRate:   rate.Inf,
		DatabasePath: "warden.db",
	})

	path, err := eng.CreateBackupFile()
	assert.NoError(err)
	assert.Equal("backups", filepath.Dir(path))
	data, err := os.ReadFile(path)
	assert.NoError(err)
	assert.Equal([]byte("db contents"), data)
}

func TestCreateBackupFileUnconfigured(t *testing.T) {
	assert := assert.New(t)
	eng, _ := engineFixtureConfig(t, EngineConfig{OwnerID: testOwner, FanoutRate: rate.Inf})

	_, err := eng.CreateBackupFile()
	assert.Error(err)
}

func TestDeliverBackup(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	chdirTemp(t)

	require.NoError(t, os.WriteFile("warden.db", []byte("db contents"), 0o644))
	eng, client := engineFixtureConfig(t, EngineConfig{
		OwnerID:      testOwner,
		FanoutRate:   rate.Inf,
		DatabasePath: "warden.db",
	})

	assert.NoError(eng.DeliverBackup(ctx, testOwner))
	require.Len(t, client.Uploads, 1)
	require.Len(t, client.Attachments, 1)
	assert.Equal(testOwner, client.Attachments[0].Destination)
}

func TestDeliverLogExport(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	chdirTemp(t)

	require.NoError(t, os.WriteFile("warden.log", []byte("log lines"), 0o644))
	eng, client := engineFixtureConfig(t, EngineConfig{
		OwnerID:    testOwner,
		FanoutRate: rate.Inf,
		LogPath:    "warden.log",
	})

	assert.NoError(eng.DeliverLogExport(ctx, testOwner))
	assert.Len(client.Uploads, 1)
	assert.Len(client.Attachments, 1)
}

func TestUntilNext(t *testing.T) {
	assert := assert.New(t)

	d := untilNext(23, 59)
	assert.Greater(d, time.Duration(0))
	assert.LessOrEqual(d, 24*time.Hour)
}
