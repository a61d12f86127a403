package lock

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	g := NewGuard(dir, "dana@host")

	require.NoError(t, g.Acquire())
	assert.FileExists(t, filepath.Join(dir, FileName))

	lock, err := g.read()
	require.NoError(t, err)
	assert.Equal(t, "dana@host", lock.Owner)
	assert.Equal(t, os.Getpid(), lock.PID)

	g.Release()
	assert.NoFileExists(t, filepath.Join(dir, FileName))
}

func TestAcquireHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()

	first := NewGuard(dir, "first@host")
	require.NoError(t, first.Acquire())
	defer first.Release()

	second := NewGuard(dir, "second@host")
	err := second.Acquire()
	require.Error(t, err)

	var held *HeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "first@host", held.Owner)
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	dir := t.TempDir()

	// A lock from a dead process with an expired heartbeat.
	stale := &Lock{
		Owner:     "gone@host",
		PID:       1 << 30,
		Acquired:  time.Now().Add(-time.Hour),
		Heartbeat: time.Now().Add(-time.Hour),
		TTL:       DefaultTTL.String(),
	}
	data, err := yaml.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), data, 0o644))

	g := NewGuard(dir, "new@host")
	require.NoError(t, g.Acquire())
	defer g.Release()

	lock, err := g.read()
	require.NoError(t, err)
	assert.Equal(t, "new@host", lock.Owner)
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	dir := t.TempDir()

	foreign := &Lock{
		Owner:     "other@host",
		PID:       os.Getpid() + 1,
		Acquired:  time.Now(),
		Heartbeat: time.Now(),
		TTL:       DefaultTTL.String(),
	}
	data, err := yaml.Marshal(foreign)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), data, 0o644))

	g := NewGuard(dir, "me@host")
	g.Release()

	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestStale(t *testing.T) {
	live := &Lock{PID: os.Getpid(), Heartbeat: time.Now(), TTL: "1m"}
	assert.False(t, live.Stale())

	expired := &Lock{PID: os.Getpid(), Heartbeat: time.Now().Add(-2 * time.Minute), TTL: "1m"}
	assert.True(t, expired.Stale())

	deadProcess := &Lock{PID: 1 << 30, Heartbeat: time.Now(), TTL: "1m"}
	assert.True(t, deadProcess.Stale())
}
