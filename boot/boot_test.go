package boot

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJumper struct{ jumps int }

func (j *countingJumper) EnterBootloader() { j.jumps++ }

type failingStore struct{ MemoryStore }

func (failingStore) Write(uint32) error { return errors.New("read-only") }

func TestStartupNormal(t *testing.T) {
	store := &MemoryStore{}
	jumper := &countingJumper{}
	h := NewHandoff(store, jumper)

	require.NoError(t, h.Startup())
	assert.Equal(t, 0, jumper.jumps)
	assert.Equal(t, StateNormal, h.State())
	assert.False(t, h.RebootPending())
}

func TestRequestThenRestart(t *testing.T) {
	store := &MemoryStore{}
	jumper := &countingJumper{}

	h := NewHandoff(store, jumper)
	require.NoError(t, h.Startup())
	require.NoError(t, h.Request())
	assert.True(t, h.RebootPending())
	assert.Equal(t, "pending-reboot", h.State().String())

	v, _ := store.Read()
	assert.Equal(t, Magic, v)

	// Next boot jumps and clears the flag first
	restarted := NewHandoff(store, jumper)
	err := restarted.Startup()
	assert.True(t, errors.Is(err, ErrEnteredBootloader))
	assert.Equal(t, 1, jumper.jumps)

	v, _ = store.Read()
	assert.Equal(t, Cleared, v)

	// And the boot after that is normal again
	require.NoError(t, NewHandoff(store, jumper).Startup())
	assert.Equal(t, 1, jumper.jumps)
}

func TestRequestStoreError(t *testing.T) {
	h := NewHandoff(&failingStore{}, JumperFunc(func() {}))

	assert.Error(t, h.Request())
	assert.False(t, h.RebootPending())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootflag")
	store := NewFileStore(path)

	v, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, Cleared, v)

	require.NoError(t, store.Write(Magic))
	v, err = NewFileStore(path).Read()
	require.NoError(t, err)
	assert.Equal(t, Magic, v)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	v, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, Cleared, v)
}

func TestFileStoreHandoff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootflag")
	jumped := false

	h := NewHandoff(NewFileStore(path), JumperFunc(func() { jumped = true }))
	require.NoError(t, h.Request())

	err := NewHandoff(NewFileStore(path), JumperFunc(func() { jumped = true })).Startup()
	assert.Equal(t, ErrEnteredBootloader, err)
	assert.True(t, jumped)
}
