package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store := NewFileStore(filepath.Join(t.TempDir(), "chat_context.json"))
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestFileStoreCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "chat_context.json")
	store := NewFileStore(path)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), makeConversation(2)))
	assert.FileExists(t, path)
}

func TestFileStoreWritesJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	store := NewFileStore(path)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), makeConversation(2)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"role":"user","text":"turn 0","timestamp":"2026-01-02T03:04:05Z"},
		{"role":"assistant","text":"turn 1","timestamp":"2026-01-02T03:04:06Z"}
	]`, string(data))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "chat_context.json"))
	defer store.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(context.Background(), makeConversation(i*2)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	store := NewFileStore(path)
	defer store.Close()

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrStorageCorrupt)
}

func TestFileStoreEmptyFileIsEmptyConversation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	store := NewFileStore(path)
	defer store.Close()

	conv, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestFileStoreSaveFailsWhenTargetIsDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	store := NewFileStore(path)
	defer store.Close()

	err := store.Save(context.Background(), makeConversation(2))
	assert.ErrorIs(t, err, ErrStorageWrite)
}

func TestFileStoreSaveWaitsForLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	holder := NewFileStore(path)
	defer holder.Close()

	locked, err := holder.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	store := NewFileStore(path)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err = store.Save(ctx, makeConversation(2))
	assert.ErrorIs(t, err, ErrStorageWrite)
	assert.NoFileExists(t, path)

	require.NoError(t, holder.lock.Unlock())
	require.NoError(t, store.Save(context.Background(), makeConversation(2)))
}

func TestFileStoreRunLockKeepsConcurrentExchanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	first := NewFileStore(path)
	defer first.Close()
	second := NewFileStore(path)
	defer second.Close()

	ctx := context.Background()
	exchange := func(store *FileStore, text string) error {
		conv, err := store.Load(ctx)
		if err != nil {
			return err
		}
		next := Append(conv, NewTurn(RoleUser, text), NewTurn(RoleAssistant, "re: "+text), 20)
		return store.Save(ctx, next)
	}

	unlock, err := first.LockRun(ctx)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		unlock, err := second.LockRun(ctx)
		if err != nil {
			done <- err
			return
		}
		defer unlock()
		done <- exchange(second, "second")
	}()

	// second is waiting on the lock while first reads and writes
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, exchange(first, "first"))
	unlock()

	require.NoError(t, <-done)

	conv, err := first.Load(ctx)
	require.NoError(t, err)
	require.Len(t, conv, 4)
	assert.Equal(t, "first", conv[0].Text)
	assert.Equal(t, "second", conv[2].Text)
}

func TestFileStoreRunLockHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_context.json")
	holder := NewFileStore(path)
	defer holder.Close()

	unlock, err := holder.LockRun(context.Background())
	require.NoError(t, err)
	defer unlock()

	store := NewFileStore(path)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = store.LockRun(ctx)
	assert.Error(t, err)
}

func TestFileStoreReturnsTimestampsInUTC(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "chat_context.json"))
	defer store.Close()

	local := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	require.NoError(t, store.Save(context.Background(), Conversation{
		{Role: RoleUser, Text: "hi", Timestamp: local},
	}))

	conv, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, conv, 1)
	assert.True(t, conv[0].Timestamp.Equal(local))
	assert.Equal(t, time.UTC, conv[0].Timestamp.Location())
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), conv[0].Timestamp)
}
