package history

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the conversation in a single JSON file. Writes go to a temp
// file in the same directory and are renamed over the target, and both reads and
// writes hold an advisory lock on <path>.lock so separate processes never interleave.
type FileStore struct {
	path string
	lock *flock.Flock

	run  sync.Mutex
	mu   sync.Mutex
	held bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *FileStore) Path() string { return s.path }

// LockRun takes the exclusive file lock for a whole load, append and save cycle.
func (s *FileStore) LockRun(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}

	s.run.Lock()
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.run.Unlock()
		if err == nil {
			err = errors.New("not acquired")
		}
		return nil, fmt.Errorf("lock %s: %w", s.path, err)
	}
	s.setHeld(true)

	return func() {
		s.setHeld(false)
		s.lock.Unlock()
		s.run.Unlock()
	}, nil
}

func (s *FileStore) setHeld(v bool) {
	s.mu.Lock()
	s.held = v
	s.mu.Unlock()
}

func (s *FileStore) runLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}

func (s *FileStore) Load(ctx context.Context) (Conversation, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return Conversation{}, nil
	}

	if !s.runLocked() {
		locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", s.path, err)
		}
		if !locked {
			return nil, fmt.Errorf("lock %s: not acquired", s.path)
		}
		defer s.lock.Unlock()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Conversation{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	conv, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return conv, nil
}

func (s *FileStore) Save(ctx context.Context, conv Conversation) error {
	data, err := encode(conv)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorageWrite, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}

	if !s.runLocked() {
		locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("%w: lock: %v", ErrStorageWrite, err)
		}
		if !locked {
			return fmt.Errorf("%w: lock not acquired", ErrStorageWrite)
		}
		defer s.lock.Unlock()
	}

	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageWrite, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return s.lock.Close()
}

// WriteFileAtomic writes data next to path and renames it into place, so readers
// see either the old content or the new one.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
