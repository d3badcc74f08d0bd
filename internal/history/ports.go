package history

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one utterance. Treat as immutable once created.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"` // stored and returned in UTC
}

// Conversation is ordered oldest-first.
type Conversation []Turn

// Store persists the conversation. Backends differ only in where the bytes live;
// truncation happens in Append, never inside a Store.
type Store interface {
	// Load returns an empty Conversation when nothing was saved yet and an error
	// wrapping ErrStorageCorrupt when the saved data cannot be decoded.
	Load(ctx context.Context) (Conversation, error)
	// Save replaces the persisted conversation in one step. Failures wrap ErrStorageWrite.
	Save(ctx context.Context, conv Conversation) error
	Close() error
}

// RunLocker is implemented by stores that other processes may share. LockRun
// holds the store exclusively until unlock is called; Load and Save made in
// between run under that lock.
type RunLocker interface {
	LockRun(ctx context.Context) (unlock func(), err error)
}
