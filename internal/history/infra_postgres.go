package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	session    TEXT        NOT NULL,
	position   INT         NOT NULL,
	role       TEXT        NOT NULL,
	text       TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session, position)
)`

// PostgresStore keeps one session's turns as ordered rows. Save swaps the whole
// set inside a transaction, so readers see either the old rows or the new ones.
type PostgresStore struct {
	db      *sql.DB
	session string
}

func NewPostgresStore(ctx context.Context, db *sql.DB, session string) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("create conversation_turns: %w", err)
	}
	return &PostgresStore{db: db, session: session}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, text, created_at
		FROM conversation_turns
		WHERE session = $1
		ORDER BY position ASC
	`, s.session)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	conv := Conversation{}
	for rows.Next() {
		var (
			role string
			t    Turn
		)
		if err := rows.Scan(&role, &t.Text, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStorageCorrupt, err)
		}
		t.Role = Role(role)
		if !t.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrStorageCorrupt, role)
		}
		t.Timestamp = t.Timestamp.UTC()
		conv = append(conv, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	return conv, nil
}

func (s *PostgresStore) Save(ctx context.Context, conv Conversation) error {
	roles := make([]string, len(conv))
	texts := make([]string, len(conv))
	stamps := make([]string, len(conv))
	for i, t := range conv {
		roles[i] = string(t.Role)
		texts[i] = t.Text
		stamps[i] = t.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorageWrite, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_turns WHERE session = $1`, s.session); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStorageWrite, err)
	}

	if len(conv) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_turns (session, position, role, text, created_at)
			SELECT $1, t.ord, t.role, t.text, t.created_at
			FROM unnest($2::text[], $3::text[], $4::timestamptz[])
				WITH ORDINALITY AS t(role, text, created_at, ord)
		`, s.session, pq.Array(roles), pq.Array(texts), pq.Array(stamps))
		if err != nil {
			return fmt.Errorf("%w: insert: %v", ErrStorageWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorageWrite, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
