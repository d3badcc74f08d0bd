package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voicechat/internal/config"
)

// NewTurn stamps the turn in UTC at microsecond precision so every backend
// round-trips it unchanged.
func NewTurn(role Role, text string) Turn {
	return Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// Append returns a new conversation with the exchange added and the oldest turns
// dropped so that at most limit remain. The input is not modified.
func Append(conv Conversation, user, assistant Turn, limit int) Conversation {
	out := make(Conversation, 0, len(conv)+2)
	out = append(out, conv...)
	out = append(out, user, assistant)

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// NewStore opens the backend selected in cfg.
func NewStore(ctx context.Context, cfg config.HistoryConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.Path), nil

	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}

		store, err := NewPostgresStore(ctx, db, cfg.Session)
		if err != nil {
			db.Close()
			return nil, err
		}
		log.Info("history backend ready", zap.String("backend", cfg.Backend), zap.String("session", cfg.Session))
		return store, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		log.Info("history backend ready", zap.String("backend", cfg.Backend), zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(client, cfg.RedisPrefix, cfg.Session), nil
	}

	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}
