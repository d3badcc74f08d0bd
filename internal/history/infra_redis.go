package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the encoded conversation under a single key; SET replaces it
// in one step.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, prefix, session string) *RedisStore {
	if prefix == "" {
		prefix = "voicechat"
	}
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("%s:history:%s", prefix, session),
	}
}

func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Load(ctx context.Context) (Conversation, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Conversation{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	conv, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("redis key %s: %w", s.key, err)
	}
	return conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv Conversation) error {
	data, err := encode(conv)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrStorageWrite, err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrStorageWrite, s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
