package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const configKey = "feedback:schedule:config"

var ErrNotFound = errors.New("schedule: config not found")

// RedisStore keeps the saved schedule config as a JSON document.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Get(ctx context.Context) (Config, error) {
	raw, err := s.rdb.Get(ctx, configKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Config{}, ErrNotFound
	}
	if err != nil {
		return Config{}, fmt.Errorf("schedule: config read failed: %w", err)
	}
	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("schedule: config decode failed: %w", err)
	}
	return c, nil
}

// Put normalizes and validates before saving; invalid configs never land in
// the store.
func (s *RedisStore) Put(ctx context.Context, c Config) (Config, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return Config{}, fmt.Errorf("schedule: config encode failed: %w", err)
	}
	if err := s.rdb.Set(ctx, configKey, raw, 0).Err(); err != nil {
		return Config{}, fmt.Errorf("schedule: config write failed: %w", err)
	}
	return c, nil
}
