package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// cursorKey is stable across deployments so a restart resumes from the
// same block.
const cursorKey = "block_num"

// CursorStore persists the scanner cursor in Redis.
type CursorStore struct {
	client *redis.Client
}

func NewCursorStore(url string) (*CursorStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &CursorStore{client: client}, nil
}

// NewCursorStoreWithClient wraps an existing client, mainly for tests.
func NewCursorStoreWithClient(client *redis.Client) *CursorStore {
	return &CursorStore{client: client}
}

func (s *CursorStore) Close() error {
	return s.client.Close()
}

func (s *CursorStore) Get(ctx context.Context) (uint64, bool, error) {
	val, err := s.client.Get(ctx, cursorKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get cursor: %w", err)
	}

	block, err := parseCursorValue(val)
	if err != nil {
		return 0, false, fmt.Errorf("cursor value %q: %w", val, err)
	}
	return block, true, nil
}

func (s *CursorStore) Set(ctx context.Context, block uint64) error {
	if err := s.client.Set(ctx, cursorKey, strconv.FormatUint(block, 10), 0).Err(); err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return nil
}

func parseCursorValue(val string) (uint64, error) {
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return block, nil
}
