package valkey

import (
	"context"
	"time"
)

const storageTimeout = 2 * time.Second

// Storage adapts Cache to fiber.Storage so middleware such as the rate
// limiter can share counters across API replicas. Keys are namespaced by
// prefix.
type Storage struct {
	cache  *Cache
	prefix string
}

// NewStorage returns a fiber.Storage backed by c.
func NewStorage(c *Cache, prefix string) *Storage {
	return &Storage{cache: c, prefix: prefix}
}

// Get returns nil, nil for a missing key, as fiber.Storage requires.
func (s *Storage) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	b, err := s.cache.Get(ctx, s.prefix+key)
	if IsMiss(err) {
		return nil, nil
	}
	return b, err
}

// Set stores val. A zero exp keeps the key until it is deleted.
func (s *Storage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	client := s.cache.client
	if exp <= 0 {
		return client.Do(ctx, client.B().Set().Key(s.prefix+key).Value(string(val)).Build()).Error()
	}
	if exp < time.Millisecond {
		exp = time.Millisecond
	}
	return client.Do(ctx, client.B().Set().Key(s.prefix+key).Value(string(val)).Px(exp).Build()).Error()
}

func (s *Storage) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	return s.cache.Delete(ctx, s.prefix+key)
}

// Reset removes every key under the prefix.
func (s *Storage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*storageTimeout)
	defer cancel()

	client := s.cache.client
	var cursor uint64
	for {
		entry, err := client.Do(ctx,
			client.B().Scan().Cursor(cursor).Match(s.prefix+"*").Count(100).Build(),
		).AsScanEntry()
		if err != nil {
			return err
		}
		if len(entry.Elements) > 0 {
			if err := client.Do(ctx, client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return err
			}
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

// Close is a no-op; the owning Cache closes the client.
func (s *Storage) Close() error {
	return nil
}
