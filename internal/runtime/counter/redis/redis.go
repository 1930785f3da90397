// Package redis stores field value counters as Redis sorted sets, one set per
// counter with the field value as member and the count as score.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces counter keys.
const KeyPrefix = "fieldvaluecounters."

var errNameRequired = errors.New("redis: counter name is required")

// Writer increments counters with ZINCRBY.
type Writer struct {
	client redis.UniversalClient
}

// Connect builds a client from a redis:// URL or a bare host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New wraps an existing client. The caller owns the client.
func New(client redis.UniversalClient) *Writer {
	return &Writer{client: client}
}

// Key returns the sorted set key for a counter.
func Key(name string) string {
	return KeyPrefix + name
}

func (w *Writer) Increment(ctx context.Context, name, value string, amount float64) error {
	if name == "" {
		return errNameRequired
	}
	if err := w.client.ZIncrBy(ctx, Key(name), amount, value).Err(); err != nil {
		return fmt.Errorf("redis: increment %s/%s: %w", name, value, err)
	}
	return nil
}

// Counts returns every value and score of the counter.
func (w *Writer) Counts(ctx context.Context, name string) (map[string]float64, error) {
	members, err := w.client.ZRangeWithScores(ctx, Key(name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read %s: %w", name, err)
	}
	out := make(map[string]float64, len(members))
	for _, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			member = fmt.Sprint(m.Member)
		}
		out[member] = m.Score
	}
	return out, nil
}

func (w *Writer) Reset(ctx context.Context, name string) error {
	if err := w.client.Del(ctx, Key(name)).Err(); err != nil {
		return fmt.Errorf("redis: reset %s: %w", name, err)
	}
	return nil
}
