package signal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"staybook/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisSignal stores the timestamp (unix millis) under a key and announces
// every write on a pub/sub channel of the same name, so all gateway
// instances observe each other's writes. Last writer wins.
type RedisSignal struct {
	rdb *redis.Client
	key string
	log *logger.Logger
}

func NewRedisSignal(rdb *redis.Client, key string, log *logger.Logger) *RedisSignal {
	return &RedisSignal{rdb: rdb, key: key, log: log}
}

func (s *RedisSignal) channel() string {
	return s.key + ":events"
}

func (s *RedisSignal) Touch(ctx context.Context) (time.Time, error) {
	ts := time.Now().UTC().Truncate(time.Millisecond)
	value := strconv.FormatInt(ts.UnixMilli(), 10)

	if err := s.rdb.Set(ctx, s.key, value, 0).Err(); err != nil {
		return time.Time{}, fmt.Errorf("failed to write status signal: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel(), value).Err(); err != nil {
		return time.Time{}, fmt.Errorf("failed to publish status signal: %w", err)
	}
	return ts, nil
}

func (s *RedisSignal) Last(ctx context.Context) (time.Time, error) {
	value, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read status signal: %w", err)
	}
	return parseMillis(value)
}

func (s *RedisSignal) Subscribe(ctx context.Context) (<-chan time.Time, error) {
	pubsub := s.rdb.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to status signal: %w", err)
	}

	out := make(chan time.Time, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ts, err := parseMillis(msg.Payload)
				if err != nil {
					s.log.Warn("Ignoring malformed status signal", "payload", msg.Payload, "error", err)
					continue
				}
				deliver(out, ts)
			}
		}
	}()

	return out, nil
}

func parseMillis(value string) (time.Time, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid status signal value %q: %w", value, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
