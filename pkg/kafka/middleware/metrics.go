package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"staybook/pkg/kafka"
)

// Metrics counts publish and consume outcomes. Readiness endpoints expose a
// Snapshot of it.
type Metrics struct {
	published       atomic.Int64
	publishedFailed atomic.Int64
	publishNanos    atomic.Int64

	consumed       atomic.Int64
	consumedFailed atomic.Int64
	consumeNanos   atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

type Snapshot struct {
	Published          int64  `json:"published"`
	PublishedFailed    int64  `json:"publishedFailed"`
	AvgPublishDuration string `json:"avgPublishDuration"`
	Consumed           int64  `json:"consumed"`
	ConsumedFailed     int64  `json:"consumedFailed"`
	AvgConsumeDuration string `json:"avgConsumeDuration"`
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.published.Load()
	consumed := m.consumed.Load()
	return Snapshot{
		Published:          published,
		PublishedFailed:    m.publishedFailed.Load(),
		AvgPublishDuration: avg(m.publishNanos.Load(), published).String(),
		Consumed:           consumed,
		ConsumedFailed:     m.consumedFailed.Load(),
		AvgConsumeDuration: avg(m.consumeNanos.Load(), consumed).String(),
	}
}

func avg(totalNanos, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNanos / count)
}

func (m *Metrics) Producer() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.publishNanos.Add(int64(time.Since(start)))
		if err != nil {
			m.publishedFailed.Add(1)
		} else {
			m.published.Add(1)
		}
		return err
	}
}

func (m *Metrics) Consumer() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.consumeNanos.Add(int64(time.Since(start)))
		if err != nil {
			m.consumedFailed.Add(1)
		} else {
			m.consumed.Add(1)
		}
		return err
	}
}
