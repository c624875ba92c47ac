package kafka_middleware

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"staybook/pkg/kafka"
	"staybook/pkg/logger"
)

// PublishMetrics counts booking event publishes for one producer.
type PublishMetrics struct {
	published     atomic.Int64
	failed        atomic.Int64
	durationTotal atomic.Int64 // nanoseconds

	mu     sync.Mutex
	byType map[string]int64
}

type PublishSnapshot struct {
	Published   int64
	Failed      int64
	AvgDuration time.Duration
	ByType      map[string]int64
}

func NewPublishMetrics() *PublishMetrics {
	return &PublishMetrics{byType: make(map[string]int64)}
}

// Middleware records the outcome and latency of every publish.
func (m *PublishMetrics) Middleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		m.durationTotal.Add(int64(time.Since(start)))

		if err != nil {
			m.failed.Add(1)
			return err
		}
		m.published.Add(1)
		if eventType := msg.GetEventType(); eventType != "" {
			m.mu.Lock()
			m.byType[eventType]++
			m.mu.Unlock()
		}
		return nil
	}
}

func (m *PublishMetrics) Snapshot() PublishSnapshot {
	published := m.published.Load()
	failed := m.failed.Load()

	s := PublishSnapshot{
		Published: published,
		Failed:    failed,
		ByType:    make(map[string]int64),
	}
	if attempts := published + failed; attempts > 0 {
		s.AvgDuration = time.Duration(m.durationTotal.Load() / attempts)
	}

	m.mu.Lock()
	for k, v := range m.byType {
		s.ByType[k] = v
	}
	m.mu.Unlock()
	return s
}

// LogSummary writes the counters at info level, one attribute per event type.
func (m *PublishMetrics) LogSummary(log *logger.Logger) {
	s := m.Snapshot()
	attrs := []any{
		"published", s.Published,
		"failed", s.Failed,
		"avg_duration_ms", s.AvgDuration.Milliseconds(),
	}

	types := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		attrs = append(attrs, t, s.ByType[t])
	}
	log.Info("Kafka publish metrics", attrs...)
}
