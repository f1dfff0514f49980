// Package signal carries the "booking status updated" timestamp shared by
// every session. Writers Touch it after a status change; readers either
// subscribe or compare Last against what they saw before.
package signal

import (
	"context"
	"sync"
	"time"
)

type Signal interface {
	Touch(ctx context.Context) (time.Time, error)
	Last(ctx context.Context) (time.Time, error)
	Subscribe(ctx context.Context) (<-chan time.Time, error)
}

// MemorySignal is an in-process Signal for a single gateway instance.
type MemorySignal struct {
	mu   sync.Mutex
	last time.Time
	subs map[chan time.Time]struct{}
	now  func() time.Time
}

func NewMemorySignal() *MemorySignal {
	return &MemorySignal{
		subs: make(map[chan time.Time]struct{}),
		now:  time.Now,
	}
}

func (s *MemorySignal) Touch(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Truncate(time.Millisecond)
	s.last = ts
	for ch := range s.subs {
		deliver(ch, ts)
	}
	return ts, nil
}

func (s *MemorySignal) Last(_ context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

func (s *MemorySignal) Subscribe(ctx context.Context) (<-chan time.Time, error) {
	ch := make(chan time.Time, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// deliver never blocks: a subscriber that has not consumed the previous
// timestamp gets the newer one in its place.
func deliver(ch chan time.Time, ts time.Time) {
	select {
	case ch <- ts:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ts:
	default:
	}
}
