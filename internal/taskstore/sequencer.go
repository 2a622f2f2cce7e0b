package taskstore

import (
	"context"
	"sync"
)

// sequencer runs operations on the same key one at a time, in the order
// they were submitted.
type sequencer struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newSequencer() *sequencer {
	return &sequencer{tails: make(map[string]chan struct{})}
}

// acquire waits for every earlier operation on key and returns the release func.
func (s *sequencer) acquire(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	prev := s.tails[key]
	done := make(chan struct{})
	s.tails[key] = done
	s.mu.Unlock()

	release := func() { s.finish(key, done) }
	if prev == nil {
		return release, nil
	}

	select {
	case <-prev:
		return release, nil
	case <-ctx.Done():
		// Keep the chain intact for operations queued behind us.
		go func() {
			<-prev
			release()
		}()
		return nil, ctx.Err()
	}
}

func (s *sequencer) finish(key string, done chan struct{}) {
	s.mu.Lock()
	if s.tails[key] == done {
		delete(s.tails, key)
	}
	s.mu.Unlock()
	close(done)
}
