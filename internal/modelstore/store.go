// Package modelstore caches the runtime group model under the configured
// update-period policy. A new model is always built off to the side and
// swapped in atomically; concurrent readers either see the previous model
// or the finished new one, never a partial build.
package modelstore

import (
	"context"
	"sync"
	"time"

	"github.com/vk/bundlego/internal/group"
)

// Factory builds a fresh model from scratch. It is called on first access,
// after the update period elapses, and after an explicit invalidation.
type Factory func(ctx context.Context) (*group.Model, error)

// Store hands out the current model.
type Store struct {
	factory Factory
	// period bounds the model's lifetime. Zero means build once and never
	// refresh; a positive period means rebuild once it has elapsed.
	period time.Duration

	mu      sync.RWMutex
	current *group.Model
	builtAt time.Time
}

// New creates a store over the given factory and update period.
func New(factory Factory, period time.Duration) *Store {
	if factory == nil {
		panic("the model factory is required")
	}
	return &Store{factory: factory, period: period}
}

// Model returns the current model, rebuilding it first when the policy
// requires. Rebuilds are single-flight: concurrent requests arriving during
// a rebuild block and then share its result.
func (s *Store) Model(ctx context.Context) (*group.Model, error) {
	s.mu.RLock()
	if s.fresh() {
		m := s.current
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh() {
		return s.current, nil
	}
	m, err := s.factory(ctx)
	if err != nil {
		return nil, err
	}
	s.current = m
	s.builtAt = time.Now()
	return m, nil
}

// Invalidate discards the current model; the next access rebuilds.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// fresh reports whether the current model may still be served. Callers must
// hold at least a read lock.
func (s *Store) fresh() bool {
	if s.current == nil {
		return false
	}
	if s.period <= 0 {
		return true
	}
	return time.Since(s.builtAt) < s.period
}
