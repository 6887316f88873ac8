// Package memory provides an in-memory ledger.Store for tests and dev.
package memory

import (
	"context"
	"strings"
	"sync"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps values in a mutex-guarded map. Values are copied on the
// way in and out, so callers can't alias internal state.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte

	// Write fault injection: after failAfter more successful writes,
	// the next Set or Delete returns failErr once. Tests use this to
	// break a multi-write sequence at an exact point.
	failMu    sync.Mutex
	failErr   error
	failAfter int
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// FailWrites arms the fault: the write after `after` further successful
// writes fails with err, then the fault clears.
func (s *Store) FailWrites(after int, err error) {
	s.failMu.Lock()
	s.failAfter = after
	s.failErr = err
	s.failMu.Unlock()
}

func (s *Store) takeFailure() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failErr == nil {
		return nil
	}
	if s.failAfter > 0 {
		s.failAfter--
		return nil
	}
	err := s.failErr
	s.failErr = nil
	return err
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.takeFailure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
