package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Sequencer hands out increasing numbers per key.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
	// Current is the last number handed out for key, zero before the first.
	Current(ctx context.Context, key string) (int64, error)
}

type MemorySequencer struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{seqs: make(map[string]int64)}
}

func (s *MemorySequencer) Next(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs[key]++
	return s.seqs[key], nil
}

func (s *MemorySequencer) Current(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seqs[key], nil
}

// RedisSequencer shares sequences across instances with INCR.
type RedisSequencer struct {
	R *redis.Client
}

func (s *RedisSequencer) Next(ctx context.Context, key string) (int64, error) {
	return s.R.Incr(ctx, "seq:"+key).Result()
}

func (s *RedisSequencer) Current(ctx context.Context, key string) (int64, error) {
	n, err := s.R.Get(ctx, "seq:"+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// KeyedMutex serializes callers that share a key. Entries are dropped once
// nobody holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock.
func (m *KeyedMutex) Lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}
