// Package localcache is an in-process, size-bounded key/value store with a
// fixed TTL. It has the same surface as the Redis client so the search cache
// can run without Redis.
package localcache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const DefaultSize = 1024

type Store struct {
	lru *expirable.LRU[string, []byte]
}

// New returns a store holding at most size entries, each expiring ttl after
// it was written. size <= 0 selects DefaultSize.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

// Set stores value under key. The per-call ttl is ignored; every entry uses
// the TTL given to New.
func (s *Store) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) && s.lru.Remove(key) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Len() int {
	return s.lru.Len()
}
