package redis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/pkg/circuitbreaker"
)

// store is the part of Cache used by SuggestionCache.
type store interface {
	Get(ctx context.Context, key string, dest any) error
	GetString(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

var _ store = (*Cache)(nil)
var _ student.SuggestionCache = (*SuggestionCache)(nil)

// SuggestionCache implements student.SuggestionCache.
//
// Entries live under {namespace}:suggest:{generation}:{words}. Invalidate
// bumps the generation counter, so stale entries are never read again and
// expire by TTL.
type SuggestionCache struct {
	cache     store
	namespace string
	ttl       time.Duration
	breaker   *circuitbreaker.CircuitBreaker // Optional
}

// NewSuggestionCache creates a new SuggestionCache.
func NewSuggestionCache(cache *Cache, namespace string, ttl time.Duration) *SuggestionCache {
	return newSuggestionCache(cache, namespace, ttl)
}

func newSuggestionCache(s store, namespace string, ttl time.Duration) *SuggestionCache {
	return &SuggestionCache{cache: s, namespace: namespace, ttl: ttl}
}

// WithBreaker routes every Redis call through cb. While cb is open the
// cache fails fast with circuitbreaker.ErrCircuitOpen.
func (s *SuggestionCache) WithBreaker(cb *circuitbreaker.CircuitBreaker) *SuggestionCache {
	s.breaker = cb
	return s
}

func (s *SuggestionCache) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Execute(ctx, fn)
}

// Get returns cached names for the normalized query words.
func (s *SuggestionCache) Get(ctx context.Context, words []string) ([]string, bool, error) {
	var (
		names []string
		found bool
	)
	err := s.do(ctx, func(ctx context.Context) error {
		gen, err := s.generation(ctx)
		if err != nil {
			return err
		}
		err = s.cache.Get(ctx, s.entryKey(gen, words), &names)
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil || !found {
		return nil, false, err
	}
	if names == nil {
		names = []string{}
	}
	return names, true, nil
}

// Set stores names for the normalized query words.
func (s *SuggestionCache) Set(ctx context.Context, words []string, names []string) error {
	if names == nil {
		names = []string{}
	}
	return s.do(ctx, func(ctx context.Context) error {
		gen, err := s.generation(ctx)
		if err != nil {
			return err
		}
		return s.cache.Set(ctx, s.entryKey(gen, words), names, s.ttl)
	})
}

// Invalidate drops every cached suggestion.
func (s *SuggestionCache) Invalidate(ctx context.Context) error {
	return s.do(ctx, func(ctx context.Context) error {
		_, err := s.cache.Incr(ctx, s.generationKey())
		return err
	})
}

func (s *SuggestionCache) generation(ctx context.Context) (int64, error) {
	raw, err := s.cache.GetString(ctx, s.generationKey())
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return 0, nil
		}
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrCacheSerialization
	}
	return gen, nil
}

func (s *SuggestionCache) generationKey() string {
	return s.namespace + ":suggest:generation"
}

func (s *SuggestionCache) entryKey(gen int64, words []string) string {
	return s.namespace + ":suggest:" + strconv.FormatInt(gen, 10) + ":" + strings.Join(words, " ")
}
