package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store with a mutex-guarded map. Expiry is lazy:
// expired entries are skipped on read and scan rather than reaped by a
// background job. Suitable for tests and single-process development runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store using wall-clock time.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Record),
		now:     time.Now,
	}
}

// SetClock replaces the time source, letting tests advance time without
// sleeping.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Put(_ context.Context, ns, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", nsKey(ns, key), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	s.entries[nsKey(ns, key)] = Record{
		Key:       key,
		Value:     raw,
		CreatedAt: created,
		ExpiresAt: created.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ns, key string, dest any) error {
	s.mu.RLock()
	rec, ok := s.entries[nsKey(ns, key)]
	now := s.now()
	s.mu.RUnlock()

	if !ok || now.After(rec.ExpiresAt) {
		return ErrNotFound
	}
	return rec.Decode(dest)
}

func (s *MemoryStore) ScanAll(ctx context.Context, ns string) ([]Record, error) {
	return s.ScanPrefix(ctx, ns, "")
}

func (s *MemoryStore) ScanPrefix(_ context.Context, ns, prefix string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	full := nsKey(ns, prefix)
	now := s.now()
	records := make([]Record, 0, 16)
	for k, rec := range s.entries {
		if !strings.HasPrefix(k, full) {
			continue
		}
		if now.After(rec.ExpiresAt) {
			continue
		}
		records = append(records, rec)
	}

	sortNewestFirst(records)
	return records, nil
}

func (s *MemoryStore) IncrementField(_ context.Context, ns, key, field string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := nsKey(ns, key)
	rec, ok := s.entries[full]
	if !ok || s.now().After(rec.ExpiresAt) {
		return 0, ErrNotFound
	}

	updated, next, err := incrementJSONField(rec.Value, field)
	if err != nil {
		return 0, fmt.Errorf("increment %s.%s: %w", full, field, err)
	}

	rec.Value = updated
	s.entries[full] = rec
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, ns, key string) error {
	s.mu.Lock()
	delete(s.entries, nsKey(ns, key))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePrefix(_ context.Context, ns, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := nsKey(ns, prefix)
	for k := range s.entries {
		if strings.HasPrefix(k, full) {
			delete(s.entries, k)
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// sortNewestFirst orders records by creation time descending, breaking ties
// by key so the order stays deterministic.
func sortNewestFirst(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].Key > records[j].Key
	})
}

// incrementJSONField bumps a numeric field inside a stored JSON object and
// returns the re-marshaled payload together with the new counter value.
func incrementJSONField(raw json.RawMessage, field string) (json.RawMessage, int64, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, 0, err
	}

	current := int64(0)
	if v, ok := payload[field]; ok {
		num, ok := v.(float64)
		if !ok {
			return nil, 0, fmt.Errorf("field %q is not numeric", field)
		}
		current = int64(num)
	}

	next := current + 1
	payload[field] = next

	updated, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	return updated, next, nil
}
