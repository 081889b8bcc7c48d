package store

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func (c *fakeClock) advance(d time.Duration) { c.current = c.current.Add(d) }

func newClockedStore() (*MemoryStore, *fakeClock) {
	s := NewMemoryStore()
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s.SetClock(clock.now)
	return s, clock
}

func TestPutGetRoundTrip(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	type payload struct {
		Content string `json:"content"`
		Count   int    `json:"count"`
	}

	if err := s.Put(ctx, NamespacePosts, "p1", payload{Content: "hello", Count: 3}, time.Hour); err != nil {
		t.Fatalf("Put err: %v", err)
	}

	clock.advance(59 * time.Minute)

	var got payload
	if err := s.Get(ctx, NamespacePosts, "p1", &got); err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got.Content != "hello" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestGetAfterExpiry(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	if err := s.Put(ctx, NamespacePosts, "p1", map[string]string{"content": "short-lived"}, time.Hour); err != nil {
		t.Fatalf("Put err: %v", err)
	}

	clock.advance(time.Hour + time.Second)

	var got map[string]string
	if err := s.Get(ctx, NamespacePosts, "p1", &got); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutResetsExpiry(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	if err := s.Put(ctx, NamespaceChat, "s1:m1", map[string]string{"content": "v1"}, time.Hour); err != nil {
		t.Fatalf("Put err: %v", err)
	}

	clock.advance(50 * time.Minute)
	if err := s.Put(ctx, NamespaceChat, "s1:m1", map[string]string{"content": "v2"}, time.Hour); err != nil {
		t.Fatalf("second Put err: %v", err)
	}

	// Past the first deadline, within the refreshed one.
	clock.advance(40 * time.Minute)

	var got map[string]string
	if err := s.Get(ctx, NamespaceChat, "s1:m1", &got); err != nil {
		t.Fatalf("Get err: %v", err)
	}
	if got["content"] != "v2" {
		t.Fatalf("expected refreshed value, got %q", got["content"])
	}
}

func TestScanAllExcludesExpired(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	live := make(map[string]bool)
	for i := 0; i < 200; i++ {
		if rng.Intn(3) == 0 {
			clock.advance(time.Duration(rng.Intn(600)) * time.Second)
			continue
		}
		key := fmt.Sprintf("k%03d", i)
		ttl := time.Duration(1+rng.Intn(900)) * time.Second
		if err := s.Put(ctx, NamespaceMood, key, map[string]int{"n": i}, ttl); err != nil {
			t.Fatalf("Put err: %v", err)
		}
		live[key] = true
	}

	records, err := s.ScanAll(ctx, NamespaceMood)
	if err != nil {
		t.Fatalf("ScanAll err: %v", err)
	}

	now := clock.now()
	for _, rec := range records {
		if now.After(rec.ExpiresAt) {
			t.Fatalf("scan returned expired record %s (expired %s, now %s)", rec.Key, rec.ExpiresAt, now)
		}
	}
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Fatalf("records not sorted newest first at index %d", i)
		}
	}
}

func TestScanPrefixIsolatesSessions(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	for _, key := range []string{"sess-a:001", "sess-a:002", "sess-b:001"} {
		if err := s.Put(ctx, NamespaceChat, key, map[string]string{"k": key}, time.Hour); err != nil {
			t.Fatalf("Put err: %v", err)
		}
	}

	records, err := s.ScanPrefix(ctx, NamespaceChat, "sess-a")
	if err != nil {
		t.Fatalf("ScanPrefix err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for sess-a, got %d", len(records))
	}
}

func TestIncrementField(t *testing.T) {
	s, clock := newClockedStore()
	ctx := context.Background()

	if err := s.Put(ctx, NamespacePosts, "p1", map[string]any{"content": "x", "supportCount": 0}, time.Hour); err != nil {
		t.Fatalf("Put err: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		got, err := s.IncrementField(ctx, NamespacePosts, "p1", "supportCount")
		if err != nil {
			t.Fatalf("IncrementField err: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}

	clock.advance(2 * time.Hour)
	if _, err := s.IncrementField(ctx, NamespacePosts, "p1", "supportCount"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestDeleteSingleKey(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	if err := s.Put(ctx, NamespacePosts, "p1", map[string]string{"content": "x"}, time.Hour); err != nil {
		t.Fatalf("Put err: %v", err)
	}
	if err := s.Delete(ctx, NamespacePosts, "p1"); err != nil {
		t.Fatalf("Delete err: %v", err)
	}

	var got map[string]string
	if err := s.Get(ctx, NamespacePosts, "p1", &got); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeletePrefix(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	for _, key := range []string{"sess-a:001", "sess-a:002", "sess-b:001"} {
		if err := s.Put(ctx, NamespaceChat, key, map[string]string{"k": key}, time.Hour); err != nil {
			t.Fatalf("Put err: %v", err)
		}
	}

	if err := s.DeletePrefix(ctx, NamespaceChat, "sess-a"); err != nil {
		t.Fatalf("DeletePrefix err: %v", err)
	}

	records, err := s.ScanAll(ctx, NamespaceChat)
	if err != nil {
		t.Fatalf("ScanAll err: %v", err)
	}
	if len(records) != 1 || records[0].Key != "sess-b:001" {
		t.Fatalf("expected only sess-b:001 to remain, got %+v", records)
	}
}
