package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound covers both records that never existed and records whose TTL
// elapsed. Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("record not found or expired")

// Namespaces used by the services. Each namespace carries its own expiry
// policy but shares the key format.
const (
	NamespacePosts   = "posts"
	NamespaceChat    = "chat"
	NamespaceJournal = "journal"
	NamespaceMood    = "mood"
	NamespaceSession = "session"
)

// Record is the envelope every value is stored in, so scans can order and
// filter entries without knowing the payload shape.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Decode unmarshals the record payload into dest.
func (r Record) Decode(dest any) error {
	return json.Unmarshal(r.Value, dest)
}

// Store is the namespaced key-value contract every service persists through.
// Writes always reset expiry; reads after expiry behave as if the record
// never existed. Store failures propagate to the caller, nothing is
// fabricated on its behalf.
type Store interface {
	// Put upserts value under ns/key and resets its expiry to now+ttl.
	Put(ctx context.Context, ns, key string, value any, ttl time.Duration) error
	// Get unmarshals the stored value into dest, or returns ErrNotFound.
	Get(ctx context.Context, ns, key string, dest any) error
	// ScanAll returns every live record in the namespace, newest first.
	ScanAll(ctx context.Context, ns string) ([]Record, error)
	// ScanPrefix is ScanAll restricted to keys with the given prefix.
	ScanPrefix(ctx context.Context, ns, prefix string) ([]Record, error)
	// IncrementField adds one to a numeric field of a stored JSON object and
	// returns the new value. Expiry is left as-is.
	IncrementField(ctx context.Context, ns, key, field string) (int64, error)
	// Delete removes a single record. Deleting an absent key is not an error.
	Delete(ctx context.Context, ns, key string) error
	// DeletePrefix removes every record whose key carries the prefix.
	DeletePrefix(ctx context.Context, ns, prefix string) error
	Ping(ctx context.Context) error
	Close() error
}

func nsKey(ns, key string) string {
	return ns + ":" + key
}
