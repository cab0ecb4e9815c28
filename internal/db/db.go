package db

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, not on Store.
type Store interface {
	Pinger
	KVStore
	DocStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides plain key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// DocStore provides JSON document storage with a limited structured
// query capability: equality/range where clauses, at most one orderBy
// when combined with where clauses, and a limit. Combinations of a
// non-identity where with an orderBy require a declared composite index;
// without one the query is rejected with ErrIndexMissing.
type DocStore interface {
	PutDoc(ctx context.Context, prefix, id string, doc []byte) error
	Query(ctx context.Context, prefix string, q Query) ([]json.RawMessage, error)
	ScanDocs(ctx context.Context, prefix string) ([]json.RawMessage, error)
}
