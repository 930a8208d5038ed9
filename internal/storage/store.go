// Package storage is the key-value persistence port of the vault and its
// adapters.
//
// The core only needs Get and Put on stable string keys. Delete and List
// serve maintenance (wiping data, enumerating users for export), and Atomic
// groups several writes so they become visible together.
//
// Adapters:
//   - MemoryStore: process-local map, used by tests and the "memory" driver.
//   - SQLStore:    SQLite (modernc.org/sqlite) or PostgreSQL (pgx) table,
//     schema managed by goose migrations.
//   - BoltStore:   single-file bbolt database.
//   - S3Store:     one object per key in an S3 compatible bucket.
//
// Missing keys are reported as common.ErrNotFound.
package storage

import (
	"context"
)

// KV is the minimal key-value surface used by repositories.
type KV interface {
	// Get returns the value stored under key or common.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns every key starting with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Store is a KV backend that can run a group of operations atomically.
type Store interface {
	KV

	// Atomic runs fn with a KV whose writes are committed together when fn
	// returns nil and discarded otherwise. Backends without transactions
	// (S3) apply writes as they happen.
	Atomic(ctx context.Context, fn func(ctx context.Context, kv KV) error) error

	// Close releases the backend.
	Close() error
}
