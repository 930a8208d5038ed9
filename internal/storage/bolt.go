package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
	bolt "go.etcd.io/bbolt"
)

var kvBucket = []byte("kv")

// BoltStore keeps everything in one bucket of a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		out, err = (&boltBucket{b: tx.Bucket(kvBucket)}).Get(ctx, key)
		return err
	})
	return out, err
}

func (s *BoltStore) Put(ctx context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return (&boltBucket{b: tx.Bucket(kvBucket)}).Put(ctx, key, value)
	})
}

func (s *BoltStore) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return (&boltBucket{b: tx.Bucket(kvBucket)}).Delete(ctx, key)
	})
}

func (s *BoltStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		keys, err = (&boltBucket{b: tx.Bucket(kvBucket)}).List(ctx, prefix)
		return err
	})
	return keys, err
}

// Atomic runs fn inside a single read-write bolt transaction.
func (s *BoltStore) Atomic(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(ctx, &boltBucket{b: tx.Bucket(kvBucket)})
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// boltBucket is valid only for the lifetime of its transaction.
type boltBucket struct {
	b *bolt.Bucket
}

func (k *boltBucket) Get(_ context.Context, key string) ([]byte, error) {
	v := k.b.Get([]byte(key))
	if v == nil {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (k *boltBucket) Put(_ context.Context, key string, value []byte) error {
	if err := k.b.Put([]byte(key), value); err != nil {
		return fmt.Errorf("failed to put kv[%s]: %w", key, err)
	}
	return nil
}

func (k *boltBucket) Delete(_ context.Context, key string) error {
	if err := k.b.Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (k *boltBucket) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	p := []byte(prefix)
	c := k.b.Cursor()
	for key, _ := c.Seek(p); key != nil && bytes.HasPrefix(key, p); key, _ = c.Next() {
		keys = append(keys, string(key))
	}
	return keys, nil
}
