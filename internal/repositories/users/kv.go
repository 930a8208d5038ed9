// Package users stores credential records under "users/<identity>".
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

const Prefix = "users/"

func Key(identity string) string {
	return Prefix + identity
}

type KVRepository struct {
	kv storage.KV
}

func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// Get returns common.ErrNotFound for an unknown identity.
func (r *KVRepository) Get(ctx context.Context, identity string) (*models.User, error) {
	var rec models.UserRecord
	if err := storage.GetJSON(ctx, r.kv, Key(identity), &rec); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", identity, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %s: %w", identity, err)
	}
	return rec.FromRecord()
}

// Create fails with common.ErrAlreadyExists when identity is taken.
func (r *KVRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.kv.Get(ctx, Key(u.Identity))
	switch {
	case err == nil:
		return fmt.Errorf("user %s: %w", u.Identity, common.ErrAlreadyExists)
	case !errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("failed to check user %s: %w", u.Identity, err)
	}
	return r.put(ctx, u)
}

// Update overwrites an existing user.
func (r *KVRepository) Update(ctx context.Context, u *models.User) error {
	if _, err := r.kv.Get(ctx, Key(u.Identity)); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("user %s: %w", u.Identity, common.ErrNotFound)
		}
		return fmt.Errorf("failed to check user %s: %w", u.Identity, err)
	}
	return r.put(ctx, u)
}

func (r *KVRepository) put(ctx context.Context, u *models.User) error {
	if err := storage.PutJSON(ctx, r.kv, Key(u.Identity), u.ToRecord()); err != nil {
		return fmt.Errorf("failed to save user %s: %w", u.Identity, err)
	}
	return nil
}

// List returns every user ordered by identity.
func (r *KVRepository) List(ctx context.Context) ([]*models.User, error) {
	keys, err := r.kv.List(ctx, Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*models.User, 0, len(keys))
	for _, k := range keys {
		u, err := r.Get(ctx, strings.TrimPrefix(k, Prefix))
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
