// Package shares stores share records under "shares/<token>" and keeps a
// per-owner token index under "shareidx/<identity>" for the share center.
package shares

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

const (
	Prefix      = "shares/"
	IndexPrefix = "shareidx/"
)

func Key(token string) string {
	return Prefix + token
}

func IndexKey(owner string) string {
	return IndexPrefix + owner
}

type KVRepository struct {
	kv storage.KV
}

func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// Get returns common.ErrNotFound for an unknown token. Revoked shares are
// returned with their tombstone state.
func (r *KVRepository) Get(ctx context.Context, token string) (*models.Share, error) {
	var rec models.ShareRecord
	if err := storage.GetJSON(ctx, r.kv, Key(token), &rec); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("share %s: %w", models.TokenPrefix(token), common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get share %s: %w", models.TokenPrefix(token), err)
	}
	return rec.FromRecord()
}

// Put writes s and records its token in the owner index.
func (r *KVRepository) Put(ctx context.Context, s *models.Share) error {
	if err := storage.PutJSON(ctx, r.kv, Key(s.Token), s.ToRecord()); err != nil {
		return fmt.Errorf("failed to save share %s: %w", models.TokenPrefix(s.Token), err)
	}

	tokens, err := r.index(ctx, s.Owner)
	if err != nil {
		return err
	}
	if slices.Contains(tokens, s.Token) {
		return nil
	}
	if err := storage.PutJSON(ctx, r.kv, IndexKey(s.Owner), append(tokens, s.Token)); err != nil {
		return fmt.Errorf("failed to save share index of %s: %w", s.Owner, err)
	}
	return nil
}

func (r *KVRepository) index(ctx context.Context, owner string) ([]string, error) {
	var tokens []string
	err := storage.GetJSON(ctx, r.kv, IndexKey(owner), &tokens)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share index of %s: %w", owner, err)
	}
	return tokens, nil
}

// ListByOwner returns every share the owner has issued, revoked ones
// included, in issue order. Index entries whose record is gone are skipped.
func (r *KVRepository) ListByOwner(ctx context.Context, owner string) ([]*models.Share, error) {
	tokens, err := r.index(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Share, 0, len(tokens))
	for _, t := range tokens {
		s, err := r.Get(ctx, t)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
