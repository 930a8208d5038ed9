package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

const Prefix = "files/"

func Key(owner string) string {
	return Prefix + owner
}

type KVRepository struct {
	kv storage.KV
}

func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

func (r *KVRepository) load(ctx context.Context, owner string) ([]models.DocumentRecord, error) {
	var recs []models.DocumentRecord
	err := storage.GetJSON(ctx, r.kv, Key(owner), &recs)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load documents of %s: %w", owner, err)
	}
	return recs, nil
}

func (r *KVRepository) save(ctx context.Context, owner string, recs []models.DocumentRecord) error {
	if recs == nil {
		recs = []models.DocumentRecord{}
	}
	if err := storage.PutJSON(ctx, r.kv, Key(owner), recs); err != nil {
		return fmt.Errorf("failed to save documents of %s: %w", owner, err)
	}
	return nil
}

// List returns the owner's documents in insertion order. An owner without
// documents gets an empty slice.
func (r *KVRepository) List(ctx context.Context, owner string) ([]*models.Document, error) {
	recs, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Document, 0, len(recs))
	for _, rec := range recs {
		d, err := rec.FromRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *KVRepository) Get(ctx context.Context, owner, id string) (*models.Document, error) {
	recs, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec.FromRecord()
		}
	}
	return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
}

// Add appends d to its owner's collection. Document ids are unique per owner.
func (r *KVRepository) Add(ctx context.Context, d *models.Document) error {
	recs, err := r.load(ctx, d.Owner)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.ID == d.ID {
			return fmt.Errorf("document %s: %w", d.ID, common.ErrAlreadyExists)
		}
	}
	return r.save(ctx, d.Owner, append(recs, d.ToRecord()))
}

// Remove deletes one document and returns it.
func (r *KVRepository) Remove(ctx context.Context, owner, id string) (*models.Document, error) {
	recs, err := r.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		if rec.ID != id {
			continue
		}
		d, err := rec.FromRecord()
		if err != nil {
			return nil, err
		}
		recs = append(recs[:i], recs[i+1:]...)
		if err := r.save(ctx, owner, recs); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
}

// ReplaceAll overwrites the whole collection, used by re-keying.
func (r *KVRepository) ReplaceAll(ctx context.Context, owner string, docs []*models.Document) error {
	recs := make([]models.DocumentRecord, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, d.ToRecord())
	}
	return r.save(ctx, owner, recs)
}
