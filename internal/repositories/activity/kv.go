// Package activity keeps the activity log as one JSON array under the
// "activity" key, newest first and capped at common.ActivityLimit entries.
package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/storage"
)

const Key = "activity"

type KVRepository struct {
	kv    storage.KV
	limit int
}

func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv, limit: common.ActivityLimit}
}

func (r *KVRepository) load(ctx context.Context) ([]models.ActivityRecord, error) {
	var recs []models.ActivityRecord
	err := storage.GetJSON(ctx, r.kv, Key, &recs)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return recs, nil
}

// Append puts a at the head of the log and drops the oldest entries beyond
// the cap.
func (r *KVRepository) Append(ctx context.Context, a *models.Activity) error {
	rec, err := a.ToRecord()
	if err != nil {
		return err
	}
	recs, err := r.load(ctx)
	if err != nil {
		return err
	}

	recs = append([]models.ActivityRecord{rec}, recs...)
	if len(recs) > r.limit {
		recs = recs[:r.limit]
	}
	if err := storage.PutJSON(ctx, r.kv, Key, recs); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty actor matches
// everyone; limit <= 0 means no limit. Entries that fail to decode are
// skipped.
func (r *KVRepository) Recent(ctx context.Context, actor string, limit int) ([]*models.Activity, error) {
	recs, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Activity, 0, len(recs))
	for _, rec := range recs {
		if actor != "" && rec.Actor != actor {
			continue
		}
		a, err := rec.FromRecord()
		if err != nil {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
