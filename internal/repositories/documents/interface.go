package documents

import (
	"context"

	"github.com/dmitrijs2005/encodex/internal/models"
)

type Repository interface {
	List(ctx context.Context, owner string) ([]*models.Document, error)
	Get(ctx context.Context, owner, id string) (*models.Document, error)
	Add(ctx context.Context, d *models.Document) error
	Remove(ctx context.Context, owner, id string) (*models.Document, error)
	ReplaceAll(ctx context.Context, owner string, docs []*models.Document) error
}
