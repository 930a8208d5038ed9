package shares

import (
	"context"

	"github.com/dmitrijs2005/encodex/internal/models"
)

type Repository interface {
	Get(ctx context.Context, token string) (*models.Share, error)
	Put(ctx context.Context, s *models.Share) error
	ListByOwner(ctx context.Context, owner string) ([]*models.Share, error)
}
