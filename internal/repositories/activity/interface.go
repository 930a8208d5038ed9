package activity

import (
	"context"

	"github.com/dmitrijs2005/encodex/internal/models"
)

type Repository interface {
	Append(ctx context.Context, a *models.Activity) error
	Recent(ctx context.Context, actor string, limit int) ([]*models.Activity, error)
}
