package users

import (
	"context"

	"github.com/dmitrijs2005/encodex/internal/models"
)

type Repository interface {
	Get(ctx context.Context, identity string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]*models.User, error)
}
