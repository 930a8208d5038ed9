package services

import (
	"context"

	"github.com/dmitrijs2005/encodex/internal/models"
	"github.com/dmitrijs2005/encodex/internal/repositories/activity"
	"github.com/dmitrijs2005/encodex/internal/session"
)

type ActivityService interface {
	// Recent returns the session owner's latest events, newest first.
	Recent(ctx context.Context, s *session.Session, limit int) ([]*models.Activity, error)
}

type activityService struct {
	*core
}

func (a *activityService) Recent(ctx context.Context, s *session.Session, limit int) ([]*models.Activity, error) {
	if err := requireSession(s); err != nil {
		return nil, err
	}
	return activity.NewKVRepository(a.store).Recent(ctx, s.Identity, limit)
}
