package ports

import (
	"context"

	"github.com/alandyousif/safar/internal/core/domain"
)

// PlanRepository persists completed plans for the history listing.
type PlanRepository interface {
	Save(ctx context.Context, plan *domain.StoredPlan) error
	List(ctx context.Context, offset, limit int) ([]domain.StoredPlan, int, error)
}
