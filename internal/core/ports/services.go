package ports

import (
	"context"

	"github.com/alandyousif/safar/internal/core/domain"
)

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// PlanEventPublisher broadcasts plan lifecycle events to a message broker so
// rendering clients can react without polling this service.
type PlanEventPublisher interface {
	PublishStateChange(ctx context.Context, state domain.JobState, jobCode string) error
	PublishPlanReady(ctx context.Context, code string, markerCount int) error
}
