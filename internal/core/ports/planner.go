package ports

import (
	"context"

	"github.com/alandyousif/safar/internal/core/domain"
)

// PlannerClient talks to the external AI plan-generation backend. Generation
// is asynchronous and non-deterministic in duration: SubmitPlanRequest only
// returns a job code, and FetchJobStatus is polled until the payload carries
// itinerary days. Payloads are returned raw because their shape varies; the
// normalizer owns shape dispatch.
type PlannerClient interface {
	// SubmitPlanRequest asks the backend to generate a plan and returns the
	// job handle used to poll for completion.
	SubmitPlanRequest(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error)

	// FetchJobStatus returns the raw status payload for a job. A not-yet-ready
	// job yields an empty object or one without days; that is not an error.
	FetchJobStatus(ctx context.Context, code string) ([]byte, error)

	// FetchExistingPlans returns previously generated plans for warm-start
	// hydration, in any of the recognized payload shapes.
	FetchExistingPlans(ctx context.Context) ([]byte, error)

	// FetchLocationLookup returns the geocoding result set for a job. Only
	// consulted for payload shapes that carry no per-activity coordinates.
	FetchLocationLookup(ctx context.Context, code string) ([]domain.LocationLookup, error)
}
