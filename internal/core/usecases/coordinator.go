package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/ports"
	"github.com/alandyousif/safar/internal/pkg/metrics"
)

// Submission validation errors, surfaced to the user as-is.
var (
	ErrEmptyDestination = errors.New("destination is required")
	ErrInvalidDuration  = errors.New("duration must be between 1 and 3 days")
	ErrNoJobCode        = errors.New("no job identifier returned")
)

const (
	defaultPollInterval   = 3 * time.Second
	defaultMaxDisplayDays = 3
	locationCacheTTL      = 600 // seconds
)

// CoordinatorConfig tunes the plan request lifecycle.
type CoordinatorConfig struct {
	// PollInterval is the delay between job status checks.
	PollInterval time.Duration
	// MaxDisplayDays caps how many days of an itinerary surface in snapshots.
	MaxDisplayDays int
}

// PlanSnapshot is a point-in-time copy of the coordinator's outward state.
// The slices are fresh copies; callers own them.
type PlanSnapshot struct {
	State       domain.JobState    `json:"state"`
	JobCode     string             `json:"job_code,omitempty"`
	LastError   string             `json:"error,omitempty"`
	Itineraries []domain.Itinerary `json:"itineraries"`
	Markers     []domain.Marker    `json:"markers"`
	Viewport    domain.Viewport    `json:"viewport"`
}

// PlanCoordinator owns the plan request lifecycle: submit, track the job
// code, poll until ready, and hold the latest itinerary set plus its derived
// markers and viewport. At most one job is active at a time; submitting or
// tearing down supersedes whatever was in flight, and results from a
// superseded job are discarded by generation comparison rather than applied
// to current state.
type PlanCoordinator struct {
	planner ports.PlannerClient
	cache   ports.CacheService
	events  ports.PlanEventPublisher
	plans   ports.PlanRepository
	cfg     CoordinatorConfig

	mu          sync.Mutex
	state       domain.JobState
	job         *domain.JobHandle
	destination string
	generation  uint64
	cancelPoll  context.CancelFunc
	itineraries []domain.Itinerary
	markers     []domain.Marker
	viewport    domain.Viewport
	lastErr     string
}

// NewPlanCoordinator creates an idle coordinator. cache, events, and plans
// may be nil; the corresponding side effects are skipped.
func NewPlanCoordinator(
	planner ports.PlannerClient,
	cache ports.CacheService,
	events ports.PlanEventPublisher,
	plans ports.PlanRepository,
	cfg CoordinatorConfig,
) *PlanCoordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxDisplayDays <= 0 {
		cfg.MaxDisplayDays = defaultMaxDisplayDays
	}
	return &PlanCoordinator{
		planner:  planner,
		cache:    cache,
		events:   events,
		plans:    plans,
		cfg:      cfg,
		state:    domain.StateIdle,
		viewport: ComputeViewport(nil),
	}
}

// Submit starts a new plan request. Any polling in flight is cancelled
// first. On success the coordinator is polling for the returned job handle;
// on failure it is in the failed state with a user-visible error and can be
// retried immediately.
func (c *PlanCoordinator) Submit(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return domain.JobHandle{}, ErrEmptyDestination
	}
	if duration < 1 || duration > 3 {
		return domain.JobHandle{}, ErrInvalidDuration
	}
	prefs := trimPreferences(preferences)

	c.mu.Lock()
	c.supersedeLocked()
	gen := c.generation
	c.state = domain.StateSubmitting
	c.destination = destination
	c.job = nil
	c.lastErr = ""
	c.itineraries = nil
	c.markers = nil
	c.viewport = ComputeViewport(nil)
	c.mu.Unlock()

	c.publishState(ctx, domain.StateSubmitting, "")

	handle, err := c.planner.SubmitPlanRequest(ctx, destination, duration, prefs)

	c.mu.Lock()
	if c.generation != gen {
		// Superseded while the submission call was in flight.
		c.mu.Unlock()
		return domain.JobHandle{}, nil
	}
	if err != nil {
		c.state = domain.StateFailed
		c.lastErr = "failed to submit plan request"
		c.mu.Unlock()
		metrics.PlanSubmissions.WithLabelValues("error").Inc()
		c.publishState(ctx, domain.StateFailed, "")
		return domain.JobHandle{}, fmt.Errorf("submit plan request: %w", err)
	}
	if handle.Code == "" {
		c.state = domain.StateFailed
		c.lastErr = ErrNoJobCode.Error()
		c.mu.Unlock()
		metrics.PlanSubmissions.WithLabelValues("no_code").Inc()
		c.publishState(ctx, domain.StateFailed, "")
		return domain.JobHandle{}, ErrNoJobCode
	}

	c.job = &handle
	c.state = domain.StatePolling
	pollCtx, cancel := context.WithCancel(context.Background())
	c.cancelPoll = cancel
	c.mu.Unlock()

	metrics.PlanSubmissions.WithLabelValues("accepted").Inc()
	c.publishState(ctx, domain.StatePolling, handle.Code)
	go c.pollLoop(pollCtx, gen, handle.Code)

	return handle, nil
}

// Teardown cancels any in-flight polling and returns the coordinator to
// idle, discarding the current itinerary set. Safe to call from any state.
func (c *PlanCoordinator) Teardown() {
	c.mu.Lock()
	c.supersedeLocked()
	c.state = domain.StateIdle
	c.job = nil
	c.destination = ""
	c.lastErr = ""
	c.itineraries = nil
	c.markers = nil
	c.viewport = ComputeViewport(nil)
	c.mu.Unlock()

	c.publishState(context.Background(), domain.StateIdle, "")
}

// Hydrate loads previously generated plans at startup, passing them through
// the same normalization and resolution pipeline as a fresh completion. It
// leaves the job state untouched and never clobbers an active job.
func (c *PlanCoordinator) Hydrate(ctx context.Context) error {
	raw, err := c.planner.FetchExistingPlans(ctx)
	if err != nil {
		return fmt.Errorf("fetch existing plans: %w", err)
	}

	itins, shape := NormalizeItineraries(raw)
	if len(itins) == 0 {
		return nil
	}

	if shape.NeedsLocationResolution() {
		code := itins[0].Code
		if code == "" {
			code = "EXAMPLE_CODE"
		}
		itins = ResolveLocations(itins, c.locationLookup(ctx, code))
	}

	markers := ProjectMarkers(itins)
	viewport := ComputeViewport(markers)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateIdle {
		return nil
	}
	c.itineraries = itins
	c.markers = markers
	c.viewport = viewport
	return nil
}

// Snapshot returns a copy of the outward-facing state with the display-day
// cap applied to each itinerary.
func (c *PlanCoordinator) Snapshot() PlanSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := PlanSnapshot{
		State:     c.state,
		LastError: c.lastErr,
		Viewport:  c.viewport,
	}
	if c.job != nil {
		snap.JobCode = c.job.Code
	}
	snap.Itineraries = make([]domain.Itinerary, len(c.itineraries))
	for i, it := range c.itineraries {
		snap.Itineraries[i] = domain.Itinerary{
			Code: it.Code,
			Days: it.DisplayDays(c.cfg.MaxDisplayDays),
		}
	}
	snap.Markers = append([]domain.Marker(nil), c.markers...)
	return snap
}

// Markers returns a copy of the current marker list.
func (c *PlanCoordinator) Markers() []domain.Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Marker(nil), c.markers...)
}

// Viewport returns the current bounding region or fallback center.
func (c *PlanCoordinator) Viewport() domain.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// supersedeLocked invalidates the active job: the poll loop is cancelled and
// the generation counter is bumped so that any response already in flight is
// discarded instead of applied. Callers must hold c.mu.
func (c *PlanCoordinator) supersedeLocked() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.generation++
}

// completeJob applies a ready payload: normalize, resolve if the shape needs
// it, project markers, compute the viewport, and publish/persist. A payload
// for a superseded generation is dropped.
func (c *PlanCoordinator) completeJob(ctx context.Context, gen uint64, code string, raw []byte) {
	itins, shape := NormalizeItineraries(raw)
	if shape.NeedsLocationResolution() {
		itins = ResolveLocations(itins, c.locationLookup(ctx, code))
	}
	markers := ProjectMarkers(itins)
	viewport := ComputeViewport(markers)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		metrics.StaleCompletions.Inc()
		slog.Debug("discarding stale plan completion", "job_code", code)
		return
	}
	destination := c.destination
	c.itineraries = itins
	c.markers = markers
	c.viewport = viewport
	c.state = domain.StateReady
	c.job = nil
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
	c.mu.Unlock()

	metrics.PlansReady.Inc()
	metrics.MarkersProjected.Add(float64(len(markers)))
	slog.Info("plan ready", "job_code", code, "plans", len(itins), "markers", len(markers))

	if c.plans != nil {
		stored := &domain.StoredPlan{
			JobCode:     code,
			Destination: destination,
			Itineraries: itins,
		}
		if err := c.plans.Save(ctx, stored); err != nil {
			slog.Warn("persist plan failed", "job_code", code, "error", err)
		}
	}
	if c.events != nil {
		_ = c.events.PublishPlanReady(ctx, code, len(markers))
	}
	c.publishState(ctx, domain.StateReady, code)
}

// locationLookup fetches the geocoding result set for a job, read-through
// cached: geocoding results are stable for a given job code.
func (c *PlanCoordinator) locationLookup(ctx context.Context, code string) []domain.LocationLookup {
	cacheKey := "locations:" + code

	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var entries []domain.LocationLookup
			if err := json.Unmarshal(data, &entries); err == nil {
				metrics.CacheHits.WithLabelValues("locations").Inc()
				return entries
			}
		}
		metrics.CacheMisses.WithLabelValues("locations").Inc()
	}

	entries, err := c.planner.FetchLocationLookup(ctx, code)
	if err != nil {
		// Resolution is optional; rows keep their inline coordinates.
		slog.Warn("location lookup failed", "job_code", code, "error", err)
		return nil
	}

	if c.cache != nil && len(entries) > 0 {
		if data, err := json.Marshal(entries); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, locationCacheTTL)
		}
	}
	return entries
}

func (c *PlanCoordinator) publishState(ctx context.Context, state domain.JobState, code string) {
	if c.events != nil {
		_ = c.events.PublishStateChange(ctx, state, code)
	}
}

func trimPreferences(preferences []string) []string {
	var prefs []string
	for _, p := range preferences {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			prefs = append(prefs, trimmed)
		}
	}
	return prefs
}
