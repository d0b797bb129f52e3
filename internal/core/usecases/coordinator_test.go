package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/usecases"
)

// --- Mock PlannerClient ---

type mockPlanner struct {
	submitFn        func(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error)
	statusFn        func(ctx context.Context, code string) ([]byte, error)
	existingFn      func(ctx context.Context) ([]byte, error)
	locationsFn     func(ctx context.Context, code string) ([]domain.LocationLookup, error)
	statusCallCount atomic.Int64
}

func (m *mockPlanner) SubmitPlanRequest(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, destination, duration, preferences)
	}
	return domain.JobHandle{Code: "JOB1"}, nil
}

func (m *mockPlanner) FetchJobStatus(ctx context.Context, code string) ([]byte, error) {
	m.statusCallCount.Add(1)
	if m.statusFn != nil {
		return m.statusFn(ctx, code)
	}
	return []byte(`{}`), nil
}

func (m *mockPlanner) FetchExistingPlans(ctx context.Context) ([]byte, error) {
	if m.existingFn != nil {
		return m.existingFn(ctx)
	}
	return []byte(`[]`), nil
}

func (m *mockPlanner) FetchLocationLookup(ctx context.Context, code string) ([]domain.LocationLookup, error) {
	if m.locationsFn != nil {
		return m.locationsFn(ctx, code)
	}
	return nil, nil
}

// --- Mock PlanRepository ---

type mockPlanRepo struct {
	mu    sync.Mutex
	saved []*domain.StoredPlan
}

func (m *mockPlanRepo) Save(ctx context.Context, p *domain.StoredPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, p)
	return nil
}

func (m *mockPlanRepo) List(ctx context.Context, offset, limit int) ([]domain.StoredPlan, int, error) {
	return nil, 0, nil
}

func (m *mockPlanRepo) savedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func testConfig() usecases.CoordinatorConfig {
	return usecases.CoordinatorConfig{PollInterval: 2 * time.Millisecond}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestCoordinator_SubmitPollComplete(t *testing.T) {
	ready := []byte(`{
		"code_chat": "X1",
		"days": [{"day": "Day 1", "rows": [
			{"activity": "Citadel tour", "location": "Erbil Citadel"}
		]}]
	}`)
	planner := &mockPlanner{
		submitFn: func(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
			if destination != "Erbil" || duration != 2 {
				t.Errorf("unexpected submission: %s/%d", destination, duration)
			}
			if len(preferences) != 2 {
				t.Errorf("expected 2 preferences, got %v", preferences)
			}
			return domain.JobHandle{Code: "X1"}, nil
		},
		locationsFn: func(ctx context.Context, code string) ([]domain.LocationLookup, error) {
			return []domain.LocationLookup{
				{Location: "erbil citadel", Latitude: 36.19, Longitude: 44.01, Found: true},
			}, nil
		},
	}
	var polls atomic.Int64
	planner.statusFn = func(ctx context.Context, code string) ([]byte, error) {
		if code != "X1" {
			t.Errorf("polling wrong job code %q", code)
		}
		if polls.Add(1) < 3 {
			return []byte(`{}`), nil
		}
		return ready, nil
	}
	repo := &mockPlanRepo{}

	c := usecases.NewPlanCoordinator(planner, nil, nil, repo, testConfig())
	handle, err := c.Submit(context.Background(), "Erbil", 2, []string{"culture", "food"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.Code != "X1" {
		t.Fatalf("expected job code X1, got %q", handle.Code)
	}
	if c.Snapshot().State != domain.StatePolling {
		t.Errorf("expected polling state right after submit")
	}

	waitFor(t, func() bool { return c.Snapshot().State == domain.StateReady }, "job never reached ready")

	snap := c.Snapshot()
	if len(snap.Markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(snap.Markers))
	}
	m := snap.Markers[0]
	if m.Latitude != 36.19 || m.Longitude != 44.01 {
		t.Errorf("marker coordinates should come from the lookup, got (%v, %v)", m.Latitude, m.Longitude)
	}
	if m.DayIndex != 0 || m.PlanIndex != 0 {
		t.Errorf("expected indices 0/0, got %d/%d", m.DayIndex, m.PlanIndex)
	}
	if snap.Viewport.Fallback {
		t.Error("ready plan with markers should not use the fallback viewport")
	}
	if snap.JobCode != "" {
		t.Errorf("completed job should clear the handle, got %q", snap.JobCode)
	}

	waitFor(t, func() bool { return repo.savedCount() == 1 }, "completed plan never persisted")
	repo.mu.Lock()
	stored := repo.saved[0]
	repo.mu.Unlock()
	if stored.JobCode != "X1" || stored.Destination != "Erbil" {
		t.Errorf("stored plan mismatch: %+v", stored)
	}

	// Polling must stop once ready.
	settled := planner.statusCallCount.Load()
	time.Sleep(20 * time.Millisecond)
	if after := planner.statusCallCount.Load(); after != settled {
		t.Errorf("polling continued after completion: %d -> %d", settled, after)
	}
}

func TestCoordinator_SubmitValidation(t *testing.T) {
	c := usecases.NewPlanCoordinator(&mockPlanner{}, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "   ", 2, nil); !errors.Is(err, usecases.ErrEmptyDestination) {
		t.Errorf("blank destination: got %v", err)
	}
	for _, d := range []int{0, -1, 4} {
		if _, err := c.Submit(context.Background(), "Erbil", d, nil); !errors.Is(err, usecases.ErrInvalidDuration) {
			t.Errorf("duration %d: got %v", d, err)
		}
	}
	if c.Snapshot().State != domain.StateIdle {
		t.Errorf("validation failures should leave the coordinator idle")
	}
}

func TestCoordinator_MissingJobCode(t *testing.T) {
	planner := &mockPlanner{
		submitFn: func(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
			return domain.JobHandle{}, nil
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	_, err := c.Submit(context.Background(), "Erbil", 2, nil)
	if !errors.Is(err, usecases.ErrNoJobCode) {
		t.Fatalf("expected ErrNoJobCode, got %v", err)
	}
	snap := c.Snapshot()
	if snap.State != domain.StateFailed {
		t.Errorf("expected failed state, got %v", snap.State)
	}
	if snap.LastError == "" {
		t.Error("expected a user-visible error message")
	}

	// No polling after a failed submission.
	time.Sleep(10 * time.Millisecond)
	if n := planner.statusCallCount.Load(); n != 0 {
		t.Errorf("expected no status checks, got %d", n)
	}
}

func TestCoordinator_SubmitTransportError(t *testing.T) {
	planner := &mockPlanner{
		submitFn: func(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
			return domain.JobHandle{}, errors.New("connection refused")
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "Erbil", 2, nil); err == nil {
		t.Fatal("expected an error")
	}
	if c.Snapshot().State != domain.StateFailed {
		t.Errorf("expected failed state")
	}

	// Retry after failure must work immediately.
	planner.submitFn = nil
	if _, err := c.Submit(context.Background(), "Erbil", 2, nil); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if c.Snapshot().State != domain.StatePolling {
		t.Errorf("retry should reach polling state")
	}
}

func TestCoordinator_PollErrorsAreRetried(t *testing.T) {
	var polls atomic.Int64
	planner := &mockPlanner{
		statusFn: func(ctx context.Context, code string) ([]byte, error) {
			switch polls.Add(1) {
			case 1:
				return nil, errors.New("upstream 502")
			case 2:
				return []byte(`not json`), nil
			default:
				return []byte(`{"days": [{"rows": [{"activity": "a", "latitude": 36.0, "longitude": 44.0}]}]}`), nil
			}
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "Erbil", 1, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return c.Snapshot().State == domain.StateReady }, "errors should not stop polling")
}

func TestCoordinator_TeardownDiscardsStaleCompletion(t *testing.T) {
	release := make(chan struct{})
	planner := &mockPlanner{
		statusFn: func(ctx context.Context, code string) ([]byte, error) {
			<-release
			return []byte(`{"days": [{"rows": [{"activity": "stale", "latitude": 1.0, "longitude": 1.0}]}]}`), nil
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "Erbil", 1, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return planner.statusCallCount.Load() >= 1 }, "first poll never started")

	c.Teardown()
	close(release)

	time.Sleep(20 * time.Millisecond)
	snap := c.Snapshot()
	if snap.State != domain.StateIdle {
		t.Errorf("expected idle after teardown, got %v", snap.State)
	}
	if len(snap.Markers) != 0 || len(snap.Itineraries) != 0 {
		t.Errorf("stale completion leaked into state: %+v", snap)
	}
	if !snap.Viewport.Fallback {
		t.Error("teardown should restore the fallback viewport")
	}
}

func TestCoordinator_NewSubmitSupersedesOldJob(t *testing.T) {
	release := make(chan struct{})
	var polls atomic.Int64
	planner := &mockPlanner{
		statusFn: func(ctx context.Context, code string) ([]byte, error) {
			if code == "OLD" {
				<-release
				return []byte(`{"days": [{"rows": [{"activity": "old", "latitude": 1.0, "longitude": 1.0}]}]}`), nil
			}
			if polls.Add(1) < 2 {
				return []byte(`{}`), nil
			}
			return []byte(`{"days": [{"rows": [{"activity": "new", "latitude": 36.0, "longitude": 44.0}]}]}`), nil
		},
	}
	codes := []string{"OLD", "NEW"}
	var submits atomic.Int64
	planner.submitFn = func(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
		return domain.JobHandle{Code: codes[submits.Add(1)-1]}, nil
	}

	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())
	if _, err := c.Submit(context.Background(), "Erbil", 1, nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	waitFor(t, func() bool { return planner.statusCallCount.Load() >= 1 }, "old job never polled")

	if _, err := c.Submit(context.Background(), "Sulaymaniyah", 1, nil); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	close(release)

	waitFor(t, func() bool { return c.Snapshot().State == domain.StateReady }, "new job never completed")
	snap := c.Snapshot()
	if len(snap.Markers) != 1 || snap.Markers[0].Activity != "new" {
		t.Fatalf("state should reflect the new job only, got %+v", snap.Markers)
	}
}

func TestCoordinator_Hydrate(t *testing.T) {
	planner := &mockPlanner{
		existingFn: func(ctx context.Context) ([]byte, error) {
			return []byte(`[{"code": "OLD1", "days": [{"day": "Day 1", "rows": [
				{"activity": "Walk", "location": "Citadel"}
			]}]}]`), nil
		},
		locationsFn: func(ctx context.Context, code string) ([]domain.LocationLookup, error) {
			if code != "OLD1" {
				t.Errorf("expected lookup for OLD1, got %q", code)
			}
			return []domain.LocationLookup{{Location: "citadel", Latitude: 36.19, Longitude: 44.01, Found: true}}, nil
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	snap := c.Snapshot()
	if snap.State != domain.StateIdle {
		t.Errorf("hydration should not change job state, got %v", snap.State)
	}
	if len(snap.Itineraries) != 1 || len(snap.Markers) != 1 {
		t.Fatalf("expected hydrated plan with 1 marker, got %d/%d", len(snap.Itineraries), len(snap.Markers))
	}
}

func TestCoordinator_HydrateEmpty(t *testing.T) {
	c := usecases.NewPlanCoordinator(&mockPlanner{}, nil, nil, nil, testConfig())
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Itineraries) != 0 {
		t.Errorf("empty upstream should leave no itineraries")
	}
}

func TestCoordinator_SnapshotCapsDisplayDays(t *testing.T) {
	ready := []byte(`{"days": [
		{"day": "Day 1", "rows": []},
		{"day": "Day 2", "rows": []},
		{"day": "Day 3", "rows": []},
		{"day": "Day 4", "rows": []},
		{"day": "Day 5", "rows": []}
	]}`)
	planner := &mockPlanner{
		statusFn: func(ctx context.Context, code string) ([]byte, error) { return ready, nil },
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "Erbil", 3, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return c.Snapshot().State == domain.StateReady }, "job never completed")

	snap := c.Snapshot()
	if len(snap.Itineraries[0].Days) != 3 {
		t.Errorf("expected display cap of 3 days, got %d", len(snap.Itineraries[0].Days))
	}
}

func TestCoordinator_PollContextReleasedAfterReady(t *testing.T) {
	ready := []byte(`{"days": [{"day": "Day 1", "rows": [{"activity": "Walk"}]}]}`)
	var pollCtx atomic.Value
	planner := &mockPlanner{
		statusFn: func(ctx context.Context, code string) ([]byte, error) {
			pollCtx.Store(ctx)
			return ready, nil
		},
	}
	c := usecases.NewPlanCoordinator(planner, nil, nil, nil, testConfig())

	if _, err := c.Submit(context.Background(), "Erbil", 1, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return c.Snapshot().State == domain.StateReady }, "job never completed")

	// The poll context must not outlive the job it was polling for.
	waitFor(t, func() bool {
		ctx, ok := pollCtx.Load().(context.Context)
		if !ok {
			return false
		}
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}, "poll context still live after completion")
}
