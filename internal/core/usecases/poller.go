package usecases

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alandyousif/safar/internal/pkg/metrics"
)

// pollLoop checks job status on a fixed cadence until the payload is ready
// or the context is cancelled. Checks are strictly sequential: the next
// timer is armed only after the previous check returns, so a slow upstream
// never causes overlapping requests. Transport errors are logged and
// retried on the next tick; there is no failure budget, a job polls until
// it completes or is superseded.
func (c *PlanCoordinator) pollLoop(ctx context.Context, gen uint64, code string) {
	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		metrics.PollTicks.Inc()
		start := time.Now()
		raw, err := c.planner.FetchJobStatus(ctx, code)
		metrics.PollDuration.Observe(time.Since(start).Seconds())

		if ctx.Err() != nil {
			return
		}
		if err != nil {
			metrics.PollErrors.Inc()
			slog.Warn("job status check failed", "job_code", code, "error", err)
			timer.Reset(c.cfg.PollInterval)
			continue
		}

		if payloadReady(raw) {
			c.completeJob(ctx, gen, code, raw)
			return
		}
		timer.Reset(c.cfg.PollInterval)
	}
}

// payloadReady reports whether a status response carries itinerary content
// rather than a still-pending placeholder. Ready means an object with a
// "days" array at the top level or inside a "data" envelope, or at least one
// day-map key holding an array. Empty objects, arrays, and anything
// unparseable mean not yet.
func payloadReady(raw []byte) bool {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	if hasDays(obj) {
		return true
	}
	if data, ok := obj["data"].(map[string]any); ok && hasDays(data) {
		return true
	}
	for _, value := range obj {
		if _, ok := value.([]any); ok {
			return true
		}
	}
	return false
}

func hasDays(obj map[string]any) bool {
	days, ok := obj["days"].([]any)
	return ok && len(days) > 0
}
