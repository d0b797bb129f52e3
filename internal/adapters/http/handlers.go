package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/alandyousif/safar/internal/core/domain"
	"github.com/alandyousif/safar/internal/core/usecases"
)

// SubmitPlanRequestBody is the POST /v1/plans payload.
type SubmitPlanRequestBody struct {
	Destination string   `json:"destination"`
	Duration    int      `json:"duration"`
	Preferences []string `json:"preferences"`
}

// SubmitPlanHandler starts itinerary generation. Generation is asynchronous,
// so the response is 202 with the job code; clients follow progress via
// GET /v1/plans/current or the WebSocket feed.
func SubmitPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SubmitPlanRequestBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		prefs := body.Preferences
		if len(prefs) == 0 {
			prefs = normalizeQueryList(c.Query("preferences"))
		}

		handle, err := deps.Coordinator.Submit(c.Context(), body.Destination, body.Duration, prefs)
		switch {
		case errors.Is(err, usecases.ErrEmptyDestination),
			errors.Is(err, usecases.ErrInvalidDuration):
			return errBadRequest(c, err.Error())
		case errors.Is(err, usecases.ErrNoJobCode):
			return errBadGateway(c, err.Error())
		case err != nil:
			return errBadGateway(c, "plan service unavailable")
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_code": handle.Code,
			"state":    domain.StatePolling,
		})
	}
}

// CurrentPlanHandler returns the full coordinator snapshot: job state, the
// normalized itineraries (display-capped), markers, and viewport.
func CurrentPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Coordinator.Snapshot())
	}
}

// TeardownPlanHandler cancels any in-flight generation and clears the
// current plan.
func TeardownPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Coordinator.Teardown()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MarkersHandler returns the flat marker list for map rendering.
func MarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		markers := deps.Coordinator.Markers()
		if markers == nil {
			markers = []domain.Marker{}
		}
		return c.JSON(markers)
	}
}

// ViewportHandler returns the map region enclosing the current markers, or
// the fallback center when there are none.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Coordinator.Viewport())
	}
}

// DirectionsHandler builds a driving-directions link for a coordinate pair.
func DirectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "coordinates out of range")
		}

		m := domain.Marker{Latitude: lat, Longitude: lon}
		return c.JSON(fiber.Map{"url": m.DirectionsURL()})
	}
}

// historyCacheTTL caps staleness of the history listing; new plans appear
// within a minute.
const historyCacheTTL = 60

// HistoryHandler lists persisted plans newest first with offset/limit
// pagination. Pages are cached in Valkey since history only grows.
func HistoryHandler(deps *Dependencies) fiber.Handler {
	type page struct {
		Plans []domain.StoredPlan `json:"plans"`
		Total int                 `json:"total"`
	}

	return func(c *fiber.Ctx) error {
		if deps.Plans == nil {
			return errInternal(c, "plan history not available")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		cacheKey := fmt.Sprintf("history:%d:%d", offset, limit)
		var pg page
		if deps.Cache != nil {
			if err := deps.Cache.GetJSON(c.Context(), cacheKey, &pg); err == nil {
				return writeHistoryPage(c, pg.Plans, offset, limit, pg.Total)
			}
		}

		plans, total, err := deps.Plans.List(c.Context(), offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if plans == nil {
			plans = []domain.StoredPlan{}
		}

		if deps.Cache != nil {
			_ = deps.Cache.SetJSON(c.Context(), cacheKey, page{Plans: plans, Total: total}, historyCacheTTL)
		}
		return writeHistoryPage(c, plans, offset, limit, total)
	}
}

func writeHistoryPage(c *fiber.Ctx, plans []domain.StoredPlan, offset, limit, total int) error {
	pg := Pagination{Offset: offset, Limit: limit, Total: total}
	SetLinkHeaders(c, pg)
	return c.JSON(PaginatedResponse{Data: plans, Pagination: pg})
}

// HydrateHandler re-runs startup hydration on demand, loading previously
// generated plans from the upstream service.
func HydrateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := deps.Coordinator.Snapshot()
		if snap.State == domain.StateSubmitting || snap.State == domain.StatePolling {
			return errConflict(c, "a plan request is in flight")
		}
		if err := deps.Coordinator.Hydrate(c.Context()); err != nil {
			return errBadGateway(c, "plan service unavailable")
		}
		return c.JSON(deps.Coordinator.Snapshot())
	}
}

// normalizeQueryList splits a comma-separated query value, trimming blanks.
func normalizeQueryList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
