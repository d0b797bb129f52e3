// Package planner talks to the upstream itinerary generation service. The
// upstream is asynchronous: a submission returns a job code, results are
// fetched by polling, and geocoding lives behind a separate lookup endpoint.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alandyousif/safar/internal/core/domain"
)

const defaultTimeout = 30 * time.Second

// Client implements ports.PlannerClient over the upstream REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a planner client for the given base URL. A nil httpClient gets
// a default with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SubmitPlanRequest asks the upstream to start generating an itinerary. The
// job code comes back under "code_chat" or "code" depending on the upstream
// version; an empty handle means the response carried neither.
func (c *Client) SubmitPlanRequest(ctx context.Context, destination string, duration int, preferences []string) (domain.JobHandle, error) {
	endpoint := fmt.Sprintf("%s/api/request-travel-plan/%s/%d",
		c.baseURL, url.PathEscape(destination), duration)
	if len(preferences) > 0 {
		q := url.Values{}
		for _, p := range preferences {
			q.Add("preferences", p)
		}
		endpoint += "?" + q.Encode()
	}

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.JobHandle{}, err
	}

	var resp struct {
		CodeChat string `json:"code_chat"`
		Code     string `json:"code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.JobHandle{}, fmt.Errorf("decode submission response: %w", err)
	}

	code := resp.CodeChat
	if code == "" {
		code = resp.Code
	}
	return domain.JobHandle{Code: code}, nil
}

// FetchJobStatus returns the raw status payload for a job. The body shape
// varies while generation is in progress, so it is returned undecoded for
// the normalization pipeline to interpret.
func (c *Client) FetchJobStatus(ctx context.Context, code string) ([]byte, error) {
	return c.get(ctx, c.baseURL+"/api/geminidata/"+url.PathEscape(code))
}

// FetchExistingPlans returns all previously generated plans. When the
// primary endpoint is down the park fallback still provides a browsable
// default set.
func (c *Client) FetchExistingPlans(ctx context.Context) ([]byte, error) {
	body, err := c.get(ctx, c.baseURL+"/api/geminidata")
	if err == nil {
		return body, nil
	}
	fallback, ferr := c.get(ctx, c.baseURL+"/api/sami-park-osm")
	if ferr != nil {
		return nil, err
	}
	return fallback, nil
}

// FetchLocationLookup returns the geocoding results for a job's locations.
func (c *Client) FetchLocationLookup(ctx context.Context, code string) ([]domain.LocationLookup, error) {
	body, err := c.get(ctx, c.baseURL+"/api/get-location/"+url.PathEscape(code))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Locations []domain.LocationLookup `json:"locations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode location lookup: %w", err)
	}
	return resp.Locations, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("planner returned %d for %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
