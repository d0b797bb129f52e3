package domain

import "time"

// JobState describes where the plan request lifecycle currently is.
type JobState string

const (
	StateIdle       JobState = "idle"
	StateSubmitting JobState = "submitting"
	StatePolling    JobState = "polling"
	StateReady      JobState = "ready"
	StateFailed     JobState = "failed"
)

// JobHandle identifies one in-flight generation request. It is created on
// submit, held until a ready payload is observed or the request is superseded
// or torn down, then discarded.
type JobHandle struct {
	Code string `json:"job_code"`
}

// StoredPlan is a completed plan persisted for the history listing.
type StoredPlan struct {
	ID          string      `json:"id"`
	JobCode     string      `json:"job_code"`
	Destination string      `json:"destination"`
	Itineraries []Itinerary `json:"itineraries"`
	CreatedAt   time.Time   `json:"created_at"`
}
