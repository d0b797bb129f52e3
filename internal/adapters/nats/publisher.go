package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/alandyousif/safar/internal/core/domain"
)

// Publisher implements ports.PlanEventPublisher using NATS JetStream. Plan
// lifecycle events fan out to WebSocket relays and anything else that wants
// to follow job progress without polling the API.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// StateChangeEvent is published on every job state transition.
type StateChangeEvent struct {
	State     domain.JobState `json:"state"`
	JobCode   string          `json:"job_code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PlanReadyEvent is published once per completed plan.
type PlanReadyEvent struct {
	JobCode     string    `json:"job_code"`
	MarkerCount int       `json:"marker_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewPublisher connects to NATS and ensures the plan event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "PLAN_EVENTS",
		Subjects:  []string{"plans.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishStateChange(ctx context.Context, state domain.JobState, jobCode string) error {
	data, err := json.Marshal(StateChangeEvent{
		State:     state,
		JobCode:   jobCode,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("plans.state", data)
	return err
}

func (p *Publisher) PublishPlanReady(ctx context.Context, code string, markerCount int) error {
	data, err := json.Marshal(PlanReadyEvent{
		JobCode:     code,
		MarkerCount: markerCount,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish("plans.ready."+code, data)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
