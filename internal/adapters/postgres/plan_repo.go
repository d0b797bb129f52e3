package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alandyousif/safar/internal/core/domain"
)

// PlanRepo implements ports.PlanRepository with pgx. Itineraries are stored
// as a jsonb document: the canonical form is already the unit the rest of
// the system works with, and history reads never filter inside it.
type PlanRepo struct {
	db *DB
}

// NewPlanRepo creates a new PlanRepo.
func NewPlanRepo(db *DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Save persists a completed plan and fills in its generated ID and creation
// timestamp.
func (r *PlanRepo) Save(ctx context.Context, p *domain.StoredPlan) error {
	doc, err := json.Marshal(p.Itineraries)
	if err != nil {
		return fmt.Errorf("encode itineraries: %w", err)
	}

	err = r.db.Pool.QueryRow(ctx, `
		INSERT INTO plans (job_code, destination, itineraries)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, p.JobCode, p.Destination, doc).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// List returns stored plans newest first, plus the total count for
// pagination headers.
func (r *PlanRepo) List(ctx context.Context, offset, limit int) ([]domain.StoredPlan, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plans: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, job_code, destination, itineraries, created_at
		FROM plans
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.StoredPlan
	for rows.Next() {
		var p domain.StoredPlan
		var doc []byte
		if err := rows.Scan(&p.ID, &p.JobCode, &p.Destination, &doc, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan plan: %w", err)
		}
		if err := json.Unmarshal(doc, &p.Itineraries); err != nil {
			return nil, 0, fmt.Errorf("decode itineraries: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, total, rows.Err()
}
