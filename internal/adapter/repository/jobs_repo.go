package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/lunapapa-finland/JSON-resume/internal/domain"
)

// JobsRepo stores render jobs in Postgres. A nil pool turns Save into a no-op
// and lookups into domain.ErrJobsDisabled.
type JobsRepo struct {
	pool *pgxpool.Pool
}

func NewJobsRepo(pool *pgxpool.Pool) *JobsRepo {
	return &JobsRepo{pool: pool}
}

func (r *JobsRepo) Enabled() bool { return r != nil && r.pool != nil }

func (r *JobsRepo) Save(ctx context.Context, j *domain.RenderJob) error {
	if !r.Enabled() {
		return nil
	}

	metaB, err := json.Marshal(j.Metadata)
	if err != nil {
		return fmt.Errorf("encode job metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `INSERT INTO render_jobs (id, source, status, error, metadata, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error, metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at`,
		j.ID, j.Source, string(j.Status), j.Error, metaB, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save render job %s: %w", j.ID, err)
	}
	return nil
}

// Get loads one job.
func (r *JobsRepo) Get(ctx context.Context, id uuid.UUID) (*domain.RenderJob, error) {
	if !r.Enabled() {
		return nil, domain.ErrJobsDisabled
	}
	var job domain.RenderJob
	err := queryJSON(ctx, r.pool, &job, `SELECT to_jsonb(j) FROM render_jobs j WHERE j.id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get render job %s: %w", id, err)
	}
	return &job, nil
}

// List returns the most recent jobs, newest first.
func (r *JobsRepo) List(ctx context.Context, limit int) ([]domain.RenderJob, error) {
	if !r.Enabled() {
		return nil, domain.ErrJobsDisabled
	}
	if limit <= 0 {
		limit = 50
	}
	jobs := []domain.RenderJob{}
	err := queryJSON(ctx, r.pool, &jobs,
		`SELECT coalesce(json_agg(row_to_json(j) ORDER BY j.created_at DESC), '[]')
		FROM (SELECT * FROM render_jobs ORDER BY created_at DESC LIMIT $1) j`, limit)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	return jobs, nil
}

// queryJSON runs a query returning a single json value and decodes it into out.
func queryJSON(ctx context.Context, pool *pgxpool.Pool, out interface{}, sql string, args ...interface{}) error {
	var raw []byte
	if err := pool.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
