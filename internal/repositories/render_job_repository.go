package repositories

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cosmos/internal/models"
)

var ErrRenderJobNotFound = errors.New("render job not found")

// MaxMessageLen bounds stored job messages.
const MaxMessageLen = 2000

type RenderJobRepository struct {
	db *pgxpool.Pool
}

func NewRenderJobRepository(db *pgxpool.Pool) *RenderJobRepository {
	return &RenderJobRepository{db: db}
}

const renderJobColumns = `id, event_id, epoch_id, time_norm, status, COALESCE(message, ''),
	COALESCE(output_key, ''), params, created_at, updated_at`

// Create inserts job as queued and fills in its id and timestamps.
func (r *RenderJobRepository) Create(ctx context.Context, job *models.RenderJob) error {
	if job.Params == nil {
		job.Params = map[string]any{}
	}
	job.Status = models.JobQueued

	return r.db.QueryRow(ctx, `
		INSERT INTO render_jobs (event_id, epoch_id, time_norm, status, message, params)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at
	`, job.EventID, job.EpochID, job.TimeNorm, string(job.Status), nullIfEmpty(job.Message), job.Params).
		Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

func (r *RenderJobRepository) Get(ctx context.Context, id int64) (*models.RenderJob, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+renderJobColumns+`
		FROM render_jobs
		WHERE id=$1
	`, id)

	job, err := scanRenderJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRenderJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// List returns the most recent jobs first.
func (r *RenderJobRepository) List(ctx context.Context, limit, offset int) ([]models.RenderJob, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+renderJobColumns+`
		FROM render_jobs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RenderJob, 0, limit)
	for rows.Next() {
		job, err := scanRenderJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *RenderJobRepository) MarkProcessing(ctx context.Context, id int64, message string) error {
	return r.setStatus(ctx, id, models.JobProcessing, message, "")
}

func (r *RenderJobRepository) MarkDone(ctx context.Context, id int64, message, outputKey string) error {
	return r.setStatus(ctx, id, models.JobDone, message, outputKey)
}

// MarkFailed stores message truncated to MaxMessageLen.
func (r *RenderJobRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	return r.setStatus(ctx, id, models.JobFailed, Truncate(message, MaxMessageLen), "")
}

func (r *RenderJobRepository) setStatus(ctx context.Context, id int64, status models.JobStatus, message, outputKey string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE render_jobs
		SET status=$2, message=$3, output_key=COALESCE($4, output_key), updated_at=now()
		WHERE id=$1
	`, id, string(status), nullIfEmpty(message), nullIfEmpty(outputKey))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRenderJobNotFound
	}
	return nil
}

func scanRenderJob(row pgx.Row) (models.RenderJob, error) {
	var job models.RenderJob
	var status string
	err := row.Scan(
		&job.ID,
		&job.EventID,
		&job.EpochID,
		&job.TimeNorm,
		&status,
		&job.Message,
		&job.OutputKey,
		&job.Params,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	job.Status = models.JobStatus(status)
	return job, err
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
