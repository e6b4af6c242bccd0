package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cosmos/internal/models"
)

var ErrEpochNotFound = errors.New("epoch not found")

type EpochRepository struct {
	db *pgxpool.Pool
}

func NewEpochRepository(db *pgxpool.Pool) *EpochRepository {
	return &EpochRepository{db: db}
}

const epochColumns = `id, name, start_norm, end_norm, COALESCE(description, '')`

// List returns epochs in timeline order.
func (r *EpochRepository) List(ctx context.Context, limit, offset int) ([]models.Epoch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+epochColumns+`
		FROM epochs
		ORDER BY start_norm, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Epoch, 0, limit)
	for rows.Next() {
		var e models.Epoch
		if err := rows.Scan(&e.ID, &e.Name, &e.StartNorm, &e.EndNorm, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EpochRepository) Get(ctx context.Context, id int64) (*models.Epoch, error) {
	var e models.Epoch
	err := r.db.QueryRow(ctx, `
		SELECT `+epochColumns+`
		FROM epochs
		WHERE id=$1
	`, id).Scan(&e.ID, &e.Name, &e.StartNorm, &e.EndNorm, &e.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEpochNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Annotations returns the notes of an epoch ordered by time mark. An
// unknown epoch yields ErrEpochNotFound rather than an empty list.
func (r *EpochRepository) Annotations(ctx context.Context, epochID int64) ([]models.Annotation, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM epochs WHERE id=$1)`, epochID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEpochNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, epoch_id, title, content, time_mark
		FROM annotations
		WHERE epoch_id=$1
		ORDER BY time_mark, id
	`, epochID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Annotation{}
	for rows.Next() {
		var a models.Annotation
		if err := rows.Scan(&a.ID, &a.EpochID, &a.Title, &a.Content, &a.TimeMark); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
