package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cosmos/internal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, COALESCE(description, ''), COALESCE(time_range, ''),
	COALESCE(category, ''), time_norm, COALESCE(media_url, ''), epoch_id`

// List returns events ordered along the timeline.
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]models.Subject, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+eventColumns+`
		FROM cosmic_events
		ORDER BY time_norm, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Subject, 0, limit)
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *EventRepository) Get(ctx context.Context, id int64) (*models.Subject, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM cosmic_events
		WHERE id=$1
	`, id)

	s, err := scanSubject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanSubject(row pgx.Row) (models.Subject, error) {
	var s models.Subject
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.TimeRange,
		&s.Category,
		&s.TimeNorm,
		&s.MediaURL,
		&s.EpochID,
	)
	return s, err
}
