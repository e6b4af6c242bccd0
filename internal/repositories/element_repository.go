package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cosmos/internal/models"
)

var ErrElementNotFound = errors.New("element not found")

type ElementRepository struct {
	db *pgxpool.Pool
}

func NewElementRepository(db *pgxpool.Pool) *ElementRepository {
	return &ElementRepository{db: db}
}

const elementColumns = `id, name, type, COALESCE(description, ''),
	COALESCE(charge_range, ''), mass_gev, COALESCE(genesis_time, '')`

// List returns elements ordered by name.
func (r *ElementRepository) List(ctx context.Context, limit, offset int) ([]models.Element, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+elementColumns+`
		FROM elements
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Element, 0, limit)
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ElementRepository) Get(ctx context.Context, id int64) (*models.Element, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+elementColumns+`
		FROM elements
		WHERE id=$1
	`, id)

	e, err := scanElement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrElementNotFound
		}
		return nil, err
	}
	return &e, nil
}

func scanElement(row pgx.Row) (models.Element, error) {
	var e models.Element
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Type,
		&e.Description,
		&e.ChargeRange,
		&e.MassGeV,
		&e.GenesisTime,
	)
	return e, err
}
