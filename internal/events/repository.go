package events

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/database"
)

const eventColumns = `id, title, description, date, location, capacity, created_at, updated_at`

// Repository handles event persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity, &e.CreatedAt, &e.UpdatedAt)
}

// List returns all events in insertion order.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var e models.Event
	err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if err != nil {
		return nil, database.MapError(err)
	}
	return &e, nil
}

// Create inserts a new event. created_at and updated_at come from the same NOW().
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, date, location, capacity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Date, e.Location, e.Capacity).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update replaces the writable fields. updated_at always moves forward, even within one clock tick.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events
		SET title = $1, description = $2, date = $3, location = $4, capacity = $5,
			updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
		WHERE id = $6
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Date, e.Location, e.Capacity, e.ID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return database.MapError(err)
}

// Delete removes an event together with its registrations and waitlist entries in one transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return database.MapError(err)
		}
		for _, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+roster.Table()+` WHERE event_id = $1`, id); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		return err
	})
}
