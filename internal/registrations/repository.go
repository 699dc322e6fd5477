package registrations

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/database"
)

// Repository handles persistence of one roster table. Registrations and the waitlist
// share a row shape, so the table name is the only difference.
type Repository struct {
	pool  *pgxpool.Pool
	table string
}

// NewRepository creates a repository for the given roster.
func NewRepository(pool *pgxpool.Pool, roster models.Roster) *Repository {
	return &Repository{pool: pool, table: roster.Table()}
}

func scanEntry(row pgx.Row, r *models.Registration) error {
	return row.Scan(&r.ID, &r.EventID, &r.UserEmail, &r.CreatedAt)
}

// Create inserts an entry. A missing event surfaces as models.ErrNotFound via the foreign key.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	q := `INSERT INTO ` + r.table + ` (event_id, user_email) VALUES ($1, $2) RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, reg.EventID, reg.UserEmail).Scan(&reg.ID, &reg.CreatedAt)
	return database.MapError(err)
}

// GetByID returns an entry by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	var reg models.Registration
	q := `SELECT id, event_id, user_email, created_at FROM ` + r.table + ` WHERE id = $1`
	if err := scanEntry(r.pool.QueryRow(ctx, q, id), &reg); err != nil {
		return nil, database.MapError(err)
	}
	return &reg, nil
}

// Update replaces user_email and refreshes the rest of reg from the row.
func (r *Repository) Update(ctx context.Context, reg *models.Registration) error {
	q := `UPDATE ` + r.table + ` SET user_email = $1 WHERE id = $2 RETURNING id, event_id, user_email, created_at`
	return database.MapError(scanEntry(r.pool.QueryRow(ctx, q, reg.UserEmail, reg.ID), reg))
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByEvent returns all entries for an event, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	q := `SELECT id, event_id, user_email, created_at FROM ` + r.table + ` WHERE event_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Registration{}
	for rows.Next() {
		var reg models.Registration
		if err := scanEntry(rows, &reg); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
