// Package storage selects the persistence backend for every table.
package storage

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventreg/backend/internal/emaillogs"
	"github.com/eventreg/backend/internal/events"
	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/internal/registrations"
	"github.com/eventreg/backend/internal/storage/memory"
	"github.com/eventreg/backend/internal/users"
)

// Stores groups the per-table stores the handlers and worker depend on.
type Stores struct {
	Events        events.Store
	Registrations registrations.Store
	Waitlist      registrations.Store
	Users         users.Store
	EmailLogs     emaillogs.Store
}

// Roster returns the store for r.
func (s Stores) Roster(r models.Roster) registrations.Store {
	if r == models.RosterWaitlist {
		return s.Waitlist
	}
	return s.Registrations
}

// NewPostgres returns stores backed by pgx repositories.
func NewPostgres(pool *pgxpool.Pool) Stores {
	return Stores{
		Events:        events.NewRepository(pool),
		Registrations: registrations.NewRepository(pool, models.RosterRegistrations),
		Waitlist:      registrations.NewRepository(pool, models.RosterWaitlist),
		Users:         users.NewRepository(pool),
		EmailLogs:     emaillogs.NewRepository(pool),
	}
}

// NewMemory returns stores backed by a fresh in-process store.
func NewMemory() Stores {
	m := memory.New()
	return Stores{
		Events:        m.Events(),
		Registrations: m.Roster(models.RosterRegistrations),
		Waitlist:      m.Roster(models.RosterWaitlist),
		Users:         m.Users(),
		EmailLogs:     m.EmailLogs(),
	}
}
