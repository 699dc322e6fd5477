// Package memory is an in-process storage backend with the same semantics as the
// PostgreSQL repositories: surrogate int64 ids, server-set timestamps, cascade delete
// from events to both rosters, and a unique username.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventreg/backend/internal/models"
)

// Store holds every table. Use the accessor methods to get per-table views.
type Store struct {
	mu sync.RWMutex

	seq       map[string]int64
	events    map[int64]models.Event
	rosters   map[models.Roster]map[int64]models.Registration
	users     map[int64]models.User
	emailLogs map[int64]models.EmailLog

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		seq:    make(map[string]int64),
		events: make(map[int64]models.Event),
		rosters: map[models.Roster]map[int64]models.Registration{
			models.RosterRegistrations: {},
			models.RosterWaitlist:      {},
		},
		users:     make(map[int64]models.User),
		emailLogs: make(map[int64]models.EmailLog),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// timestamp mirrors TIMESTAMPTZ precision.
func (s *Store) timestamp() time.Time {
	return s.now().Truncate(time.Microsecond)
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Events returns the events table.
func (s *Store) Events() *EventStore { return &EventStore{s: s} }

// Roster returns the registrations or waitlist table.
func (s *Store) Roster(r models.Roster) *RosterStore { return &RosterStore{s: s, roster: r} }

// Users returns the users table.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// EmailLogs returns the email_logs table.
func (s *Store) EmailLogs() *EmailLogStore { return &EmailLogStore{s: s} }

// EventStore is the events table view.
type EventStore struct{ s *Store }

// List returns events in insertion order.
func (e *EventStore) List(ctx context.Context) ([]models.Event, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	list := make([]models.Event, 0, len(e.s.events))
	for _, ev := range e.s.events {
		list = append(list, ev)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// GetByID returns one event.
func (e *EventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e.s.mu.RLock()
	defer e.s.mu.RUnlock()
	ev, ok := e.s.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &ev, nil
}

// Create inserts ev, assigning ID and both timestamps.
func (e *EventStore) Create(ctx context.Context, ev *models.Event) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	now := e.s.timestamp()
	ev.ID = e.s.nextID("events")
	ev.CreatedAt, ev.UpdatedAt = now, now
	e.s.events[ev.ID] = *ev
	return nil
}

// Update replaces the mutable fields of ev and advances UpdatedAt.
func (e *EventStore) Update(ctx context.Context, ev *models.Event) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	cur, ok := e.s.events[ev.ID]
	if !ok {
		return models.ErrNotFound
	}
	updated := e.s.timestamp()
	if !updated.After(cur.UpdatedAt) {
		updated = cur.UpdatedAt.Add(time.Microsecond)
	}
	ev.CreatedAt = cur.CreatedAt
	ev.UpdatedAt = updated
	e.s.events[ev.ID] = *ev
	return nil
}

// Delete removes the event and every roster row referencing it.
func (e *EventStore) Delete(ctx context.Context, id int64) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	if _, ok := e.s.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(e.s.events, id)
	for _, rows := range e.s.rosters {
		for rid, r := range rows {
			if r.EventID == id {
				delete(rows, rid)
			}
		}
	}
	for lid, l := range e.s.emailLogs {
		if l.EventID != nil && *l.EventID == id {
			l.EventID = nil
			e.s.emailLogs[lid] = l
		}
	}
	return nil
}

// RosterStore is the registrations or waitlist table view.
type RosterStore struct {
	s      *Store
	roster models.Roster
}

func (r *RosterStore) rows() map[int64]models.Registration {
	return r.s.rosters[r.roster]
}

// Create inserts reg. The referenced event must exist.
func (r *RosterStore) Create(ctx context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[reg.EventID]; !ok {
		return models.ErrNotFound
	}
	reg.ID = r.s.nextID(r.roster.Table())
	reg.CreatedAt = r.s.timestamp()
	r.rows()[reg.ID] = *reg
	return nil
}

// GetByID returns one entry.
func (r *RosterStore) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reg, ok := r.rows()[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &reg, nil
}

// Update replaces the user_email of an entry.
func (r *RosterStore) Update(ctx context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.rows()[reg.ID]
	if !ok {
		return models.ErrNotFound
	}
	cur.UserEmail = reg.UserEmail
	r.rows()[reg.ID] = cur
	*reg = cur
	return nil
}

// Delete removes one entry.
func (r *RosterStore) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.rows()[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.rows(), id)
	return nil
}

// ListByEvent returns the entries of one event, oldest first.
func (r *RosterStore) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := []models.Registration{}
	for _, reg := range r.rows() {
		if reg.EventID == eventID {
			list = append(list, reg)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// UserStore is the users table view.
type UserStore struct{ s *Store }

// Create inserts u. Usernames are unique.
func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username {
			return models.ErrConflict
		}
	}
	user.ID = u.s.nextID("users")
	user.CreatedAt = u.s.timestamp()
	u.s.users[user.ID] = *user
	return nil
}

// GetByID returns one user.
func (u *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &user, nil
}

// GetByUsername returns the user with exactly this username.
func (u *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, models.ErrNotFound
}

// EmailLogStore is the email_logs table view.
type EmailLogStore struct{ s *Store }

// Create inserts a log row. A reference to a missing event is stored as nil.
func (l *EmailLogStore) Create(ctx context.Context, log *models.EmailLog) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if log.EventID != nil {
		if _, ok := l.s.events[*log.EventID]; !ok {
			log.EventID = nil
		}
	}
	log.ID = l.s.nextID("email_logs")
	log.CreatedAt = l.s.timestamp()
	l.s.emailLogs[log.ID] = *log
	return nil
}

// ListByEvent returns the logs of one event, newest first.
func (l *EmailLogStore) ListByEvent(ctx context.Context, eventID int64) ([]models.EmailLog, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	list := []models.EmailLog{}
	for _, log := range l.s.emailLogs {
		if log.EventID != nil && *log.EventID == eventID {
			list = append(list, log)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}
