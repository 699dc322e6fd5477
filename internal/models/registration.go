package models

import "time"

// Roster names one of the per-event email lists.
type Roster string

const (
	RosterRegistrations Roster = "registrations"
	RosterWaitlist      Roster = "waitlist"
)

// Table returns the SQL table backing the roster.
func (r Roster) Table() string {
	if r == RosterWaitlist {
		return "waitlist"
	}
	return "registrations"
}

// Valid reports whether r is a known roster.
func (r Roster) Valid() bool {
	return r == RosterRegistrations || r == RosterWaitlist
}

// Registration is an email attached to an event, either as a confirmed
// registration or as a waitlist entry; both rosters share this shape.
type Registration struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}
