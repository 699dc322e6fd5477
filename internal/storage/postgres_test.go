package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/database"
)

// newPostgres connects to DATABASE_URL, applies migrations and empties every table.
func newPostgres(t *testing.T) Stores {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, nil))
	_, err = pool.Exec(ctx, `TRUNCATE email_logs, registrations, waitlist, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return NewPostgres(pool)
}

func createEvent(t *testing.T, s Stores) *models.Event {
	t.Helper()
	ev := &models.Event{Title: "Meetup", Description: "desc", Date: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Location: "HQ", Capacity: 50}
	require.NoError(t, s.Events.Create(context.Background(), ev))
	return ev
}

func TestPostgres_UpdatedAtStrictlyIncreases(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()
	ev := createEvent(t, s)
	assert.True(t, ev.CreatedAt.Equal(ev.UpdatedAt))
	created := ev.CreatedAt

	prev := ev.UpdatedAt
	for i := 0; i < 5; i++ {
		ev.Capacity = i
		require.NoError(t, s.Events.Update(ctx, ev))
		assert.True(t, ev.UpdatedAt.After(prev), "update %d: %s not after %s", i, ev.UpdatedAt, prev)
		assert.True(t, ev.CreatedAt.Equal(created))
		prev = ev.UpdatedAt
	}

	got, err := s.Events.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Capacity)
	assert.True(t, got.UpdatedAt.Equal(prev))

	assert.ErrorIs(t, s.Events.Update(ctx, &models.Event{ID: ev.ID + 100, Title: "x", Location: "y"}), models.ErrNotFound)
}

func TestPostgres_DeleteCascadesToRosters(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()
	gone := createEvent(t, s)
	keep := createEvent(t, s)

	var goneEntries []int64
	for _, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
		entry := &models.Registration{EventID: gone.ID, UserEmail: "a@x.com"}
		require.NoError(t, s.Roster(roster).Create(ctx, entry))
		goneEntries = append(goneEntries, entry.ID)
		require.NoError(t, s.Roster(roster).Create(ctx, &models.Registration{EventID: keep.ID, UserEmail: "b@x.com"}))
	}
	eventID := gone.ID
	require.NoError(t, s.EmailLogs.Create(ctx, &models.EmailLog{
		EventID: &eventID, EmailType: models.EmailTypeRegistrationConfirmation, RecipientEmail: "a@x.com", Status: models.EmailLogStatusSkipped,
	}))

	require.NoError(t, s.Events.Delete(ctx, gone.ID))

	_, err := s.Events.GetByID(ctx, gone.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	for i, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
		_, err := s.Roster(roster).GetByID(ctx, goneEntries[i])
		assert.ErrorIs(t, err, models.ErrNotFound, roster)
		list, err := s.Roster(roster).ListByEvent(ctx, keep.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1, roster)
	}
	logs, err := s.EmailLogs.ListByEvent(ctx, gone.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	assert.ErrorIs(t, s.Events.Delete(ctx, gone.ID), models.ErrNotFound)
}

func TestPostgres_EntryForMissingEventIsNotFound(t *testing.T) {
	s := newPostgres(t)
	for _, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
		err := s.Roster(roster).Create(context.Background(), &models.Registration{EventID: 424242, UserEmail: "a@x.com"})
		assert.ErrorIs(t, err, models.ErrNotFound, roster)
	}
}

func TestPostgres_EmailLogForMissingEventKeepsNoReference(t *testing.T) {
	s := newPostgres(t)
	missing := int64(424242)
	el := &models.EmailLog{EventID: &missing, EmailType: models.EmailTypeWaitlistConfirmation, RecipientEmail: "a@x.com", Status: models.EmailLogStatusFailed, ErrorMessage: "relay down"}
	require.NoError(t, s.EmailLogs.Create(context.Background(), el))
	assert.NotZero(t, el.ID)
	assert.Nil(t, el.EventID)
}

func TestPostgres_DuplicateUsernameConflict(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()
	require.NoError(t, s.Users.Create(ctx, &models.User{Username: "alice", Email: "a@x.com", Password: "hash"}))
	err := s.Users.Create(ctx, &models.User{Username: "alice", Email: "b@x.com", Password: "hash"})
	assert.ErrorIs(t, err, models.ErrConflict)

	u, err := s.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
}
