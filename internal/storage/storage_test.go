package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/models"
)

func TestNewMemory_RostersShareEvents(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	ev := &models.Event{Title: "Meetup", Date: time.Now(), Location: "HQ"}
	require.NoError(t, s.Events.Create(ctx, ev))
	require.NoError(t, s.Roster(models.RosterWaitlist).Create(ctx, &models.Registration{EventID: ev.ID, UserEmail: "w@x.com"}))

	waitlist, err := s.Waitlist.ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, waitlist, 1)
	registered, err := s.Roster(models.RosterRegistrations).ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, registered)

	require.NoError(t, s.Events.Delete(ctx, ev.ID))
	waitlist, err = s.Waitlist.ListByEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, waitlist)
}
