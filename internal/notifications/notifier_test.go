package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/queue"
)

func TestEntryCreated_EnqueuesPerRoster(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := queue.NewQueue(rdb, nil)
	n := NewQueueNotifier(q, nil)

	ev := &models.Event{ID: 3, Title: "Meetup"}
	n.EntryCreated(context.Background(), models.RosterRegistrations, ev, &models.Registration{ID: 1, EventID: 3, UserEmail: "a@x.com"})
	n.EntryCreated(context.Background(), models.RosterWaitlist, ev, &models.Registration{ID: 2, EventID: 3, UserEmail: "b@x.com"})

	var got []queue.EmailPayload
	for i := 0; i < 2; i++ {
		job, err := q.Dequeue(context.Background(), time.Second)
		require.NoError(t, err)
		require.NotNil(t, job)
		var p queue.EmailPayload
		require.NoError(t, json.Unmarshal(job.Payload, &p))
		got = append(got, p)
	}
	assert.Equal(t, queue.EmailPayload{EmailType: models.EmailTypeRegistrationConfirmation, EventID: 3, EventTitle: "Meetup", EntryID: 1, RecipientEmail: "a@x.com"}, got[0])
	assert.Equal(t, models.EmailTypeWaitlistConfirmation, got[1].EmailType)
	assert.Equal(t, "b@x.com", got[1].RecipientEmail)
}

type failingQueue struct{}

func (failingQueue) EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error {
	return errors.New("redis down")
}

func TestEntryCreated_EnqueueFailureLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewQueueNotifier(failingQueue{}, zap.New(core))

	n.EntryCreated(context.Background(), models.RosterWaitlist, &models.Event{ID: 1}, &models.Registration{ID: 5})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "enqueue confirmation failed", logs.All()[0].Message)
}
