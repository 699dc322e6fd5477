// Package notifications turns new roster entries into queued confirmation emails.
package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/queue"
)

// Enqueuer accepts email jobs.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// QueueNotifier enqueues a confirmation email per new entry. Enqueue errors are
// logged and dropped so the HTTP request still succeeds.
type QueueNotifier struct {
	queue  Enqueuer
	logger *zap.Logger
}

// NewQueueNotifier creates a notifier backed by the job queue.
func NewQueueNotifier(q Enqueuer, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{queue: q, logger: logger}
}

// EmailTypeFor maps a roster to the confirmation email it triggers.
func EmailTypeFor(roster models.Roster) string {
	if roster == models.RosterWaitlist {
		return models.EmailTypeWaitlistConfirmation
	}
	return models.EmailTypeRegistrationConfirmation
}

// EntryCreated enqueues the confirmation for entry.
func (n *QueueNotifier) EntryCreated(ctx context.Context, roster models.Roster, event *models.Event, entry *models.Registration) {
	payload := queue.EmailPayload{
		EmailType:      EmailTypeFor(roster),
		EventID:        event.ID,
		EventTitle:     event.Title,
		EntryID:        entry.ID,
		RecipientEmail: entry.UserEmail,
	}
	if err := n.queue.EnqueueEmail(ctx, payload); err != nil {
		n.logger.Warn("enqueue confirmation failed",
			zap.Error(err),
			zap.String("email_type", payload.EmailType),
			zap.Int64("event_id", event.ID),
			zap.Int64("entry_id", entry.ID),
		)
	}
}
