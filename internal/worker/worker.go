package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/queue"
)

// JobQueue is the subset of the Redis queue the processor needs.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// LogStore records delivery attempts.
type LogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
}

// Sender delivers one plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailProcessor consumes email jobs: render, send (or skip), record in email_logs, retry on failure.
type EmailProcessor struct {
	queue  JobQueue
	logs   LogStore
	sender Sender
	logger *zap.Logger

	// PollTimeout bounds each blocking dequeue, and so how quickly Run notices cancellation.
	PollTimeout time.Duration
	// Backoff is the pause after a failed job or dequeue error.
	Backoff time.Duration
}

// NewEmailProcessor creates an email processor. A nil sender records every job as skipped.
func NewEmailProcessor(q JobQueue, logs LogStore, sender Sender, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		queue:       q,
		logs:        logs,
		sender:      sender,
		logger:      logger,
		PollTimeout: 5 * time.Second,
		Backoff:     queue.RetryBackoff,
	}
}

// Render builds the subject and body for a confirmation email.
func Render(p queue.EmailPayload) (subject, body string) {
	switch p.EmailType {
	case models.EmailTypeWaitlistConfirmation:
		subject = fmt.Sprintf("Waitlist confirmation: %s", p.EventTitle)
		body = fmt.Sprintf("Hello,\n\nYou have been added to the waitlist for %q (event #%d).\nWe will let you know if a spot opens up.\n", p.EventTitle, p.EventID)
	default:
		subject = fmt.Sprintf("Registration confirmed: %s", p.EventTitle)
		body = fmt.Sprintf("Hello,\n\nYour registration for %q (event #%d) is confirmed.\nYour registration number is %d.\n", p.EventTitle, p.EventID, p.EntryID)
	}
	return subject, body
}

// Process executes one email job. A delivery failure is recorded and returned so the caller retries.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject, body := Render(payload)
	eventID := payload.EventID
	entry := &models.EmailLog{
		EventID:        &eventID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        subject,
	}

	var sendErr error
	switch {
	case p.sender == nil:
		entry.Status = models.EmailLogStatusSkipped
	default:
		sendErr = p.sender.Send(ctx, payload.RecipientEmail, subject, body)
		if sendErr != nil {
			entry.Status = models.EmailLogStatusFailed
			entry.ErrorMessage = sendErr.Error()
		} else {
			now := time.Now().UTC()
			entry.Status = models.EmailLogStatusSent
			entry.SentAt = &now
		}
	}

	if err := p.logs.Create(ctx, entry); err != nil {
		p.logger.Error("record email log failed", zap.Error(err), zap.String("job_id", job.ID))
	}
	if sendErr != nil {
		return fmt.Errorf("send: %w", sendErr)
	}
	p.logger.Info("email processed",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("status", entry.Status),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.pause(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.pause(ctx)
		}
	}
}

// Start runs the loop in its own goroutine. The returned channel is closed once Run has
// returned, so callers can wait for an in-flight job to be recorded after cancelling ctx.
func (p *EmailProcessor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()
	return done
}

func (p *EmailProcessor) pause(ctx context.Context) {
	if p.Backoff <= 0 {
		return
	}
	t := time.NewTimer(p.Backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
