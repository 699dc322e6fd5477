package models

import "time"

// EmailType for notification jobs.
const (
	EmailTypeRegistrationConfirmation = "registration_confirmation"
	EmailTypeWaitlistConfirmation     = "waitlist_confirmation"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusSent    = "sent"
	EmailLogStatusSkipped = "skipped"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records one delivery attempt of a notification email.
type EmailLog struct {
	ID             int64      `json:"id"`
	EventID        *int64     `json:"event_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
