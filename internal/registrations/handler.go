package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/events"
	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/response"
	"github.com/eventreg/backend/pkg/utils"
)

// Store persists one roster (registrations or waitlist).
type Store interface {
	Create(ctx context.Context, r *models.Registration) error
	GetByID(ctx context.Context, id int64) (*models.Registration, error)
	Update(ctx context.Context, r *models.Registration) error
	Delete(ctx context.Context, id int64) error
	ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
}

// EventLookup resolves the parent event of a roster.
type EventLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Event, error)
}

// Notifier is told about every new roster entry. Failures are the notifier's to log.
type Notifier interface {
	EntryCreated(ctx context.Context, roster models.Roster, event *models.Event, entry *models.Registration)
}

// Handler serves one roster. Capacity is never consulted and entries are never promoted.
type Handler struct {
	roster   models.Roster
	repo     Store
	events   EventLookup
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a roster handler. notifier may be nil. It panics on an unknown roster.
func NewHandler(roster models.Roster, repo Store, eventLookup EventLookup, notifier Notifier, logger *zap.Logger) *Handler {
	if !roster.Valid() {
		panic(fmt.Sprintf("registrations: unknown roster %q", roster))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{roster: roster, repo: repo, events: eventLookup, notifier: notifier, logger: logger.With(zap.String("roster", string(roster)))}
}

// List handles GET /events/:id/{roster}/.
func (h *Handler) List(c *gin.Context) {
	ev, ok := h.loadEvent(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), ev.ID)
	if err != nil {
		h.logger.Error("list entries failed", zap.Error(err), zap.Int64("event_id", ev.ID))
		response.Internal(c, "failed to list entries")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

// Create handles POST /events/:id/{roster}/.
func (h *Handler) Create(c *gin.Context) {
	ev, ok := h.loadEvent(c)
	if !ok {
		return
	}
	email, ok := bindEmail(c)
	if !ok {
		return
	}
	entry := &models.Registration{EventID: ev.ID, UserEmail: email}
	if err := h.repo.Create(c.Request.Context(), entry); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("create entry failed", zap.Error(err), zap.Int64("event_id", ev.ID))
		response.Internal(c, "failed to create entry")
		return
	}
	if h.notifier != nil {
		h.notifier.EntryCreated(c.Request.Context(), h.roster, ev, entry)
	}
	response.Created(c, entry)
}

// GetByID handles GET /events/:id/{roster}/:entryId/.
func (h *Handler) GetByID(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	response.OK(c, entry)
}

// Update handles PUT /events/:id/{roster}/:entryId/. Only user_email is writable.
func (h *Handler) Update(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	email, ok := bindEmail(c)
	if !ok {
		return
	}
	entry.UserEmail = email
	if err := h.repo.Update(c.Request.Context(), entry); err != nil {
		h.entryError(c, err, "failed to update entry")
		return
	}
	response.OK(c, entry)
}

// Delete handles DELETE /events/:id/{roster}/:entryId/.
func (h *Handler) Delete(c *gin.Context) {
	entry, ok := h.loadEntry(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), entry.ID); err != nil {
		h.entryError(c, err, "failed to delete entry")
		return
	}
	response.NoContent(c)
}

func (h *Handler) loadEvent(c *gin.Context) (*models.Event, bool) {
	id, ok := events.ParseID(c, "id")
	if !ok {
		response.NotFound(c, "event not found")
		return nil, false
	}
	ev, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "event not found")
			return nil, false
		}
		h.logger.Error("load event failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to load event")
		return nil, false
	}
	return ev, true
}

// loadEntry resolves :entryId and checks it belongs to :id.
func (h *Handler) loadEntry(c *gin.Context) (*models.Registration, bool) {
	eventID, ok := events.ParseID(c, "id")
	if !ok {
		response.NotFound(c, "entry not found")
		return nil, false
	}
	entryID, ok := events.ParseID(c, "entryId")
	if !ok {
		response.NotFound(c, "entry not found")
		return nil, false
	}
	entry, err := h.repo.GetByID(c.Request.Context(), entryID)
	if err != nil {
		h.entryError(c, err, "failed to load entry")
		return nil, false
	}
	if entry.EventID != eventID {
		response.NotFound(c, "entry not found")
		return nil, false
	}
	return entry, true
}

func (h *Handler) entryError(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "entry not found")
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}

// bindEmail reads {"user_email": "..."}, the body of POST and PUT on a roster.
func bindEmail(c *gin.Context) (string, bool) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return "", false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		response.BadRequest(c, "request body must be a JSON object")
		return "", false
	}
	v, ok := raw["user_email"]
	if !ok {
		response.Validation(c, map[string]string{"user_email": "this field is required"})
		return "", false
	}
	var email string
	if err := json.Unmarshal(v, &email); err != nil {
		response.Validation(c, map[string]string{"user_email": "must be a string"})
		return "", false
	}
	if !utils.ValidEmail(email) {
		response.Validation(c, map[string]string{"user_email": "enter a valid email address"})
		return "", false
	}
	return email, true
}
