package events

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/response"
)

// Store persists events. Delete removes the event's registrations and waitlist entries too.
type Store interface {
	List(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int64) error
}

// CachePurger drops cached event responses after a write.
type CachePurger interface {
	PurgeEvents(ctx context.Context)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store  Store
	cache  CachePurger
	logger *zap.Logger
}

// NewHandler creates an event handler. cache may be nil.
func NewHandler(store Store, cache CachePurger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cache: cache, logger: logger}
}

// ParseID reads a positive int64 path parameter. Anything else cannot name a row.
func ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// List handles GET /events/.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id/.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "failed to load event")
		return
	}
	response.OK(c, e)
}

// Create handles POST /events/.
func (h *Handler) Create(c *gin.Context) {
	f, ok := h.bind(c, false)
	if !ok {
		return
	}
	e := &models.Event{
		Title:       *f.Title,
		Description: *f.Description,
		Date:        *f.Date,
		Location:    *f.Location,
		Capacity:    *f.Capacity,
	}
	if err := h.store.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	h.purge(c)
	response.Created(c, e)
}

// Replace handles PUT /events/:id/. Every writable field must be supplied.
func (h *Handler) Replace(c *gin.Context) {
	h.update(c, false)
}

// Patch handles PATCH /events/:id/. Only supplied fields change.
func (h *Handler) Patch(c *gin.Context) {
	h.update(c, true)
}

func (h *Handler) update(c *gin.Context, partial bool) {
	id, ok := ParseID(c, "id")
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	e, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "failed to load event")
		return
	}
	f, ok := h.bind(c, partial)
	if !ok {
		return
	}
	if f.Title != nil {
		e.Title = *f.Title
	}
	if f.Description != nil {
		e.Description = *f.Description
	}
	if f.Date != nil {
		e.Date = *f.Date
	}
	if f.Location != nil {
		e.Location = *f.Location
	}
	if f.Capacity != nil {
		e.Capacity = *f.Capacity
	}
	if err := h.store.Update(c.Request.Context(), e); err != nil {
		h.storeError(c, err, "failed to update event")
		return
	}
	h.purge(c)
	response.OK(c, e)
}

// Delete handles DELETE /events/:id/.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		h.storeError(c, err, "failed to delete event")
		return
	}
	h.purge(c)
	response.NoContent(c)
}

func (h *Handler) bind(c *gin.Context, partial bool) (fields, bool) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return fields{}, false
	}
	f, problems, err := decodeFields(body, partial)
	if err != nil {
		response.BadRequest(c, err.Error())
		return fields{}, false
	}
	if problems != nil {
		response.Validation(c, problems)
		return fields{}, false
	}
	return f, true
}

func (h *Handler) storeError(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "event not found")
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}

func (h *Handler) purge(c *gin.Context) {
	if h.cache != nil {
		h.cache.PurgeEvents(c.Request.Context())
	}
}
