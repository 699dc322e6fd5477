package emaillogs

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/events"
	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/response"
)

// Store reads and writes email logs.
type Store interface {
	Create(ctx context.Context, el *models.EmailLog) error
	ListByEvent(ctx context.Context, eventID int64) ([]models.EmailLog, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	repo   Store
	events events.Store
	logger *zap.Logger
}

// NewHandler creates an email logs handler.
func NewHandler(repo Store, eventStore events.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: eventStore, logger: logger}
}

// ListByEvent handles GET /events/:id/emails/.
func (h *Handler) ListByEvent(c *gin.Context) {
	id, ok := events.ParseID(c, "id")
	if !ok {
		response.NotFound(c, "event not found")
		return
	}
	if _, err := h.events.GetByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		h.logger.Error("load event failed", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	logs, err := h.repo.ListByEvent(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list email logs failed", zap.Error(err), zap.Int64("event_id", id))
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
