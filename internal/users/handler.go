package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventreg/backend/internal/events"
	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/pkg/response"
	"github.com/eventreg/backend/pkg/utils"
)

// ErrInvalidCredentials is the only message a failed login ever returns, whether the
// username is unknown or the password is wrong.
const ErrInvalidCredentials = "Invalid credentials"

const maxUsername = 150

// Store persists users. Create returns models.ErrConflict for a taken username.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler handles account HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register handles POST /users/register.
func (h *Handler) Register(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	problems := map[string]string{}
	username := stringField(raw, "username", problems)
	email := stringField(raw, "email", problems)
	password := stringField(raw, "password", problems)
	if _, bad := problems["username"]; !bad {
		switch {
		case strings.TrimSpace(username) == "":
			problems["username"] = "may not be blank"
		case utf8.RuneCountInString(username) > maxUsername:
			problems["username"] = "must be at most 150 characters"
		}
	}
	if _, bad := problems["email"]; !bad && !utils.ValidEmail(email) {
		problems["email"] = "enter a valid email address"
	}
	if _, bad := problems["password"]; !bad {
		switch {
		case password == "":
			problems["password"] = "may not be blank"
		case len(password) > utils.MaxPasswordBytes:
			problems["password"] = "must be at most 72 bytes"
		}
	}
	if len(problems) > 0 {
		response.Validation(c, problems)
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		h.logger.Error("hash password failed", zap.Error(err))
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{Username: username, Email: email, Password: hash}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			response.Conflict(c, "username already taken")
			return
		}
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	response.Created(c, user.ToSummary())
}

// Login handles POST /users/login.
func (h *Handler) Login(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	problems := map[string]string{}
	username := stringField(raw, "username", problems)
	password := stringField(raw, "password", problems)
	if len(problems) > 0 {
		response.Validation(c, problems)
		return
	}

	user, err := h.repo.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.logger.Error("lookup user failed", zap.Error(err))
			response.Internal(c, "failed to log in")
			return
		}
		utils.BurnPasswordCheck(password)
		response.BadRequest(c, ErrInvalidCredentials)
		return
	}

	if !utils.CheckPassword(password, user.Password) {
		response.BadRequest(c, ErrInvalidCredentials)
		return
	}

	c.JSON(http.StatusOK, user.ToSummary())
}

// Profile handles GET /users/:id/profile. Any caller may read any profile.
func (h *Handler) Profile(c *gin.Context) {
	id, ok := events.ParseID(c, "id")
	if !ok {
		response.NotFound(c, "user not found")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		h.logger.Error("load user failed", zap.Error(err), zap.Int64("user_id", id))
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, user.ToProfile())
}

func bindObject(c *gin.Context) (map[string]json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		response.BadRequest(c, "request body must be a JSON object")
		return nil, false
	}
	return raw, true
}

func stringField(raw map[string]json.RawMessage, key string, problems map[string]string) string {
	v, ok := raw[key]
	if !ok {
		problems[key] = "this field is required"
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil || string(v) == "null" {
		problems[key] = "must be a string"
		return ""
	}
	return s
}
