package emaillogs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/internal/storage/memory"
)

func TestListByEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	ctx := context.Background()
	ev := &models.Event{Title: "Meetup", Date: time.Now(), Location: "HQ"}
	require.NoError(t, store.Events().Create(ctx, ev))
	for _, status := range []string{models.EmailLogStatusSkipped, models.EmailLogStatusSent} {
		require.NoError(t, store.EmailLogs().Create(ctx, &models.EmailLog{
			EventID: &ev.ID, EmailType: models.EmailTypeRegistrationConfirmation, RecipientEmail: "a@x.com", Status: status,
		}))
	}

	h := NewHandler(store.EmailLogs(), store.Events(), nil)
	r := gin.New()
	r.GET("/events/:id/emails/", h.ListByEvent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/1/emails/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.EmailLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, models.EmailLogStatusSent, logs[0].Status)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/2/emails/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
