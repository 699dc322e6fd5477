package registrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventreg/backend/internal/models"
	"github.com/eventreg/backend/internal/storage/memory"
)

type notification struct {
	roster models.Roster
	event  int64
	email  string
}

type recordingNotifier struct{ got []notification }

func (n *recordingNotifier) EntryCreated(ctx context.Context, roster models.Roster, ev *models.Event, entry *models.Registration) {
	n.got = append(n.got, notification{roster: roster, event: ev.ID, email: entry.UserEmail})
}

type testServer struct {
	engine   *gin.Engine
	store    *memory.Store
	notifier *recordingNotifier
	eventID  int64
}

func setup(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	notifier := &recordingNotifier{}

	ev := &models.Event{Title: "Meetup", Description: "desc", Date: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), Location: "HQ", Capacity: 1}
	require.NoError(t, store.Events().Create(context.Background(), ev))

	r := gin.New()
	for _, roster := range []models.Roster{models.RosterRegistrations, models.RosterWaitlist} {
		h := NewHandler(roster, store.Roster(roster), store.Events(), notifier, nil)
		base := "/events/:id/" + string(roster) + "/"
		r.GET(base, h.List)
		r.POST(base, h.Create)
		r.GET(base+":entryId/", h.GetByID)
		r.PUT(base+":entryId/", h.Update)
		r.DELETE(base+":entryId/", h.Delete)
	}
	return testServer{engine: r, store: store, notifier: notifier, eventID: ev.ID}
}

func doReq(s *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.ServeHTTP(w, req)
	return w
}

func TestCreateEntry_201(t *testing.T) {
	ts := setup(t)

	w := doReq(ts.engine, http.MethodPost, "/events/1/registrations/", `{"user_email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.EqualValues(t, 1, raw["id"])
	assert.EqualValues(t, 1, raw["event"])
	assert.Equal(t, "a@x.com", raw["user_email"])
	assert.Contains(t, raw, "created_at")

	require.Len(t, ts.notifier.got, 1)
	assert.Equal(t, notification{roster: models.RosterRegistrations, event: 1, email: "a@x.com"}, ts.notifier.got[0])
}

func TestCreateEntry_NoCapacityCheck(t *testing.T) {
	ts := setup(t)
	for _, email := range []string{"a@x.com", "b@x.com", "a@x.com"} {
		w := doReq(ts.engine, http.MethodPost, "/events/1/registrations/", `{"user_email":"`+email+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	list, err := ts.store.Roster(models.RosterRegistrations).ListByEvent(context.Background(), ts.eventID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	waitlist, err := ts.store.Roster(models.RosterWaitlist).ListByEvent(context.Background(), ts.eventID)
	require.NoError(t, err)
	assert.Empty(t, waitlist)
}

func TestCreateEntry_Invalid(t *testing.T) {
	ts := setup(t)
	cases := map[string]int{
		`{ bad json`:             http.StatusBadRequest,
		`{}`:                     http.StatusBadRequest,
		`{"user_email":5}`:       http.StatusBadRequest,
		`{"user_email":"alice"}`: http.StatusBadRequest,
		`{"user_email":null}`:    http.StatusBadRequest,
	}
	for body, want := range cases {
		w := doReq(ts.engine, http.MethodPost, "/events/1/waitlist/", body)
		assert.Equal(t, want, w.Code, body)
	}
	assert.Empty(t, ts.notifier.got)
}

func TestCreateEntry_UnknownEvent_404(t *testing.T) {
	ts := setup(t)
	w := doReq(ts.engine, http.MethodPost, "/events/42/waitlist/", `{"user_email":"a@x.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doReq(ts.engine, http.MethodGet, "/events/42/waitlist/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEntries(t *testing.T) {
	ts := setup(t)
	w := doReq(ts.engine, http.MethodGet, "/events/1/waitlist/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	doReq(ts.engine, http.MethodPost, "/events/1/waitlist/", `{"user_email":"a@x.com"}`)
	doReq(ts.engine, http.MethodPost, "/events/1/waitlist/", `{"user_email":"b@x.com"}`)

	w = doReq(ts.engine, http.MethodGet, "/events/1/waitlist/", "")
	var list []models.Registration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "a@x.com", list[0].UserEmail)
	assert.Equal(t, "b@x.com", list[1].UserEmail)
}

func TestGetUpdateDeleteEntry(t *testing.T) {
	ts := setup(t)
	doReq(ts.engine, http.MethodPost, "/events/1/registrations/", `{"user_email":"a@x.com"}`)

	w := doReq(ts.engine, http.MethodGet, "/events/1/registrations/1/", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doReq(ts.engine, http.MethodPut, "/events/1/registrations/1/", `{"user_email":"new@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Registration
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "new@x.com", updated.UserEmail)
	assert.Equal(t, ts.eventID, updated.EventID)

	w = doReq(ts.engine, http.MethodPut, "/events/1/registrations/1/", `{"user_email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doReq(ts.engine, http.MethodDelete, "/events/1/registrations/1/", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doReq(ts.engine, http.MethodGet, "/events/1/registrations/1/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doReq(ts.engine, http.MethodDelete, "/events/1/registrations/1/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntry_WrongEventOrRoster_404(t *testing.T) {
	ts := setup(t)
	other := &models.Event{Title: "Other", Description: "", Date: time.Now(), Location: "B", Capacity: 3}
	require.NoError(t, ts.store.Events().Create(context.Background(), other))
	doReq(ts.engine, http.MethodPost, "/events/1/registrations/", `{"user_email":"a@x.com"}`)

	assert.Equal(t, http.StatusNotFound, doReq(ts.engine, http.MethodGet, "/events/2/registrations/1/", "").Code)
	assert.Equal(t, http.StatusNotFound, doReq(ts.engine, http.MethodGet, "/events/1/waitlist/1/", "").Code)
	assert.Equal(t, http.StatusNotFound, doReq(ts.engine, http.MethodGet, "/events/1/registrations/x/", "").Code)
}

func TestNewHandler_UnknownRosterPanics(t *testing.T) {
	store := memory.New()
	assert.Panics(t, func() {
		NewHandler(models.Roster("attendees"), store.Roster(models.RosterRegistrations), store.Events(), nil, nil)
	})
	assert.NotPanics(t, func() {
		NewHandler(models.RosterWaitlist, store.Roster(models.RosterWaitlist), store.Events(), nil, nil)
	})
}
