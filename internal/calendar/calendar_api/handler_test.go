package calendar_api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-calendar/internal/calendar"
	"ms-calendar/internal/calendar/calendar_api"
	"ms-calendar/internal/calendar/db"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/models"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "calendar.db")
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	require.NoError(t, runner.RunMigrations())

	service := calendar.NewCalendarService(&db.DB{Bun: bunDB}, nil)
	handler := calendar_api.NewHandler(service)

	r := chi.NewRouter()
	r.Route("/api", handler.Routes)

	server := httptest.NewServer(r)
	t.Cleanup(func() {
		server.Close()
		bunDB.Close()
	})
	return server
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestUserEndpoints(t *testing.T) {
	server := setupServer(t)

	// Create a user.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/user", models.NewUser{Username: "Alice"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Alice", body["username"])
	assert.Greater(t, body["createdAt"].(float64), float64(0))

	// A name differing only in case conflicts.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/user", models.NewUser{Username: "alice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, false, body["success"])

	// Lookup is case-insensitive.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/user/ALICE", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Alice", body["username"])

	// Unknown user.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/user/bob", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Listing returns the single user.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/user", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	resp.Body.Close()
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Username)

	// Empty username is rejected before storage.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/user", models.NewUser{Username: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestEventLifecycle(t *testing.T) {
	server := setupServer(t)

	// Create.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/event", map[string]interface{}{
		"title":     "Standup",
		"startDate": 100,
		"endDate":   200,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)

	id := int64(body["id"].(float64))
	assert.Greater(t, id, int64(0))
	assert.Equal(t, "Standup", body["title"])

	// Nullable fields are present as explicit nulls, never omitted.
	for _, key := range []string{"description", "color", "locationLng", "locationLat", "locationName", "editedAt"} {
		value, present := body[key]
		assert.True(t, present, "expected %q in response", key)
		assert.Nil(t, value)
	}
	assert.Greater(t, body["createdAt"].(float64), float64(0))

	// An update breaking the date ordering is rejected...
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/event/%d", server.URL, id), map[string]interface{}{
		"endDate": 50,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// ...and the stored row is unchanged.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/event/%d", server.URL, id), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(200), body["endDate"])
	assert.Nil(t, body["editedAt"])

	// A valid partial update sets editedAt and keeps unspecified fields.
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/event/%d", server.URL, id), map[string]interface{}{
		"title": "Daily standup",
		"color": "#87d45d",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Daily standup", body["title"])
	assert.Equal(t, "#87d45d", body["color"])
	assert.Equal(t, float64(100), body["startDate"])
	assert.NotNil(t, body["editedAt"])

	// Delete, then the event is gone.
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/event/%d", server.URL, id), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/event/%d", server.URL, id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestEventValidationResponses(t *testing.T) {
	server := setupServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/event", map[string]interface{}{
		"startDate": 100,
		"endDate":   200,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "title")

	resp = doJSON(t, http.MethodPost, server.URL+"/api/event", map[string]interface{}{
		"title":       "Hike",
		"startDate":   100,
		"endDate":     200,
		"locationLng": 7.4142,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Contains(t, body["error"], "location")

	resp = doJSON(t, http.MethodGet, server.URL+"/api/event/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestListEventsWindow(t *testing.T) {
	server := setupServer(t)

	spans := [][2]int64{{400, 500}, {100, 200}, {150, 300}}
	for _, span := range spans {
		resp := doJSON(t, http.MethodPost, server.URL+"/api/event", map[string]interface{}{
			"title":     "Event",
			"startDate": span[0],
			"endDate":   span[1],
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Full listing is ordered by ascending start date.
	resp := doJSON(t, http.MethodGet, server.URL+"/api/event", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var events []models.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 3)
	assert.Equal(t, int64(100), events[0].StartDate)
	assert.Equal(t, int64(150), events[1].StartDate)
	assert.Equal(t, int64(400), events[2].StartDate)

	// Window keeps overlapping events only.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/event?from=250&to=450", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	events = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 2)
	assert.Equal(t, int64(150), events[0].StartDate)
	assert.Equal(t, int64(400), events[1].StartDate)

	// Half a window is rejected.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/event?from=250", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// An inverted window is rejected.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/event?from=450&to=250", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
