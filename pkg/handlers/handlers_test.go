package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arnavshah/oncall-api-go/pkg/auth"
	"github.com/arnavshah/oncall-api-go/pkg/classifier"
	"github.com/arnavshah/oncall-api-go/pkg/database"
	"github.com/arnavshah/oncall-api-go/pkg/directory"
	"github.com/arnavshah/oncall-api-go/pkg/history"
	"github.com/arnavshah/oncall-api-go/pkg/metrics"
	"github.com/arnavshah/oncall-api-go/pkg/models"
	"github.com/arnavshah/oncall-api-go/pkg/oncall"
	"github.com/arnavshah/oncall-api-go/pkg/roster"
	"github.com/arnavshah/oncall-api-go/pkg/selector"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingRoster struct{}

func (failingRoster) Load(context.Context) ([]models.ShiftEntry, error) {
	return nil, errors.New("shifts.json: permission denied")
}

func newTestHandler(t *testing.T, llmAnswer string) *Handler {
	t.Helper()

	db, err := database.Open(database.Options{SQLitePath: filepath.Join(t.TempDir(), "api.db"), Quiet: true})
	require.NoError(t, err)

	dir := directory.New([]models.Building{
		{Building: "Dodge Hall", Code: "DG", Zone: "North"},
		{Building: "Snell Library", Code: "SL", Zone: "South"},
	})
	store := history.NewMemoryStore(nil)
	m := metrics.New()

	svc := &oncall.Service{
		Directory: dir,
		Roster: roster.Static{
			{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Alice"},
			{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Bob"},
		},
		Selector:   selector.New(store, selector.WithLocation(time.UTC), selector.WithRand(rand.New(rand.NewSource(1)))),
		History:    store,
		Classifier: classifier.New(classifier.StaticClient{Response: llmAnswer}, dir, nil),
		Metrics:    m,
		Now:        func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) },
	}

	return &Handler{
		DB:      db,
		Auth:    auth.New("jwt-secret", "master-secret"),
		Service: svc,
		Metrics: m,
	}
}

func do(t *testing.T, r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSuggestPerson(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))

	w := do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp models.SuggestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Alice", "Bob"}, resp.OnShift)
	assert.Contains(t, []string{"Alice", "Bob"}, resp.Suggested)
	assert.Equal(t, "North", resp.Zone)
	assert.True(t, strings.HasPrefix(resp.Textual, "There are 2 people on shift now Alice, Bob"))
}

func TestSuggestPerson_NobodyOnShift(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))

	w := do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "SL"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"on_shift": [],
		"suggested": "NA",
		"textual": "No one is currently on shift.",
		"building": "Snell Library",
		"code": "SL",
		"zone": "South"
	}`, w.Body.String())
}

func TestSuggestPerson_Errors(t *testing.T) {
	h := newTestHandler(t, "")
	r := NewRouter(h)

	w := do(t, r, http.MethodPost, "/api/suggest-person", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Hogwarts"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	h.Service.Roster = failingRoster{}
	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.Contains(t, w.Body.String(), "permission denied")
}

func TestDetectEndpoints(t *testing.T) {
	r := NewRouter(newTestHandler(t, "Dodge Hall"))
	issue := models.IssueInput{ShortDescription: "Projector", Description: "DG-101 projector broken"}

	w := do(t, r, http.MethodPost, "/api/detect-building", issue, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"building": "Dodge Hall", "code": "DG", "zone": "North"}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/suggest-from-text", issue, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"zone":"North"`)

	r = NewRouter(newTestHandler(t, "zone_not_found"))
	w = do(t, r, http.MethodPost, "/api/detect-zone", issue, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDetect_ClassifierDown(t *testing.T) {
	h := newTestHandler(t, "")
	h.Service.Classifier = classifier.New(classifier.StaticClient{Err: errors.New("429")}, h.Service.Directory, nil)

	w := do(t, NewRouter(h), http.MethodPost, "/api/detect-building", models.IssueInput{Description: "x"}, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestListings(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))

	w := do(t, r, http.MethodGet, "/api/buildings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)

	w = do(t, r, http.MethodGet, "/api/zones", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"zone":"North"`)

	w = do(t, r, http.MethodGet, "/health", nil, "")
	assert.JSONEq(t, `{"status": "ok", "message": "API is running"}`, w.Body.String())
}

func TestSelectionHistory(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))
	do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")
	do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")

	w := do(t, r, http.MethodGet, "/api/history", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"date": "2024-06-01",
		"counts": [{"person_name": "Alice", "count": 1}, {"person_name": "Bob", "count": 1}]
	}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/history?date=junk", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	h := newTestHandler(t, "")
	h.RequireAPIKey = true
	r := NewRouter(h)

	w := do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "bot.forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	key := h.Auth.GenerateHMACKey("bot")
	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, key)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "signed but never issued")

	_, err := h.Auth.RegisterAPIKey(h.DB, "bot", 0)
	require.NoError(t, err)
	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, key)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/usage", nil, key)
	require.Equal(t, http.StatusOK, w.Code)

	var usage struct {
		KeyName string `json:"key_name"`
		History []struct {
			Date string `json:"date"`
		} `json:"usage_history"`
		Totals struct {
			Requests    int `json:"requests"`
			Suggestions int `json:"suggestions"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &usage))
	assert.Equal(t, "bot", usage.KeyName)
	require.Len(t, usage.History, 1)
	assert.Equal(t, "2024-06-01", usage.History[0].Date, "usage is dated by the service clock")
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 1, usage.Totals.Suggestions)
}

func TestAPIKeyRateLimit(t *testing.T) {
	h := newTestHandler(t, "")
	h.RequireAPIKey = true
	r := NewRouter(h)

	apiKey, err := h.Auth.RegisterAPIKey(h.DB, "ticketing", 2)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		w := do(t, r, http.MethodGet, "/api/buildings", nil, apiKey.Key)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/buildings", nil, apiKey.Key)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	require.NoError(t, h.DB.Model(apiKey).Update("rate_limit", 10).Error)
	w = do(t, r, http.MethodGet, "/api/buildings", nil, apiKey.Key)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminFlow(t *testing.T) {
	h := newTestHandler(t, "")
	h.RequireAPIKey = true
	require.NoError(t, auth.EnsureAdminExists(h.DB, "admin", "secret"))
	r := NewRouter(h)

	w := do(t, r, http.MethodGet, "/admin/keys", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/admin/login", gin.H{"username": "admin", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = do(t, r, http.MethodPost, "/admin/keys", gin.H{"name": "telegram"}, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.Key, "telegram."))

	w = do(t, r, http.MethodGet, "/admin/keys", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"telegram"`)
	assert.NotContains(t, w.Body.String(), created.Key, "full keys are never listed")

	w = do(t, r, http.MethodPut, "/admin/keys/1", gin.H{"rate_limit": 50}, login.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/admin/keys", gin.H{"name": "telegram"}, login.AccessToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, created.Key)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, "/admin/keys/1", nil, login.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodDelete, "/admin/keys/1", nil, login.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, created.Key)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked key must be rejected")

	w = do(t, r, http.MethodGet, "/admin/keys", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"name":"telegram"`, "a revoked key is not re-registered")
}

func TestAdminInterfaceAndMetrics(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))

	w := do(t, r, http.MethodGet, "/admin", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "On-call Suggestion API")

	do(t, r, http.MethodPost, "/api/suggest-person", gin.H{"building": "Dodge Hall"}, "")
	w = do(t, r, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `oncall_suggestions_total{outcome="suggested",zone="North"} 1`)
}

func TestValidateRoster(t *testing.T) {
	r := NewRouter(newTestHandler(t, ""))

	w := do(t, r, http.MethodPost, "/api/validate-roster", []models.ShiftEntry{
		{Zone: "North", Date: "2024-06-01", StartTime: "2:00 PM", EndTime: "4:00 PM", PersonName: "Alice"},
		{Zone: "North", Date: "2024-06-01", StartTime: "2 PM", EndTime: "4:00 PM", PersonName: "Bob"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep roster.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.False(t, rep.Valid)
	assert.Len(t, rep.Errors, 1)
	assert.Equal(t, 2, rep.Shifts)

	w = do(t, r, http.MethodPost, "/api/validate-roster", gin.H{"zone": "North"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"valid":false`))
}
