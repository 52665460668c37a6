package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/services"
	"github.com/sjperalta/techlog-api/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	workflow.Store
	log    models.Log
	nextID uint
}

func (m *mockStore) FetchLogs(ctx context.Context) ([]models.Log, error) {
	return []models.Log{{ID: m.log.ID, FlightID: m.log.FlightID, CreatedAt: m.log.CreatedAt}}, nil
}

func (m *mockStore) FetchFlights(ctx context.Context) ([]models.Flight, error) {
	return []models.Flight{m.log.Flight}, nil
}

func (m *mockStore) FetchLog(ctx context.Context, logID uint) (*models.Log, error) {
	if logID != m.log.ID {
		return nil, errors.New("record not found")
	}
	out := m.log
	out.Entries = append([]models.LogEntry(nil), m.log.Entries...)
	return &out, nil
}

func (m *mockStore) FetchChecks(ctx context.Context, logID uint) (models.CheckSet, error) {
	return models.CheckSet{}, nil
}

func (m *mockStore) FetchFluidsAndDeicingAuth(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	return nil, nil
}

func (m *mockStore) SaveLogEntry(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error) {
	saved := entry.Clone()
	if saved.ID == 0 {
		m.nextID++
		saved.ID = m.nextID
	}
	for i := range m.log.Entries {
		if m.log.Entries[i].Seq == saved.Seq {
			m.log.Entries[i] = *saved.Clone()
			return saved, nil
		}
	}
	m.log.Entries = append(m.log.Entries, *saved.Clone())
	return saved, nil
}

func setupSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := &mockStore{log: models.Log{
		ID:        4,
		FlightID:  1,
		CreatedAt: time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC),
		Flight:    models.Flight{ID: 1, FlightNumber: "FL-00001", CurrentFlight: true},
	}}
	svc := services.NewWorkflowService(store, nil, nil, nil, identifier.NewAllocator(1), 30*time.Minute)
	h := NewSessionHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		userID := uint(7)
		if v := c.GetHeader("X-Test-User"); v != "" {
			n, _ := strconv.Atoi(v)
			userID = uint(n)
		}
		c.Set("userID", userID)
		c.Set("userRole", c.GetHeader("X-Test-Role"))
		c.Next()
	})
	r.POST("/sessions", h.Create)

	session := r.Group("/sessions/:id")
	session.Use(h.RequireOwner())
	session.GET("", h.Show)
	session.POST("/entries", h.AddEntry)
	session.POST("/entries/:seq/short_sign", h.ShortSign)
	session.PUT("/authorization/signature", h.Signature)
	session.POST("/authorization/confirm", h.Confirm)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestSessionHandler_SignOffFlow(t *testing.T) {
	r := setupSessionRouter()

	w, session := doJSON(t, r, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := session["id"].(string)

	// nested and flat bodies are both accepted
	w, _ = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/entries", map[string]interface{}{
		"entry": map[string]interface{}{"defect_details": "Cabin PA inoperative"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/sessions/"+id+"/entries/1/short_sign", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "action_details", body["field"])
	assert.Contains(t, body, "session")

	w, _ = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/entries", map[string]interface{}{
		"defect_details": "Lav light flickers",
		"action_details": "Ballast replaced",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/entries/2/short_sign", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := body["pending"].(map[string]interface{})
	assert.Equal(t, "Short Sign - Entry 2", pending["label"])

	w, _ = doJSON(t, r, http.MethodPut, "/sessions/"+id+"/authorization/signature", map[string]interface{}{
		"image": []byte("not an image"),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/authorization/confirm", map[string]interface{}{
		"auth_name": "K. Ito",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doJSON(t, r, http.MethodPost, "/sessions/"+id+"/authorization/confirm", map[string]interface{}{
		"auth_id":   "B1-77",
		"auth_name": "K. Ito",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["pending"])
	entries := body["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryStateShortSigned, entries[1].(map[string]interface{})["state"])
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	r := setupSessionRouter()

	w, body := doJSON(t, r, http.MethodGet, "/sessions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, services.ErrSessionNotFound.Error(), body["error"])
}

func TestSessionHandler_OwnerOnly(t *testing.T) {
	r := setupSessionRouter()

	w, session := doJSON(t, r, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/sessions/" + session["id"].(string)

	tests := []struct {
		name       string
		user       string
		role       string
		wantStatus int
	}{
		{name: "owner", user: "7", role: "engineer", wantStatus: http.StatusOK},
		{name: "other engineer", user: "8", role: "engineer", wantStatus: http.StatusForbidden},
		{name: "admin", user: "1", role: "admin", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("X-Test-User", tt.user)
			req.Header.Set("X-Test-Role", tt.role)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
