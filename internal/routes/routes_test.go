package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
)

type memStore map[string]*models.Integration

func (m memStore) Get(_ context.Context, id string) (*models.Integration, error) {
	if id == "broken" {
		return nil, errors.New("connection reset")
	}
	in, ok := m[id]
	if !ok {
		return nil, repository.ErrIntegrationNotFound
	}
	return in, nil
}

func (m memStore) ListByEnvironment(_ context.Context, environmentID, channel string) ([]models.Integration, error) {
	if environmentID == "broken" {
		return nil, errors.New("connection reset")
	}
	var out []models.Integration
	for _, id := range []string{"off", "ok", "partial"} {
		in := m[id]
		if in.EnvironmentID != environmentID || (channel != "" && in.Channel != channel) {
			continue
		}
		out = append(out, *in)
	}
	return out, nil
}

func newTestRouter(t *testing.T) (http.Handler, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	store := memStore{
		"ok": {ID: "ok", EnvironmentID: "e1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: "https://hooks.example.com", SecretKey: "k"}},
		"partial": {ID: "partial", EnvironmentID: "e1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: "https://hooks.example.com"}},
		"off": {ID: "off", EnvironmentID: "e2", ProviderID: "push-webhook", Channel: "push", Active: false},
	}
	factory := services.NewProviderFactory(store, handlers.Default(handlers.BuildOptions{}), m, nil)
	return NewRouter(m, factory, store, time.Now(), nil), m
}

func check(t *testing.T, h http.Handler, id string) (*httptest.ResponseRecorder, response, checkResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/integrations/"+id+"/check", nil))

	var raw struct {
		response
		Data checkResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	return rec, raw.response, raw.Data
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestCheckReady(t *testing.T) {
	h, _ := newTestRouter(t)
	rec, resp, data := check(t, h, "ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "push-webhook", data.Provider)
	assert.Equal(t, "push", data.Channel)
	assert.Empty(t, data.Missing)
}

func TestCheckReportsMissingFields(t *testing.T) {
	h, _ := newTestRouter(t)
	rec, resp, data := check(t, h, "partial")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "push-webhook")
	assert.Equal(t, []string{"secretKey"}, data.Missing)
}

func TestCheckErrorStatuses(t *testing.T) {
	h, _ := newTestRouter(t)
	tests := map[string]int{
		"missing": http.StatusNotFound,
		"off":     http.StatusConflict,
		"broken":  http.StatusInternalServerError,
	}
	for id, want := range tests {
		t.Run(id, func(t *testing.T) {
			rec, resp, _ := check(t, h, id)
			assert.Equal(t, want, rec.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestMetricsExposeBuildOutcomes(t *testing.T) {
	h, _ := newTestRouter(t)
	check(t, h, "ok")
	check(t, h, "partial")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `outcome="ready"`), body)
	assert.True(t, strings.Contains(body, `outcome="failed"`), body)
}

func TestListEnvironmentIntegrations(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/environments/e1/integrations?channel=push", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "ok", body.Data[0]["_id"])
	assert.Equal(t, "partial", body.Data[1]["_id"])
	assert.NotContains(t, rec.Body.String(), "hooks.example.com", "credentials must not be exposed")
	assert.NotContains(t, body.Data[0], "credentials")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/environments/e1/integrations?channel=sms", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/environments/broken/integrations", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
