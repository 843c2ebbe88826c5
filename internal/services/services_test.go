package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/handlers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/providers"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/repository"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/metrics"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/pkg/retry"
)

type memIntegrations map[string]*models.Integration

func (m memIntegrations) Get(_ context.Context, id string) (*models.Integration, error) {
	in, ok := m[id]
	if !ok {
		return nil, repository.ErrIntegrationNotFound
	}
	cp := *in
	return &cp, nil
}

type statusCall struct {
	requestID, integrationID, status, provider, detail string
}

type memStatus struct {
	mu    sync.Mutex
	calls []statusCall
}

func (m *memStatus) UpdateStatus(_ context.Context, requestID, integrationID, status, provider, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, statusCall{requestID, integrationID, status, provider, detail})
	return nil
}

func (m *memStatus) last() statusCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type memSuppressor struct {
	mu         sync.Mutex
	suppressed map[string]bool
}

func (m *memSuppressor) IsTokenSuppressed(_ context.Context, integrationID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suppressed[integrationID+"/"+token], nil
}

func (m *memSuppressor) SuppressToken(_ context.Context, integrationID, token string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.suppressed == nil {
		m.suppressed = make(map[string]bool)
	}
	m.suppressed[integrationID+"/"+token] = true
	return nil
}

type processorFixture struct {
	processor *PushProcessor
	status    *memStatus
	metrics   *metrics.Metrics
	store     memIntegrations
}

func newProcessor(t *testing.T, store memIntegrations, suppressor TokenSuppressor) *processorFixture {
	t.Helper()
	m := metrics.New()
	status := &memStatus{}
	factory := NewProviderFactory(store, handlers.Default(handlers.BuildOptions{}), m, nil)
	p := NewPushProcessor(factory, NewStatusUpdater(status, nil), suppressor, m, nil, retry.Config{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})
	return &processorFixture{processor: p, status: status, metrics: m, store: store}
}

func envelope(integrationID string) *models.MessageEnvelope {
	return &models.MessageEnvelope{
		RequestID:     "req-1",
		Channel:       "push",
		IntegrationID: integrationID,
		User: models.User{PushTokens: []models.PushToken{
			{Token: "tok-a", Platform: "ios"},
			{Token: "", Platform: "ios"},
			{Token: "tok-x", Platform: "fridge"},
		}},
		Template: models.Template{Subject: "Hi {{name}}", Body: "Order {{order.id}} shipped"},
		Variables: map[string]interface{}{
			"name":  "Ada",
			"order": map[string]interface{}{"id": 42},
		},
	}
}

func TestProcessDeliversViaPushWebhook(t *testing.T) {
	var hits atomic.Int32
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		gotSig = r.Header.Get(providers.SignatureHeader)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: srv.URL, SecretKey: "k"}},
	}, nil)

	require.NoError(t, f.processor.Process(context.Background(), envelope("i1")))
	assert.Equal(t, int32(1), hits.Load())
	assert.NotEmpty(t, gotSig)

	last := f.status.last()
	assert.Equal(t, StatusDelivered, last.status)
	assert.Equal(t, "push-webhook", last.provider)
	assert.Equal(t, "i1", last.integrationID)
	expected := `
# HELP integration_service_push_messages_delivered_total Push jobs acknowledged by the provider
# TYPE integration_service_push_messages_delivered_total counter
integration_service_push_messages_delivered_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected),
		"integration_service_push_messages_delivered_total"))
}

func TestProcessDeliversPlatformlessWebhookTargets(t *testing.T) {
	var got struct {
		Target []string `json:"target"`
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: srv.URL, SecretKey: "k"}},
	}, nil)

	env := envelope("i1")
	env.User.PushTokens = []models.PushToken{{Token: "subscriber-device-1"}}
	require.NoError(t, f.processor.Process(context.Background(), env))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []string{"subscriber-device-1"}, got.Target)
	assert.Equal(t, StatusDelivered, f.status.last().status)
}

func TestProcessFCMWithoutMobileTokensIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "fcm", Channel: "push", Active: true,
			Credentials: models.Credentials{APIKey: "srv", BaseURL: srv.URL}},
	}, nil)

	env := envelope("i1")
	env.User.PushTokens = []models.PushToken{{Token: "browser-1", Platform: "web"}}
	err := f.processor.Process(context.Background(), env)
	require.Error(t, err)
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, providers.ErrNoTargets)
	assert.Equal(t, int32(0), hits.Load())
	assert.Equal(t, StatusFailed, f.status.last().status)
}

func TestProcessMisconfiguredIntegrationIsTerminal(t *testing.T) {
	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: "https://x"}},
	}, nil)

	err := f.processor.Process(context.Background(), envelope("i1"))
	require.Error(t, err)
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, handlers.ErrInvalidConfig)

	last := f.status.last()
	assert.Equal(t, StatusFailed, last.status)
	assert.Contains(t, last.detail, "secretKey")
}

func TestProcessUnknownAndInactiveIntegrations(t *testing.T) {
	f := newProcessor(t, memIntegrations{
		"off": {ID: "off", ProviderID: "fcm", Channel: "push", Active: false,
			Credentials: models.Credentials{APIKey: "k"}},
		"sms": {ID: "sms", ProviderID: "twilio", Channel: "sms", Active: true},
	}, nil)

	err := f.processor.Process(context.Background(), envelope("missing"))
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, repository.ErrIntegrationNotFound)

	err = f.processor.Process(context.Background(), envelope("off"))
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, ErrInactiveIntegration)

	err = f.processor.Process(context.Background(), envelope("sms"))
	assert.True(t, IsTerminal(err))
	assert.ErrorIs(t, err, handlers.ErrUnknownProvider)
}

func TestProcessRejectsOtherChannels(t *testing.T) {
	f := newProcessor(t, memIntegrations{}, nil)
	env := envelope("i1")
	env.Channel = "email"
	err := f.processor.Process(context.Background(), env)
	assert.True(t, IsTerminal(err))
}

func TestProcessRetriesAndFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "push-webhook", Channel: "push", Active: true,
			Credentials: models.Credentials{WebhookURL: srv.URL, SecretKey: "k"}},
	}, nil)

	err := f.processor.Process(context.Background(), envelope("i1"))
	require.Error(t, err)
	assert.False(t, IsTerminal(err))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, StatusFailed, f.status.last().status)
}

func TestProcessSuppressesFatalFCMTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"error":"NotRegistered"}]}`))
	}))
	defer srv.Close()

	sup := &memSuppressor{}
	f := newProcessor(t, memIntegrations{
		"i1": {ID: "i1", ProviderID: "fcm", Channel: "push", Active: true,
			Credentials: models.Credentials{APIKey: "srv", BaseURL: srv.URL}},
	}, sup)

	err := f.processor.Process(context.Background(), envelope("i1"))
	require.Error(t, err)
	suppressed, _ := sup.IsTokenSuppressed(context.Background(), "i1", "tok-a")
	assert.True(t, suppressed)

	err = f.processor.Process(context.Background(), envelope("i1"))
	assert.True(t, IsTerminal(err), "only the unsupported fridge token is left")
	assert.ErrorIs(t, err, providers.ErrNoTargets)
}

func TestTerminalWrapping(t *testing.T) {
	base := errors.New("x")
	wrapped := Terminal(base)
	assert.True(t, IsTerminal(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Same(t, wrapped, Terminal(wrapped))
	assert.NoError(t, Terminal(nil))
	assert.False(t, IsTerminal(base))
}

func TestRenderTemplate(t *testing.T) {
	vars := map[string]interface{}{
		"name":       "Ada",
		"subscriber": map[string]interface{}{"firstName": "Grace"},
	}
	assert.Equal(t, "Hi Ada", RenderTemplate("Hi {{ name }}", vars))
	assert.Equal(t, "Hi Grace", RenderTemplate("Hi {{subscriber.firstName}}", vars))
	assert.Equal(t, "Hi {{missing}}", RenderTemplate("Hi {{missing}}", vars))
	assert.Equal(t, "Hi {{name.first}}", RenderTemplate("Hi {{name.first}}", vars))
	assert.Equal(t, "plain", RenderTemplate("plain", nil))
}
