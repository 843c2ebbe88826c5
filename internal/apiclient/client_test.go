package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/auth"
	"github.com/CyberwizD/Distributed-Notification-System/services/integration_service/internal/models"
)

const base = "https://api.example.com"

func newMockedClient(t *testing.T, token string) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	c, err := New(base, auth.NewMemoryStore(token), WithHTTPClient(hc))
	require.NoError(t, err)
	return c
}

func TestListMyEnvironments(t *testing.T) {
	c := newMockedClient(t, "tok1")
	httpmock.RegisterResponder(http.MethodGet, base+"/v1/environments",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer tok1", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK,
				`{"data":[{"_id":"e1","name":"dev"},{"_id":"e2","name":"prod","_parentId":"e1"}]}`), nil
		})

	envs, err := c.ListMyEnvironments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Environment{
		{ID: "e1", Name: "dev"},
		{ID: "e2", Name: "prod", ParentID: "e1"},
	}, envs)
}

func TestCurrentEnvironment(t *testing.T) {
	c := newMockedClient(t, "tok1")
	httpmock.RegisterResponder(http.MethodGet, base+"/v1/environments/me",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"_id":"e2","name":"prod","_parentId":"e1"}}`))

	env, err := c.CurrentEnvironment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prod", env.Name)
	assert.True(t, env.Derived())
}

func TestSwitchEnvironment(t *testing.T) {
	c := newMockedClient(t, "tok1")
	httpmock.RegisterResponder(http.MethodPost, base+"/v1/auth/environments/e2/switch",
		func(req *http.Request) (*http.Response, error) {
			body, _ := io.ReadAll(req.Body)
			assert.JSONEq(t, `{}`, string(body))
			return httpmock.NewStringResponse(http.StatusOK, `{"data":{"token":"tok2"}}`), nil
		})

	token, err := c.SwitchEnvironment(context.Background(), "e2")
	require.NoError(t, err)
	assert.Equal(t, "tok2", token)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSwitchEnvironmentWithoutToken(t *testing.T) {
	c := newMockedClient(t, "tok1")
	httpmock.RegisterResponder(http.MethodPost, base+"/v1/auth/environments/e2/switch",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{}}`))

	_, err := c.SwitchEnvironment(context.Background(), "e2")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestAPIErrorMessage(t *testing.T) {
	c := newMockedClient(t, "")
	httpmock.RegisterResponder(http.MethodGet, base+"/v1/environments/me",
		func(req *http.Request) (*http.Response, error) {
			assert.Empty(t, req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusUnauthorized, `{"message":"Unauthorized"}`), nil
		})

	_, err := c.CurrentEnvironment(context.Background())
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)
	assert.Equal(t, "api request failed (401): Unauthorized", err.Error())
}

func TestNewNormalisesBase(t *testing.T) {
	c, err := New("localhost:3000/", auth.NewMemoryStore(""))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", c.baseURL)

	_, err = New(base, nil)
	assert.Error(t, err)
}
