package connector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRendersBearerAuthHeader(t *testing.T) {
	var gotAuthorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	store := variables.New(nil)
	store.Set("token", "abc123")

	cfg := models.ConnectorConfig{
		Method: "GET",
		URL:    server.URL,
		Auth:   models.ConnectorAuth{Type: models.AuthTypeBearer, Token: "{token}"},
	}

	result := New(nil).Execute(context.Background(), cfg, store)

	require.True(t, result.Success)
	assert.Equal(t, "Bearer abc123", gotAuthorization)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestExecuteRendersURLQueryAndHeaders(t *testing.T) {
	var gotURL, gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		gotHeader = r.Header.Get("X-Partner")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := variables.New(nil)
	store.Set("user_id", "u-42")
	store.Set("partner", "acme")

	cfg := models.ConnectorConfig{
		Method:  "GET",
		URL:     server.URL + "/users/{user_id}",
		Headers: map[string]string{"X-Partner": "{partner}"},
		Params: []models.ConnectorParam{
			{Key: "verbose", Value: "true", Type: models.ParamTypeQuery, Enabled: true},
			{Key: "ignored", Value: "x", Type: models.ParamTypeQuery, Enabled: false},
			{Key: "not-query", Value: "x", Type: models.ParamTypeBody, Enabled: true},
		},
	}

	result := New(nil).Execute(context.Background(), cfg, store)

	require.True(t, result.Success)
	assert.Equal(t, "/users/u-42?verbose=true", gotURL)
	assert.Equal(t, "acme", gotHeader)
}

func TestExecuteMergesBodyParamsIntoJSON(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := variables.New(nil)
	store.Set("name", "Ada")

	cfg := models.ConnectorConfig{
		Method:   "POST",
		URL:      server.URL,
		BodyType: models.BodyTypeJSON,
		Body:     `{"greeting": "hello {name}"}`,
		Params: []models.ConnectorParam{
			{Key: "source", Value: "bot", Type: models.ParamTypeBody, Enabled: true},
		},
	}

	result := New(nil).Execute(context.Background(), cfg, store)

	require.True(t, result.Success)
	assert.Equal(t, "hello Ada", gotBody["greeting"])
	assert.Equal(t, "bot", gotBody["source"])
}

func TestExecuteTimeoutIsInBandFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := models.ConnectorConfig{
		Method:    "GET",
		URL:       server.URL,
		TimeoutMs: 50,
	}

	result := New(nil).Execute(context.Background(), cfg, variables.New(nil))

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.GreaterOrEqual(t, result.ResponseTimeMs, int64(50))
}

func TestExecuteRetriesTransportFailureOnly(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := models.ConnectorConfig{
		Method:  "GET",
		URL:     server.URL,
		Retries: 3,
	}

	result := New(nil).Execute(context.Background(), cfg, variables.New(nil))

	// A business 5xx is not retried unless the node opts in.
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecuteRetriesHTTPErrorWhenConfigured(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := models.ConnectorConfig{
		Method:           "GET",
		URL:              server.URL,
		Retries:          3,
		RetryOnHTTPError: true,
	}

	result := New(nil).Execute(context.Background(), cfg, variables.New(nil))

	assert.True(t, result.Success)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecuteNetworkErrorCaptured(t *testing.T) {
	cfg := models.ConnectorConfig{
		Method:    "GET",
		URL:       "http://127.0.0.1:1/unreachable",
		TimeoutMs: 500,
	}

	result := New(nil).Execute(context.Background(), cfg, variables.New(nil))

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestTestUsesSampleVariablesWithoutState(t *testing.T) {
	var gotAuthorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := models.ConnectorConfig{
		Method: "GET",
		URL:    server.URL,
		Auth:   models.ConnectorAuth{Type: models.AuthTypeBearer, Token: "{token}"},
	}

	result := New(nil).Test(context.Background(), cfg, map[string]any{"token": "sample"})

	require.True(t, result.Success)
	assert.Equal(t, "Bearer sample", gotAuthorization)
}

func TestMapResponseDottedPaths(t *testing.T) {
	document := map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"pets": []any{
				map[string]any{"name": "Rex"},
			},
		},
	}

	mappings := []models.ResponseMapping{
		{JSONPath: "user.name", VariableName: "user_name", Enabled: true},
		{JSONPath: "user.pets.0.name", VariableName: "pet_name", Enabled: true},
		{JSONPath: "user.missing.deep", VariableName: "absent", Enabled: true},
		{JSONPath: "user.name", VariableName: "disabled", Enabled: false},
	}

	bindings := MapResponse(document, mappings)

	assert.Equal(t, "Ada", bindings["user_name"])
	assert.Equal(t, "Rex", bindings["pet_name"])
	assert.Nil(t, bindings["absent"])
	assert.NotContains(t, bindings, "disabled")
}
