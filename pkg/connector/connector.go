// Package connector performs the generic outbound HTTP integration used by
// webhook and api_connector nodes.
package connector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/variables"
)

const (
	defaultTimeoutMs = 30000
	maxRetries       = 5
)

var (
	// ErrConnectorURLMissing is returned when the node configures no URL.
	ErrConnectorURLMissing = errors.New("connector URL is missing")
	// errHTTPStatus marks a non-2xx response during the retry loop.
	errHTTPStatus = errors.New("http error status")
)

// Result is the in-band outcome of one connector execution. Failures are
// captured here and never thrown past the node boundary.
type Result struct {
	Success        bool   `json:"success"`
	Status         int    `json:"status,omitempty"`
	StatusText     string `json:"statusText,omitempty"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	ResponseData   any    `json:"responseData,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Connector executes node-configured HTTP calls.
type Connector struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a connector. The client timeout is applied per call from the
// node configuration, so the shared client carries none.
func New(logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}

	return &Connector{
		client: &http.Client{},
		logger: logger.With("module", "connector"),
	}
}

// Execute performs the configured call with every value rendered through
// the session store. Transport failures are retried up to the configured
// count; HTTP error statuses are retried only when the node opts in. The
// returned Result always carries the elapsed time.
func (c *Connector) Execute(ctx context.Context, cfg models.ConnectorConfig, store *variables.Store) Result {
	started := time.Now()

	if cfg.URL == "" {
		return failure(started, 0, "", ErrConnectorURLMissing.Error())
	}

	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if cfg.TimeoutMs <= 0 {
		timeout = defaultTimeoutMs * time.Millisecond
	}

	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	if retries > maxRetries {
		retries = maxRetries
	}

	var (
		result  Result
		lastErr error
		done    bool
	)

	for attempt := 0; attempt <= retries && !done; attempt++ {
		if attempt > 0 {
			c.logger.InfoContext(ctx, "retrying connector call",
				"attempt", attempt+1,
				"max_attempts", retries+1)
		}

		retryHTTPError := cfg.RetryOnHTTPError && attempt < retries

		result, lastErr, done = c.attempt(ctx, cfg, store, timeout, started, retryHTTPError)
	}

	if !done {
		message := "all attempts failed"
		if lastErr != nil {
			message = lastErr.Error()
		}

		return failure(started, 0, "", message)
	}

	return result
}

// attempt performs one call. done is false when the attempt should be
// retried (transport failure, or HTTP error with retryHTTPError set).
func (c *Connector) attempt(
	ctx context.Context,
	cfg models.ConnectorConfig,
	store *variables.Store,
	timeout time.Duration,
	started time.Time,
	retryHTTPError bool,
) (Result, error, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, cfg, store)
	if err != nil {
		// A request that cannot be built will not improve on retry.
		return failure(started, 0, "", err.Error()), err, true
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err), false
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	httpError := resp.StatusCode < 200 || resp.StatusCode >= 300
	if httpError && retryHTTPError {
		return Result{}, fmt.Errorf("%w: %s", errHTTPStatus, resp.Status), false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		message := fmt.Sprintf("failed to read response body: %v", err)

		return failure(started, resp.StatusCode, resp.Status, message), nil, true
	}

	result := Result{
		Success:        !httpError,
		Status:         resp.StatusCode,
		StatusText:     resp.Status,
		ResponseTimeMs: time.Since(started).Milliseconds(),
		ResponseData:   decodeBody(body),
	}

	if httpError {
		result.Error = fmt.Sprintf("HTTP %s", resp.Status)
	}

	return result, nil, true
}

// Test performs the identical call against caller-supplied sample
// variables. It builds a throwaway store, so no live session or persisted
// state is touched.
func (c *Connector) Test(ctx context.Context, cfg models.ConnectorConfig, sampleVariables map[string]any) Result {
	return c.Execute(ctx, cfg, variables.FromSnapshot(sampleVariables))
}

func failure(started time.Time, status int, statusText, message string) Result {
	return Result{
		Success:        false,
		Status:         status,
		StatusText:     statusText,
		ResponseTimeMs: time.Since(started).Milliseconds(),
		Error:          message,
	}
}

func (c *Connector) buildRequest(ctx context.Context, cfg models.ConnectorConfig, store *variables.Store) (*http.Request, error) {
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := buildURL(cfg, store)
	if err != nil {
		return nil, err
	}

	bodyReader, contentType, err := buildBody(method, cfg, store)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range cfg.Headers {
		req.Header.Set(store.Render(key), store.Render(value))
	}

	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	applyAuth(req, cfg.Auth, store)

	return req, nil
}

func buildURL(cfg models.ConnectorConfig, store *variables.Store) (string, error) {
	rendered := store.Render(cfg.URL)

	parsed, err := url.Parse(rendered)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rendered, err)
	}

	query := parsed.Query()

	for _, param := range cfg.Params {
		if !param.Enabled || param.Type != models.ParamTypeQuery {
			continue
		}

		query.Set(store.Render(param.Key), store.Render(param.Value))
	}

	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

// buildBody encodes the request body for non-GET calls. JSON bodies are
// merged with enabled type=body parameter entries before re-serializing.
func buildBody(method string, cfg models.ConnectorConfig, store *variables.Store) (io.Reader, string, error) {
	if method == http.MethodGet {
		return nil, "", nil
	}

	switch cfg.BodyType {
	case models.BodyTypeForm:
		form := url.Values{}

		for _, param := range cfg.Params {
			if !param.Enabled || param.Type != models.ParamTypeBody {
				continue
			}

			form.Set(store.Render(param.Key), store.Render(param.Value))
		}

		return strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil
	case models.BodyTypeRaw:
		if cfg.Body == "" {
			return nil, "", nil
		}

		return strings.NewReader(store.Render(cfg.Body)), "text/plain", nil
	case models.BodyTypeJSON, "":
		document := map[string]any{}

		if cfg.Body != "" {
			rendered := store.Render(cfg.Body)

			err := json.Unmarshal([]byte(rendered), &document)
			if err != nil {
				return nil, "", fmt.Errorf("body is not valid JSON: %w", err)
			}
		}

		for _, param := range cfg.Params {
			if !param.Enabled || param.Type != models.ParamTypeBody {
				continue
			}

			document[store.Render(param.Key)] = store.Render(param.Value)
		}

		if len(document) == 0 && cfg.Body == "" {
			return nil, "", nil
		}

		encoded, err := json.Marshal(document)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}

		return bytes.NewReader(encoded), "application/json", nil
	default:
		return nil, "", fmt.Errorf("unsupported body type %q", cfg.BodyType)
	}
}

func applyAuth(req *http.Request, auth models.ConnectorAuth, store *variables.Store) {
	switch auth.Type {
	case models.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+store.Render(auth.Token))
	case models.AuthTypeBasic:
		credentials := store.Render(auth.Username) + ":" + store.Render(auth.Password)
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
	case models.AuthTypeAPIKey:
		name := store.Render(auth.HeaderName)
		if name == "" {
			name = "X-Api-Key"
		}

		req.Header.Set(name, store.Render(auth.HeaderValue))
	}
}

func decodeBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var decoded any

	err := json.Unmarshal(body, &decoded)
	if err != nil {
		return string(body)
	}

	return decoded
}
