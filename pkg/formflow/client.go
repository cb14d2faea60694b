package formflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const clientTimeout = 30 * time.Second

// ErrPlatformRejected is returned when the platform answers with a non-2xx
// status during create or publish.
var ErrPlatformRejected = errors.New("platform rejected the request")

// Client talks to the messaging platform's flow management API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a platform client. baseURL is the platform API root,
// token the partner access token.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: clientTimeout},
		logger:     logger.With("module", "formflow"),
	}
}

type createRequest struct {
	Name       string         `json:"name"`
	Categories []string       `json:"categories"`
	FlowJSON   ScreenDocument `json:"flow_json"`
}

type createResponse struct {
	ID string `json:"id"`
}

type publishResponse struct {
	PreviewURL string `json:"preview_url"`
}

// Create registers the compiled document with the platform and returns the
// platform-assigned flow id.
func (c *Client) Create(ctx context.Context, name string, categories []string, document ScreenDocument) (string, error) {
	if len(categories) == 0 {
		categories = []string{"OTHER"}
	}

	payload := createRequest{Name: name, Categories: categories, FlowJSON: document}

	var created createResponse

	err := c.post(ctx, "/flows", payload, &created)
	if err != nil {
		return "", fmt.Errorf("failed to create platform flow: %w", err)
	}

	if created.ID == "" {
		return "", fmt.Errorf("%w: create response carries no id", ErrPlatformRejected)
	}

	c.logger.InfoContext(ctx, "platform flow created", "platform_flow_id", created.ID)

	return created.ID, nil
}

// PublishFlow publishes a previously created flow and returns its preview
// URL when the platform provides one.
func (c *Client) PublishFlow(ctx context.Context, flowID string) (string, error) {
	var published publishResponse

	err := c.post(ctx, "/flows/"+flowID+"/publish", struct{}{}, &published)
	if err != nil {
		return "", fmt.Errorf("failed to publish platform flow %s: %w", flowID, err)
	}

	c.logger.InfoContext(ctx, "platform flow published", "platform_flow_id", flowID)

	return published.PreviewURL, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: %s", ErrPlatformRejected, resp.Status, strings.TrimSpace(string(body)))
	}

	if out != nil && len(body) > 0 {
		err = json.Unmarshal(body, out)
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
