package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/deadpage-hunter/internal/entity"
)

// HTTPClient POSTs dead URLs to the collection endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for endpoint. A zero timeout never gives up
// on a slow endpoint.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the configured collection endpoint.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Submit sends exactly one POST for url and folds every failure into the response.
func (c *HTTPClient) Submit(ctx context.Context, url string) entity.SubmissionResponse {
	data, err := c.post(ctx, entity.NewSubmissionRequest(url))
	if err != nil {
		slog.Debug("Submission failed", "url", url, "endpoint", c.endpoint, "error", err)
		return entity.SubmissionFailure(err.Error())
	}
	return entity.SubmissionResponse{Success: true, Data: data}
}

func (c *HTTPClient) post(ctx context.Context, payload entity.SubmissionRequest) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("endpoint returned a non-JSON response")
	}
	return json.RawMessage(raw), nil
}
