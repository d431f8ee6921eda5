package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const sourceHeader = "X-Source-Filename"

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

type uploadResponse struct {
	SetID   string `json:"eventSetId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Upload posts raw to baseURL/eventsets and returns the new event set ID.
func (c *HTTPClient) Upload(ctx context.Context, baseURL, source, raw string) (string, error) {
	url := strings.TrimRight(baseURL, "/") + "/eventsets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if source != "" && source != "-" {
		req.Header.Set(sourceHeader, filepath.Base(source))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unexpected response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("server rejected payload (%d %s): %s", resp.StatusCode, out.Code, out.Message)
	}
	return out.SetID, nil
}
