package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/trainerlab/internal/ingest"
)

// ErrRejected marks a file the server refused as malformed or too large.
// Retrying it cannot succeed.
var ErrRejected = errors.New("rejected by server")

const maxAttempts = 3

// Client sends training files to the trainerlab server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the trainerlab server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// UploadFile POSTs one .mrc file to the ingest endpoint. Transport errors and
// 5xx responses are retried up to 3 times with exponential backoff; 4xx
// responses fail immediately, wrapping ErrRejected for 400 and 413.
func (c *Client) UploadFile(ctx context.Context, name string, content []byte) (*ingest.Result, error) {
	u := c.serverURL + "/api/v1/ingest/mrc?" + url.Values{"filename": {name}}.Encode()

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result ingest.Result
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &result, nil
		case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusRequestEntityTooLarge:
			return nil, fmt.Errorf("%s: %w: %s", name, ErrRejected, errorMessage(body))
		case resp.StatusCode < 500:
			return nil, fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, errorMessage(body))
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, errorMessage(body))
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
