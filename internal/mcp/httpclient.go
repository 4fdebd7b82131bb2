package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the trainerlab REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the sessions live on the server (reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketParam maps MCP bucket values to the REST API bucket parameter.
func bucketParam(bucket string) string {
	switch bucket {
	case "1 month", "month", "monthly":
		return "month"
	default:
		return "week"
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QuerySessions(ctx context.Context, start, end time.Time, _ int, category string) ([]models.TrainingSessionRow, error) {
	params := timeParams(start, end)
	if category != "" {
		params.Set("category", category)
	}

	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}

	var sessions []models.TrainingSessionRow
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, sessionID uuid.UUID, _ int) (*storage.SessionDetail, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, err
	}

	var detail storage.SessionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &detail, nil
}

func (c *HTTPClient) GetTrainingLoad(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.TrainingLoadPeriod, error) {
	params := timeParams(start, end)
	params.Set("bucket", bucketParam(bucket))

	body, err := c.get(ctx, "/api/v1/training-load", params)
	if err != nil {
		return nil, err
	}

	var periods []storage.TrainingLoadPeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode training load: %w", err)
	}
	return periods, nil
}

func (c *HTTPClient) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	body, err := c.get(ctx, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats storage.DataStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}
