package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const circuitFile = `[COURSE HEADER]
VERSION = 2
DESCRIPTION = Circuit PPG
FILE NAME = PPG_Circuit.mrc
[END COURSE HEADER]
[COURSE DATA]
0.00 100 "ND, SQUAT 3 1 1 1"
1.00 20 "Recup"
1.25 100 "ND, PUSH UP 3 1 1 1"
2.00 20 "Recup"
2.25 100 "ND, SQUAT 3 1 1 1"
3.25 20 "Recup"
3.50 0
[END COURSE DATA]
`

type fakeSource struct {
	sessions []models.TrainingSessionRow
	gotUser  int
	gotCat   string
	bucket   string

	loadStart, loadEnd time.Time
}

func (f *fakeSource) QuerySessions(_ context.Context, _, _ time.Time, userID int, category string) ([]models.TrainingSessionRow, error) {
	f.gotUser, f.gotCat = userID, category
	return f.sessions, nil
}

func (f *fakeSource) GetSession(_ context.Context, id uuid.UUID, userID int) (*storage.SessionDetail, error) {
	for _, s := range f.sessions {
		if s.ID == id && s.UserID == userID {
			return &storage.SessionDetail{TrainingSessionRow: s}, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeSource) GetTrainingLoad(_ context.Context, start, end time.Time, bucket string, _ int) ([]storage.TrainingLoadPeriod, error) {
	f.bucket = bucket
	f.loadStart, f.loadEnd = start, end
	return []storage.TrainingLoadPeriod{{Period: "2026-10-12", TotalTSS: 95}}, nil
}

func (f *fakeSource) GetDataStats(context.Context, int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalSessions: int64(len(f.sessions))}, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

// TestParseMRCTool verifies a circuit file is decoded into exercises and a summary.
func TestParseMRCTool(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.parseMRC(context.Background(), callRequest(map[string]any{"content": circuitFile}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var out struct {
		Workout struct {
			Category  string `json:"category"`
			Exercises []struct {
				Name     string `json:"name"`
				SetCount int    `json:"set_count"`
			} `json:"exercises"`
		} `json:"workout"`
		Summary struct {
			Name string `json:"name"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Workout.Category != "ppg" || len(out.Workout.Exercises) != 2 {
		t.Fatalf("workout = %+v", out.Workout)
	}
	if out.Workout.Exercises[0].Name != "Squat" || out.Workout.Exercises[0].SetCount != 2 {
		t.Errorf("first exercise = %+v, want Squat x2", out.Workout.Exercises[0])
	}
}

// TestParseMRCToolErrors verifies missing content and malformed files are
// reported as tool errors rather than protocol errors.
func TestParseMRCToolErrors(t *testing.T) {
	h := newHandlers(&fakeSource{})
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing content", map[string]any{}, "content parameter is required"},
		{"no header", map[string]any{"content": "0 50\n"}, "invalid file format: missing header section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.parseMRC(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); got != tt.want {
				t.Errorf("error = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestListSessionsTool verifies the user scope and category filter reach the data source.
func TestListSessionsTool(t *testing.T) {
	ds := &fakeSource{sessions: []models.TrainingSessionRow{{ID: uuid.New(), UserID: 3, Name: "Endurance"}}}
	h := newHandlers(ds)
	ctx := WithUserID(context.Background(), 3)

	res, err := h.listSessions(ctx, callRequest(map[string]any{"category": "cycling"}))
	if err != nil || res.IsError {
		t.Fatalf("list_sessions failed: %v", err)
	}
	if ds.gotUser != 3 || ds.gotCat != "cycling" {
		t.Errorf("user=%d category=%q", ds.gotUser, ds.gotCat)
	}
	if !strings.Contains(resultText(t, res), "Endurance") {
		t.Errorf("result missing session name: %s", resultText(t, res))
	}

	res, _ = h.listSessions(ctx, callRequest(map[string]any{"category": "rowing"}))
	if !res.IsError {
		t.Error("expected error for unknown category")
	}
}

// TestGetSessionTool verifies lookups are scoped to the caller.
func TestGetSessionTool(t *testing.T) {
	id := uuid.New()
	h := newHandlers(&fakeSource{sessions: []models.TrainingSessionRow{{ID: id, UserID: 1, Name: "Sweet Spot"}}})

	res, _ := h.getSession(context.Background(), callRequest(map[string]any{"id": id.String()}))
	if res.IsError {
		t.Fatalf("get_session error: %s", resultText(t, res))
	}

	res, _ = h.getSession(WithUserID(context.Background(), 2), callRequest(map[string]any{"id": id.String()}))
	if !res.IsError || resultText(t, res) != "session not found" {
		t.Errorf("other user's session visible: %s", resultText(t, res))
	}

	res, _ = h.getSession(context.Background(), callRequest(map[string]any{"id": "nope"}))
	if !res.IsError {
		t.Error("expected error for invalid id")
	}
}

// TestGetTrainingLoadTool verifies the default bucket is weekly.
func TestGetTrainingLoadTool(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	res, _ := h.getTrainingLoad(context.Background(), callRequest(map[string]any{}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if ds.bucket != "1 week" {
		t.Errorf("bucket = %q, want 1 week", ds.bucket)
	}
}

// TestRecentSessionsResource verifies the resource returns JSON under its URI.
func TestRecentSessionsResource(t *testing.T) {
	h := newHandlers(&fakeSource{sessions: []models.TrainingSessionRow{{ID: uuid.New(), Name: "Recovery Spin"}}})
	var req mcp.ReadResourceRequest
	req.Params.URI = "trainerlab://recent_sessions"

	contents, err := h.recentSessions(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type %T", contents[0])
	}
	if text.URI != req.Params.URI || !strings.Contains(text.Text, "Recovery Spin") {
		t.Errorf("resource = %+v", text)
	}
}

// TestNewRegistersTools verifies the server can be constructed over a data source.
func TestNewRegistersTools(t *testing.T) {
	if s := New(&fakeSource{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); s == nil {
		t.Fatal("New returned nil")
	}
}
