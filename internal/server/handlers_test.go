package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/trainerlab/internal/ingest"
	mrcingest "github.com/claude/trainerlab/internal/ingest/mrc"
	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/google/uuid"
)

const testAPIKey = "test-key"

const intervalsFile = `[COURSE HEADER]
VERSION = 2
UNITS = ENGLISH
DESCRIPTION = 2x8 threshold
FILE NAME = Threshold_2x8.mrc
MINUTES PERCENT
[END COURSE HEADER]
[COURSE DATA]
0.00	50	"Warm up"
10.00	50	"Warm up"
10.00	95	"Threshold 1"
18.00	95	"Threshold 1"
18.00	55	"Recovery"
22.00	55	"Recovery"
22.00	95	"Threshold 2"
30.00	95	"Threshold 2"
30.00	40	"Cool down"
40.00	40	"Cool down"
[END COURSE DATA]
`

// memStore is an in-memory Store that also satisfies the ingest provider's
// persistence interface.
type memStore struct {
	sessions map[uuid.UUID]storage.SessionDetail
	logs     []storage.ImportLog
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{sessions: map[uuid.UUID]storage.SessionDetail{}}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) StoreSession(_ context.Context, rec models.SessionRecord) (*storage.StoreResult, error) {
	for id, d := range m.sessions {
		if d.UserID == rec.Session.UserID && d.ContentHash == rec.Session.ContentHash {
			return &storage.StoreResult{SessionID: id}, nil
		}
	}
	rec.Session.CreatedAt = time.Now()
	m.sessions[rec.Session.ID] = storage.SessionDetail{
		TrainingSessionRow: rec.Session,
		Blocks:             rec.Blocks,
		Exercises:          rec.Exercises,
	}
	return &storage.StoreResult{
		Inserted:          true,
		SessionID:         rec.Session.ID,
		BlocksInserted:    int64(len(rec.Blocks)),
		ExercisesInserted: int64(len(rec.Exercises)),
	}, nil
}

func (m *memStore) QuerySessions(_ context.Context, start, end time.Time, userID int, category string) ([]models.TrainingSessionRow, error) {
	var out []models.TrainingSessionRow
	for _, d := range m.sessions {
		s := d.TrainingSessionRow
		if s.UserID != userID || s.CreatedAt.Before(start) || !s.CreatedAt.Before(end) {
			continue
		}
		if category != "" && s.Category != category {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) GetSession(_ context.Context, id uuid.UUID, userID int) (*storage.SessionDetail, error) {
	d, ok := m.sessions[id]
	if !ok || d.UserID != userID {
		return nil, storage.ErrNotFound
	}
	return &d, nil
}

func (m *memStore) DeleteSession(_ context.Context, id uuid.UUID, userID int) (bool, error) {
	d, ok := m.sessions[id]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

func (m *memStore) GetTrainingLoad(context.Context, time.Time, time.Time, string, int) ([]storage.TrainingLoadPeriod, error) {
	var total int
	for _, d := range m.sessions {
		total += d.EstimatedTSS
	}
	return []storage.TrainingLoadPeriod{{Period: "2026-10-12", Sessions: len(m.sessions), TotalTSS: total}}, nil
}

func (m *memStore) GetDataStats(_ context.Context, userID int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalSessions: int64(len(m.sessions))}, nil
}

func (m *memStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	m.logs = append(m.logs, l)
	return int64(len(m.logs)), nil
}

func (m *memStore) QueryImportLogs(_ context.Context, userID, limit int) ([]storage.ImportLog, error) {
	if limit < len(m.logs) {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

func (m *memStore) GetOrCreateUser(context.Context, string, string) (int, error) { return 2, nil }

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()
	store := newMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, mrcingest.NewProvider(store, log), testAPIKey, log), store
}

func ingestRequest(body, filename string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/mrc?filename="+filename, strings.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	return req
}

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" || info.DisplayName != "Local Dev User" {
		t.Errorf("me = %+v, want local dev user", info)
	}
}

// TestHandleMeTailscaleUser verifies handleMe echoes the identity in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	rec := httptest.NewRecorder()

	s.handleMe(rec, req.WithContext(ctx))

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
}

// TestIngestRequiresAPIKey verifies the ingest route rejects missing and wrong keys.
func TestIngestRequiresAPIKey(t *testing.T) {
	s, store := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/mrc", strings.NewReader(intervalsFile))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/mrc", strings.NewReader(intervalsFile))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}
	if len(store.sessions) != 0 {
		t.Errorf("sessions stored without auth: %d", len(store.sessions))
	}
}

// TestIngestRawBody verifies a raw-body upload is parsed, stored and logged.
func TestIngestRawBody(t *testing.T) {
	s, store := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, ingestRequest(intervalsFile, "vo2.mrc"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res ingest.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.SessionsInserted != 1 || res.Category != "cycling" {
		t.Errorf("result = %+v", res)
	}
	if len(store.sessions) != 1 {
		t.Errorf("stored sessions = %d, want 1", len(store.sessions))
	}
	if len(store.logs) != 1 || store.logs[0].Status != "success" || store.logs[0].FileName != "vo2.mrc" {
		t.Errorf("import logs = %+v", store.logs)
	}
}

// TestIngestDuplicateUpload verifies the second identical upload is reported
// as a duplicate and stores nothing new.
func TestIngestDuplicateUpload(t *testing.T) {
	s, store := newTestServer(t)
	for range 2 {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, ingestRequest(intervalsFile, "vo2.mrc"))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if len(store.sessions) != 1 {
		t.Errorf("stored sessions = %d, want 1", len(store.sessions))
	}
	if store.logs[1].Status != "duplicate" {
		t.Errorf("second log status = %q, want duplicate", store.logs[1].Status)
	}
}

// TestIngestMultipart verifies the multipart "file" field is accepted.
func TestIngestMultipart(t *testing.T) {
	s, store := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "dir/VO2.mrc")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(intervalsFile))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/mrc", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	for _, d := range store.sessions {
		if d.SourceFile != "VO2.mrc" {
			t.Errorf("source file = %q, want VO2.mrc", d.SourceFile)
		}
	}
}

// TestIngestInvalidFormat verifies format errors map to 400 with a stable prefix.
func TestIngestInvalidFormat(t *testing.T) {
	s, store := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, ingestRequest("[COURSE HEADER]\n[END COURSE HEADER]\n", "bad.mrc"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "invalid file format: missing data section" {
		t.Errorf("error = %q", body["error"])
	}
	if len(store.logs) != 1 || store.logs[0].Status != "error" {
		t.Errorf("import logs = %+v, want one error entry", store.logs)
	}
}

// TestUploadTooLarge verifies bodies over the upload limit get 413 on both
// upload routes and nothing is stored.
func TestUploadTooLarge(t *testing.T) {
	big := intervalsFile + strings.Repeat("\n", maxUploadBytes)
	tests := []struct {
		name string
		req  *http.Request
	}{
		{"ingest", ingestRequest(big, "big.mrc")},
		{"parse", httptest.NewRequest(http.MethodPost, "/api/v1/parse?filename=big.mrc", strings.NewReader(big))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, tt.req)

			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), "file too large") {
				t.Errorf("body = %s", rec.Body.String())
			}
			if len(store.sessions) != 0 {
				t.Errorf("stored %d sessions", len(store.sessions))
			}
		})
	}
}

// TestParseEndpoint verifies parse-only requests return the workout and
// summary without touching storage.
func TestParseEndpoint(t *testing.T) {
	s, store := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/parse?filename=vo2.mrc", strings.NewReader(intervalsFile))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Workout struct {
			Category string            `json:"category"`
			Blocks   []json.RawMessage `json:"blocks"`
		} `json:"workout"`
		Summary struct {
			EstimatedTSS   int    `json:"estimated_tss"`
			IntensityRange string `json:"intensity_range"`
		} `json:"summary"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Workout.Category != "cycling" || len(body.Workout.Blocks) == 0 {
		t.Errorf("workout = %+v", body.Workout)
	}
	if body.Summary.IntensityRange != "40-95% FTP" {
		t.Errorf("range = %q, want 40-95%% FTP", body.Summary.IntensityRange)
	}
	if len(store.sessions) != 0 {
		t.Errorf("parse stored %d sessions", len(store.sessions))
	}
}

// TestSessionLifecycle verifies list, get and delete against stored sessions.
func TestSessionLifecycle(t *testing.T) {
	s, store := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, ingestRequest(intervalsFile, "vo2.mrc"))
	var res ingest.Result
	json.NewDecoder(rec.Body).Decode(&res)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions?category=cycling", nil))
	var list []models.TrainingSessionRow
	json.NewDecoder(rec.Body).Decode(&list)
	if len(list) != 1 || list[0].ID.String() != res.SessionID {
		t.Fatalf("list = %+v, want the ingested session", list)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+res.SessionID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var detail storage.SessionDetail
	json.NewDecoder(rec.Body).Decode(&detail)
	if len(detail.Blocks) == 0 {
		t.Error("detail has no blocks")
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+res.SessionID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	if len(store.sessions) != 0 {
		t.Errorf("sessions after delete = %d", len(store.sessions))
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+res.SessionID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

// TestSessionBadRequests verifies input validation on the session routes.
func TestSessionBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v1/sessions/not-a-uuid", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/sessions/not-a-uuid", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/sessions?category=rowing", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/sessions?start=yesterday", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/sessions/" + uuid.NewString(), http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

// TestHealth verifies the health endpoint reflects database reachability.
func TestHealth(t *testing.T) {
	s, store := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	store.pingErr = context.DeadlineExceeded
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestParseTimeRange verifies defaults and date-only end-of-day handling.
func TestParseTimeRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2026-01-01&end=2026-01-31", nil)
	start, end, err := parseTimeRange(req)
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want start of Feb 1", end)
	}

	start, end, err = parseTimeRange(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	if d := end.Sub(start); d < 29*24*time.Hour || d > 31*24*time.Hour {
		t.Errorf("default range = %v, want about 30 days", d)
	}
}
