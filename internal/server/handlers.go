package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/claude/trainerlab/internal/mrc"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxUploadBytes bounds a single training file upload.
const maxUploadBytes = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleMRCIngest(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	name, body, err := uploadedFile(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer body.Close()

	start := time.Now()
	result, err := s.mrc.Ingest(r.Context(), name, body, uid)
	s.logImport(uid, name, result, err, time.Since(start))
	if err != nil {
		if mrc.IsFormatError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatErrorMessage(err)})
			return
		}
		if isTooLarge(err) {
			s.log.Warn("mrc upload too large", "file", name, "limit", maxUploadBytes)
			writeUploadError(w, err)
			return
		}
		s.log.Error("mrc ingest error", "file", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleParse decodes an upload without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	name, body, err := uploadedFile(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer body.Close()

	workout, err := mrc.ParseReader(body, name)
	if err != nil {
		if mrc.IsFormatError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": formatErrorMessage(err)})
			return
		}
		writeUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"workout": workout,
		"summary": workout.Summary(),
	})
}

func (s *Server) handleQuerySessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	category := r.URL.Query().Get("category")
	switch mrc.Category(category) {
	case "", mrc.CategoryCycling, mrc.CategoryPPG:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category must be cycling or ppg"})
		return
	}

	sessions, err := s.db.QuerySessions(r.Context(), start, end, uid, category)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	detail, err := s.db.GetSession(r.Context(), sessionID, uid)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	deleted, err := s.db.DeleteSession(r.Context(), sessionID, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrainingLoad(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	bucket := "1 week"
	if r.URL.Query().Get("bucket") == "month" {
		bucket = "1 month"
	}
	periods, err := s.db.GetTrainingLoad(r.Context(), start, end, bucket, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	stats, err := s.db.GetDataStats(r.Context(), uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// uploadedFile returns the file name and body of an upload, accepting either
// a multipart "file" field or a raw body named by ?filename=.
func uploadedFile(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("reading multipart file: %w", err)
		}
		return filepath.Base(hdr.Filename), f, nil
	}

	name := r.URL.Query().Get("filename")
	if name == "" {
		name = "upload.mrc"
	}
	return filepath.Base(name), r.Body, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// writeUploadError answers 413 for bodies over maxUploadBytes and 400 for any
// other unreadable upload.
func writeUploadError(w http.ResponseWriter, err error) {
	if isTooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("file too large: limit is %d bytes", maxUploadBytes),
		})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func formatErrorMessage(err error) string {
	var fe *mrc.FormatError
	if errors.As(err, &fe) {
		return "invalid file format: " + fe.Kind.String()
	}
	return "invalid file format: " + err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
