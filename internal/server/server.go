package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/trainerlab/internal/ingest"
	"github.com/claude/trainerlab/internal/models"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the slice of *storage.DB the HTTP API needs.
type Store interface {
	Ping(ctx context.Context) error
	QuerySessions(ctx context.Context, start, end time.Time, userID int, category string) ([]models.TrainingSessionRow, error)
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*storage.SessionDetail, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID, userID int) (bool, error)
	GetTrainingLoad(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.TrainingLoadPeriod, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	UserResolver
}

// Ingester stores one uploaded training file.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, r io.Reader, userID int) (*ingest.Result, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     Store
	mrc    Ingester
	whois  WhoIser
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, mrcProvider Ingester, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		mrc:    mrcProvider,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches request identity from the local dev user to the
// tailnet peer reported by WhoIs. Call before serving.
func (s *Server) SetTailscale(who WhoIser) {
	s.whois = who
}

// MountMCP serves an MCP transport under /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
	s.router.Handle("/mcp/*", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identify)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/v1/me", s.handleMe)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/mrc", s.handleMRCIngest)
	})

	s.router.Post("/api/v1/parse", s.handleParse)

	// Read API (no API key; tsnet handles access)
	s.router.Get("/api/v1/sessions", s.handleQuerySessions)
	s.router.Get("/api/v1/sessions/{id}", s.handleGetSession)
	s.router.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)
	s.router.Get("/api/v1/training-load", s.handleTrainingLoad)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/import-logs", s.handleImportLogs)
}

// identify picks the identity middleware at request time so SetTailscale
// can be called after New.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
	})
}
