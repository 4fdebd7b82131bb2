package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/trainerlab/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer,
// falling back to the local user.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return storage.LocalUserID
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server exposing training-file parsing and the stored
// session history.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("trainerlab", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("trainerlab parses .mrc home-trainer files and keeps a history of imported sessions. Use parse_mrc for ad-hoc files; the other tools read stored sessions scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolParseMRC, Handler: h.parseMRC},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetTrainingLoad, Handler: h.getTrainingLoad},
	)

	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resStats, Handler: h.stats},
	)

	return s
}

type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resRecentSessions = mcp.NewResource(
	"trainerlab://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Training sessions imported in the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resStats = mcp.NewResource(
	"trainerlab://stats",
	"Library Stats",
	mcp.WithResourceDescription("Session, block and exercise totals with breakdowns by category and level"),
	mcp.WithMIMEType("application/json"),
)
