package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/claude/trainerlab/internal/mrc"
	"github.com/claude/trainerlab/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	return timeRange(startStr, endStr, 7)
}

// timeRange parses start/end, defaulting end to now and start to days before end.
func timeRange(startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolParseMRC = mcp.NewTool("parse_mrc",
	mcp.WithDescription("Parse the text of an .mrc home-trainer file. Returns the decoded workout (cycling blocks or bodyweight exercises) and a summary with duration, average intensity, estimated TSS and intensity range. Nothing is stored."),
	mcp.WithString("content", mcp.Required(), mcp.Description("Full text of the .mrc file")),
	mcp.WithString("filename", mcp.Description("Original file name, used for naming when the header has no FILE NAME")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List imported training sessions with name, category, level, duration, average intensity and estimated TSS."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("category", mcp.Description("Filter by category"), mcp.Enum("cycling", "ppg")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one stored session with its ordered blocks (cycling) or exercises (ppg)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session UUID as returned by list_sessions")),
)

var toolGetTrainingLoad = mcp.NewTool("get_training_load",
	mcp.WithDescription("Sum of estimated TSS, session counts and minutes per week or month."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 12 weeks ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 week", "1 month")),
)

// --- Tool handlers ---

func (h *handlers) parseMRC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content parameter is required"), nil
	}
	filename := req.GetString("filename", "upload.mrc")

	w, err := mrc.Parse(content, filename)
	if err != nil {
		if mrc.IsFormatError(err) {
			return mcp.NewToolResultError("invalid file format: " + formatKind(err)), nil
		}
		return mcp.NewToolResultError("parse failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"workout": w,
		"summary": w.Summary(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	category := req.GetString("category", "")
	switch mrc.Category(category) {
	case "", mrc.CategoryCycling, mrc.CategoryPPG:
	default:
		return mcp.NewToolResultError("category must be cycling or ppg"), nil
	}

	uid := UserIDFromContext(ctx)
	sessions, err := h.ds.QuerySessions(ctx, start, end, uid, category)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid session ID"), nil
	}

	uid := UserIDFromContext(ctx)
	detail, err := h.ds.GetSession(ctx, id, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("session not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), 84)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "1 week")

	uid := UserIDFromContext(ctx)
	periods, err := h.ds.GetTrainingLoad(ctx, start, end, bucket, uid)
	if err != nil {
		h.log.Error("mcp get_training_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func formatKind(err error) string {
	var fe *mrc.FormatError
	if errors.As(err, &fe) {
		return fe.Kind.String()
	}
	return err.Error()
}
