package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hnreader/hnfav/internal/config"
	"github.com/hnreader/hnfav/internal/db"
	"github.com/hnreader/hnfav/internal/errors"
	"github.com/hnreader/hnfav/internal/export"
	"github.com/hnreader/hnfav/internal/item"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	exportDir string
}

// NewHandlers creates a new Handlers instance. exportDir is the
// app-private directory that export deliveries land in.
func NewHandlers(db *sql.DB, cfg *config.Config, exportDir string) *Handlers {
	return &Handlers{db: db, cfg: cfg, exportDir: exportDir}
}

// Request types for each tool

// AddRequest represents the arguments for favorites_add.
type AddRequest struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	SavedAt *int64 `json:"saved_at,omitempty"`
}

// RemoveRequest represents the arguments for favorites_remove.
type RemoveRequest struct {
	ID  string   `json:"id,omitempty"`
	IDs []string `json:"ids,omitempty"`
}

// ClearRequest represents the arguments for favorites_clear.
type ClearRequest struct {
	Filter string `json:"filter,omitempty"`
}

// ListRequest represents the arguments for favorites_list.
type ListRequest struct {
	Filter string `json:"filter,omitempty"`
}

// CheckRequest represents the arguments for favorites_check.
type CheckRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for favorites_export.
type ExportRequest struct {
	Format string `json:"format"`
	Filter string `json:"filter,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Tool definitions

var addToolDef = mcp.NewTool("favorites_add",
	mcp.WithDescription("Save an item to the favorites collection. An existing item with the same id is replaced."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Item URL")),
	mcp.WithString("id", mcp.Description("Item id. Generated when omitted.")),
	mcp.WithString("title", mcp.Description("Item title. May be empty.")),
	mcp.WithNumber("saved_at", mcp.Description("Save time as epoch seconds. Defaults to now.")),
)

var removeToolDef = mcp.NewTool("favorites_remove",
	mcp.WithDescription("Remove saved items by id."),
	mcp.WithString("id", mcp.Description("Single item id to remove")),
	mcp.WithArray("ids", mcp.Description("Item ids to remove"),
		mcp.Items(map[string]any{"type": "string"})),
)

var clearToolDef = mcp.NewTool("favorites_clear",
	mcp.WithDescription("Remove all saved items, or only those whose title matches a filter."),
	mcp.WithString("filter", mcp.Description("Title substring. Empty clears everything.")),
)

var listToolDef = mcp.NewTool("favorites_list",
	mcp.WithDescription("List saved items, newest first."),
	mcp.WithString("filter", mcp.Description("Title substring. Empty lists everything.")),
)

var checkToolDef = mcp.NewTool("favorites_check",
	mcp.WithDescription("Check whether an item id is saved."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
)

var exportToolDef = mcp.NewTool("favorites_export",
	mcp.WithDescription("Export saved items into a document. Without a path the document lands in the app export directory and is promoted to Downloads."),
	mcp.WithString("format", mcp.Required(),
		mcp.Description("Document format"),
		mcp.Enum("csv", "txt", "html", "md", "json")),
	mcp.WithString("filter", mcp.Description("Title substring. Empty exports everything.")),
	mcp.WithString("path", mcp.Description("Write the document to this file instead of the export directory.")),
)

// Handler implementations

// HandleAdd handles the favorites_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	url := strings.TrimSpace(input.URL)
	if url == "" {
		return errorResult(errors.NewInvalidRequest("url is required")), nil
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id, err = item.NewID()
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
	}

	savedAt := time.Now().Unix()
	if input.SavedAt != nil {
		savedAt = *input.SavedAt
	}

	it := item.Item{ID: id, URL: url, Title: input.Title, SavedAt: savedAt}
	if err := db.Insert(h.db, it); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"id":       it.ID,
		"url":      it.URL,
		"title":    it.Title,
		"saved_at": it.SavedAt,
	})
}

// HandleRemove handles the favorites_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	ids := make([]string, 0, len(input.IDs)+1)
	if input.ID != "" {
		ids = append(ids, input.ID)
	}
	ids = append(ids, input.IDs...)
	if len(ids) == 0 {
		return errorResult(errors.NewInvalidRequest("id or ids is required")), nil
	}

	removed, err := db.DeleteByIDs(h.db, ids)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"removed": removed})
}

// HandleClear handles the favorites_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var removed int
	if input.Filter == "" {
		removed, err = db.DeleteAll(h.db)
	} else {
		removed, err = db.DeleteByTitle(h.db, input.Filter)
	}
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"removed": removed})
}

// HandleList handles the favorites_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	rs, err := db.QueryByTitle(h.db, input.Filter)
	if err != nil {
		return errorResult(err), nil
	}
	defer rs.Close()

	items, err := rs.Items()
	if err != nil {
		return errorResult(err), nil
	}

	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, map[string]any{
			"id":       it.ID,
			"title":    it.Title,
			"url":      it.URL,
			"hn_url":   it.DiscussionURL(),
			"saved_at": it.SavedAt,
		})
	}

	return successResult(map[string]any{"items": out, "total": len(out)})
}

// HandleCheck handles the favorites_check tool call.
func (h *Handlers) HandleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	saved, err := db.Exists(h.db, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"id": input.ID, "favorite": saved})
}

// HandleExport handles the favorites_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	format, err := export.ParseFormat(input.Format)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	o := export.New(h.db, h.cfg, h.exportDir, nil, nil, nil)

	if input.Path != "" {
		dst, err := os.Create(input.Path)
		if err != nil {
			return errorResult(errors.NewDeliveryFailed(err)), nil
		}
		if err := o.ExportNowTo(input.Filter, format, dst); err != nil {
			dst.Close()
			return errorResult(err), nil
		}
		if err := dst.Close(); err != nil {
			return errorResult(errors.NewDeliveryFailed(err)), nil
		}
		return successResult(map[string]any{"file": input.Path, "format": string(format)})
	}

	ref, err := o.ExportNow(input.Filter, format)
	if err != nil {
		return errorResult(err), nil
	}
	// Let the downloads promotion and share action settle before reporting.
	o.Wait()

	return successResult(map[string]any{"file": ref, "format": string(format)})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if favErr, ok := err.(*errors.FavError); ok {
		errorObj := map[string]any{
			"code":    favErr.Code,
			"message": favErr.Message,
			"status":  favErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if favErr.Code != errors.ErrInternal && favErr.Details != nil {
			errorObj["details"] = favErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
