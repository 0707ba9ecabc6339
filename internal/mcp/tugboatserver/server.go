// Package tugboatserver exposes the Tugboat API as MCP tools and resources.
package tugboatserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
	"github.com/tugboatqa/tugboat-mcp/internal/version"
)

// Server bundles the dependencies shared by every tool and resource
// handler. One Server serves one Tugboat account.
type Server struct {
	api  *tugboat.Client
	auth *auth.Manager
	log  *slog.Logger
}

// NewServer constructs an MCP server exposing the full Tugboat tool and
// resource catalog, backed by api and gated by authm.
func NewServer(api *tugboat.Client, authm *auth.Manager, logger *slog.Logger) *mcp.Server {
	s := &Server{api: api, auth: authm, log: logger}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tugboat-mcp",
		Version: version.Version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})

	s.addPreviewTools(server)
	s.addProjectTools(server)
	s.addRepositoryTools(server)
	s.addSearchTools(server)
	s.addResources(server)

	return server
}

// operation describes one tool: In carries the input schema, resource
// derives the authorization subject from the input, and run performs the
// upstream call and renders the reply text.
type operation[In any] struct {
	tool     *mcp.Tool
	action   auth.Action
	resource func(In) string
	// verb names the attempt in error text, as in "fetching preview".
	verb string
	run  func(ctx context.Context, in In) (string, error)
}

// addOperation registers op on server. Every tool follows the same
// sequence: authorize, run, render. Failures never surface as protocol
// errors; they come back as a text block flagged with IsError.
func addOperation[In any](server *mcp.Server, s *Server, op operation[In]) {
	if op.tool.Annotations == nil && op.action == auth.ActionRead {
		op.tool.Annotations = &mcp.ToolAnnotations{ReadOnlyHint: true}
	}
	mcp.AddTool(server, op.tool, func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		if err := s.auth.IsAuthorized(ctx, op.resource(in), op.action); err != nil {
			s.log.WarnContext(ctx, "tool call denied", "tool", op.tool.Name, "error", err)
			return errorResult("Error: " + err.Error()), nil, nil
		}
		text, err := op.run(ctx, in)
		if err != nil {
			s.log.ErrorContext(ctx, "tool call failed",
				"tool", op.tool.Name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err)
			return errorResult(fmt.Sprintf("Error %s: %v", op.verb, err)), nil, nil
		}
		s.log.InfoContext(ctx, "tool call completed",
			"tool", op.tool.Name,
			"duration_ms", time.Since(start).Milliseconds())
		return textResult(text), nil, nil
	})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// Inputs shared by tools that address one object by id.

type idInput struct {
	ID string `json:"id"`
}

type confirmInput struct {
	ID      string `json:"id"`
	Confirm bool   `json:"confirm,omitempty"`
}

type jobsInput struct {
	ID     string `json:"id"`
	Active *bool  `json:"active,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type statsInput struct {
	ID     string `json:"id"`
	Item   string `json:"item,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// jobsRun builds the run step shared by the per-entity job listing tools.
func jobsRun(kind string, fetch func(context.Context, string, tugboat.JobsOptions) ([]tugboat.Job, error)) func(context.Context, jobsInput) (string, error) {
	return func(ctx context.Context, in jobsInput) (string, error) {
		if err := tugboat.ValidateID(kind, in.ID); err != nil {
			return "", err
		}
		jobs, err := fetch(ctx, in.ID, tugboat.JobsOptions{Active: in.Active, Limit: in.Limit})
		if err != nil {
			return "", err
		}
		return listReport("Jobs", jobEntries(jobs)), nil
	}
}

// statsRun builds the run step shared by the per-entity statistics tools.
// The series defaults to "size" when no item is named.
func statsRun(kind string, fetch func(context.Context, string, tugboat.StatsOptions) ([]tugboat.StatPoint, error)) func(context.Context, statsInput) (string, error) {
	return func(ctx context.Context, in statsInput) (string, error) {
		if err := tugboat.ValidateID(kind, in.ID); err != nil {
			return "", err
		}
		item := in.Item
		if item == "" {
			item = "size"
		}
		points, err := fetch(ctx, in.ID, tugboat.StatsOptions{
			Item:   item,
			Limit:  in.Limit,
			Before: in.Before,
			After:  in.After,
		})
		if err != nil {
			return "", err
		}
		return statsReport(item, points), nil
	}
}
