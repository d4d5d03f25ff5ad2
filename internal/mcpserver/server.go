// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the built site to LLM tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/resolver"
	"github.com/starford/vos/internal/siteservice"
)

const contractURI = "vos://artifact-format"

// Server wraps the MCP server with the site tools.
type Server struct {
	mcp *server.MCPServer
	svc *siteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *siteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Vos",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_artifacts",
		mcp.WithDescription("List built artifacts, optionally only those carrying a tag."),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
	), s.listArtifacts)

	s.mcp.AddTool(mcp.NewTool("get_artifact",
		mcp.WithDescription("Read one built artifact: header fields, resolved HTML content and related pages."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Artifact name, case-insensitive")),
	), s.getArtifact)

	s.mcp.AddTool(mcp.NewTool("render_markup",
		mcp.WithDescription("Render a markup fragment to HTML against the current site. "+
			"Read the format first via get_artifact_format or the "+contractURI+" resource."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Markup to render")),
	), s.renderMarkup)

	s.mcp.AddTool(mcp.NewTool("log_summary",
		mcp.WithDescription("Aggregate the productivity log: hours, days, logs, date range and per-division hours."),
		mcp.WithString("project", mcp.Description("Optional project, case-insensitive")),
	), s.logSummary)

	s.mcp.AddTool(mcp.NewTool("recent_logs",
		mcp.WithDescription("Return the leading rows of the productivity log, formatted as in pages."),
		mcp.WithNumber("count", mcp.Description("Number of rows (default 10)")),
	), s.recentLogs)

	s.mcp.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate an inline %[...] expression against the current site."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression, e.g. logHours('vos')")),
	), s.evaluate)

	s.mcp.AddTool(mcp.NewTool("get_artifact_format",
		mcp.WithDescription("Returns the artifact file and markup format."),
	), s.getFormat)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Artifact Format",
			mcp.WithResourceDescription("Artifact header fields and markup syntax."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listArtifacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.ListArtifacts(ctx, req.GetString("tag", ""))
	if err != nil {
		return toolError(err), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s\t%s\t%s", it.Name, it.Page, strings.Join(it.Tags, ","))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no artifacts found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getArtifact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.GetArtifact(ctx, name)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a), nil
}

func (s *Server) renderMarkup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	html, err := s.svc.RenderMarkup(ctx, text)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(html), nil
}

func (s *Server) logSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.svc.LogSummary(ctx, req.GetString("project", ""))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sum), nil
}

func (s *Server) recentLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := req.GetInt("count", 10)
	if count < 0 {
		return mcp.NewToolResultError("count must not be negative"), nil
	}
	rows, err := s.svc.RecentLogs(ctx, count)
	if err != nil {
		return toolError(err), nil
	}
	lines := make([]string, len(rows))
	for i, e := range rows {
		lines[i] = resolver.FormatLogLine(e)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) evaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.Evaluate(ctx, code)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) getFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrNotReady):
		return mcp.NewToolResultError("site has not been built yet")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}
