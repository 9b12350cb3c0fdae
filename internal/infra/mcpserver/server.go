// Package mcpserver exposes risk scoring and the standards reference as
// Model Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
)

// New configures the server without starting it.
func New(version string, ref *standards.Reference, rounding risk.Rounding) *server.MCPServer {
	s := server.NewMCPServer(
		"ConStrite Safety Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{ref: ref, rounding: rounding}

	s.AddTool(mcp.NewTool("score_risk",
		mcp.WithDescription("Compute the 0-100 risk score, tier and action urgency from violation counts."),
		mcp.WithNumber("critical", mcp.Description("Number of critical violations."), mcp.Required()),
		mcp.WithNumber("high_warnings", mcp.Description("Number of HIGH severity warnings.")),
		mcp.WithNumber("medium_warnings", mcp.Description("Number of MEDIUM severity warnings.")),
		mcp.WithNumber("compliance_percent", mcp.Description("Overall compliance 0-100. Omit when unknown.")),
	), h.handleScoreRisk)

	s.AddTool(mcp.NewTool("build_report",
		mcp.WithDescription("Score a full analysis JSON and return the prioritized action plan and financial impact."),
		mcp.WithString("analysis", mcp.Description("Analysis result JSON as produced by the vision model."), mcp.Required()),
	), h.handleBuildReport)

	s.AddTool(mcp.NewTool("lookup_standard",
		mcp.WithDescription("Look up a safety standard by code, e.g. IS_2925_1984."),
		mcp.WithString("code", mcp.Description("Standard code."), mcp.Required()),
	), h.handleLookupStandard)

	s.AddTool(mcp.NewTool("search_standards",
		mcp.WithDescription("List standards filtered by category and severity."),
		mcp.WithString("category", mcp.Description("Category such as PPE or FALL_PROTECTION. Empty matches any.")),
		mcp.WithString("severity", mcp.Description("Severity filter."), mcp.Enum("CRITICAL", "HIGH", "MEDIUM")),
	), h.handleSearchStandards)

	return s
}

// Serve runs the server on stdio until the client disconnects.
func Serve(_ context.Context, s *server.MCPServer) error {
	return server.ServeStdio(s)
}
