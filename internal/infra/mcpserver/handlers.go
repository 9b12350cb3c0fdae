package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
)

type toolHandler struct {
	ref      *standards.Reference
	rounding risk.Rounding
}

func (h *toolHandler) handleScoreRisk(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := risk.Input{
		Critical:       request.GetInt("critical", 0),
		HighWarnings:   request.GetInt("high_warnings", 0),
		MediumWarnings: request.GetInt("medium_warnings", 0),
	}
	if _, ok := request.GetArguments()["compliance_percent"]; ok {
		p := request.GetFloat("compliance_percent", 0)
		in.CompliancePercent = &p
	}

	a, err := risk.ScoreWith(in, h.rounding)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(a)
}

func (h *toolHandler) handleBuildReport(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("analysis")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var res analysis.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid analysis JSON: %v", err)), nil
	}
	rep, err := analysis.BuildReport(&res, h.rounding)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}
	return jsonResult(rep)
}

func (h *toolHandler) handleLookupStandard(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := h.ref.Get(code)
	if errors.Is(err, standards.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown standard %q", code)), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonResult(st)
}

func (h *toolHandler) handleSearchStandards(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := h.ref.Search(request.GetString("category", ""), request.GetString("severity", ""))
	return jsonResult(list)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
