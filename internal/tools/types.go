// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/hippocampus/internal/config"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/memory"
)

// Handler is the signature mcp-go expects for tool handlers
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Engine *engine.Engine
	// ProjectPath is used when a call does not name a project
	ProjectPath string
	Search      config.SearchConfig
	Retention   config.RetentionConfig
}

// NewToolContext creates a new tool context
func NewToolContext(eng *engine.Engine, projectPath string, cfg *config.Config) *ToolContext {
	return &ToolContext{
		Engine:      eng,
		ProjectPath: projectPath,
		Search:      cfg.Search,
		Retention:   cfg.Retention,
	}
}

// projectPath returns the caller's project_path or the server default
func (tc *ToolContext) projectPath(request mcp.CallToolRequest) string {
	return request.GetString("project_path", tc.ProjectPath)
}

// jsonResult renders an envelope as text content
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult renders the failure envelope and flags the result as an error
func errorResult(err error) *mcp.CallToolResult {
	b, _ := json.Marshal(engine.Failure(err))
	return mcp.NewToolResultError(string(b))
}

// respond renders resp, or the failure envelope when err is set
func respond(resp interface{}, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(resp)
}

func tierArg(request mcp.CallToolRequest, fallback memory.Tier) (memory.Tier, error) {
	raw := request.GetString("tier", "")
	if raw == "" {
		return fallback, nil
	}
	return memory.ParseTier(raw)
}

func withTier(fallback memory.Tier) mcp.ToolOption {
	return mcp.WithString("tier",
		mcp.Description("Which memories to consider: project, global or both. Default: "+string(fallback)),
		mcp.Enum("project", "global", "both"),
	)
}

func withProjectPath() mcp.ToolOption {
	return mcp.WithString("project_path",
		mcp.Description("Absolute project directory. Defaults to the server's project."),
	)
}
