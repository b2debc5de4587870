// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/memory"
)

// NewSearchTool creates the memory_search tool definition
func NewSearchTool() mcp.Tool {
	return mcp.NewTool("memory_search",
		mcp.WithDescription("Find memories whose content or tags contain a keyword. Results are ranked by confidence, then newest first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Keyword, matched case-insensitively")),
		withTier(memory.TierBoth),
		withProjectPath(),
		mcp.WithNumber("limit", mcp.Description("Max results. Default: 30")),
		mcp.WithBoolean("include_superseded", mcp.Description("Include replaced memories (default: false)")),
	)
}

// SearchHandler handles the memory_search tool
func SearchHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return errorResult(err), nil
		}
		in, err := tc.searchInput(request)
		if err != nil {
			return errorResult(err), nil
		}
		in.Query = query
		return respond(tc.Engine.Search(ctx, in))
	}
}

// NewSearchTypeTool creates the memory_search_type tool definition
func NewSearchTypeTool() mcp.Tool {
	return mcp.NewTool("memory_search_type",
		mcp.WithDescription("List memories of one type, optionally narrowed by keyword"),
		mcp.WithString("type", mcp.Required(), mcp.Description("convention, architecture, gotcha, api, learning or preference")),
		mcp.WithString("query", mcp.Description("Optional keyword")),
		withTier(memory.TierBoth),
		withProjectPath(),
		mcp.WithNumber("limit", mcp.Description("Max results. Default: 30")),
		mcp.WithBoolean("include_superseded", mcp.Description("Include replaced memories (default: false)")),
	)
}

// SearchTypeHandler handles the memory_search_type tool
func SearchTypeHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawType, err := request.RequireString("type")
		if err != nil {
			return errorResult(err), nil
		}
		typ, err := memory.ParseType(rawType)
		if err != nil {
			return errorResult(err), nil
		}
		in, err := tc.searchInput(request)
		if err != nil {
			return errorResult(err), nil
		}
		in.Query = request.GetString("query", "")
		return respond(tc.Engine.SearchByType(ctx, typ, in))
	}
}

func (tc *ToolContext) searchInput(request mcp.CallToolRequest) (engine.SearchInput, error) {
	tier, err := tierArg(request, memory.TierBoth)
	if err != nil {
		return engine.SearchInput{}, err
	}
	return engine.SearchInput{
		Tier:              tier,
		ProjectPath:       tc.projectPath(request),
		Limit:             int(request.GetFloat("limit", float64(tc.Search.DefaultLimit))),
		IncludeSuperseded: request.GetBool("include_superseded", false),
	}, nil
}

// NewContextTool creates the memory_context tool definition
func NewContextTool() mcp.Tool {
	return mcp.NewTool("memory_context",
		mcp.WithDescription("Load the memories worth knowing at the start of a session, rendered as a markdown block"),
		withProjectPath(),
		mcp.WithNumber("limit", mcp.Description("Max memories. Default: 10")),
	)
}

// ContextHandler handles the memory_context tool
func ContextHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := int(request.GetFloat("limit", float64(tc.Search.ContextLimit)))
		return respond(tc.Engine.GetContext(ctx, tc.projectPath(request), limit))
	}
}

// NewRecentTool creates the memory_recent tool definition
func NewRecentTool() mcp.Tool {
	return mcp.NewTool("memory_recent",
		mcp.WithDescription("List the newest memories in a tier with the tier's total count"),
		withTier(memory.TierBoth),
		withProjectPath(),
		mcp.WithNumber("limit", mcp.Description("Max memories. Default: 10")),
	)
}

// RecentHandler handles the memory_recent tool
func RecentHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierBoth)
		if err != nil {
			return errorResult(err), nil
		}
		limit := int(request.GetFloat("limit", float64(tc.Search.RecentLimit)))
		return respond(tc.Engine.ListRecent(ctx, tier, tc.projectPath(request), limit))
	}
}
