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

// NewConsolidateTool creates the memory_consolidate tool definition
func NewConsolidateTool() mcp.Tool {
	return mcp.NewTool("memory_consolidate",
		mcp.WithDescription("Delete duplicate memories, keeping the oldest of each group. Acts on the project unless a tier is given; 'both' merges across every scope."),
		withTier(memory.TierProject),
		withProjectPath(),
	)
}

// ConsolidateHandler handles the memory_consolidate tool
func ConsolidateHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierProject)
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.Consolidate(ctx, tier, tc.projectPath(request)))
	}
}

// NewPruneTool creates the memory_prune tool definition
func NewPruneTool() mcp.Tool {
	return mcp.NewTool("memory_prune",
		mcp.WithDescription("Delete never-accessed low and medium confidence memories older than their thresholds. High confidence memories are kept."),
		withTier(memory.TierProject),
		withProjectPath(),
		mcp.WithNumber("low_days", mcp.Description("Age in days for low confidence. Default: 30")),
		mcp.WithNumber("medium_days", mcp.Description("Age in days for medium confidence. Default: 90")),
	)
}

// PruneHandler handles the memory_prune tool
func PruneHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierProject)
		if err != nil {
			return errorResult(err), nil
		}
		low := int(request.GetFloat("low_days", float64(tc.Retention.LowDays)))
		medium := int(request.GetFloat("medium_days", float64(tc.Retention.MediumDays)))
		return respond(tc.Engine.TieredPrune(ctx, tier, tc.projectPath(request), low, medium))
	}
}

// NewChainTool creates the memory_chain tool definition
func NewChainTool() mcp.Tool {
	return mcp.NewTool("memory_chain",
		mcp.WithDescription("Show a memory with the memories it replaced and the memory that replaced it"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID")),
	)
}

// ChainHandler handles the memory_chain tool
func ChainHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.ShowChain(ctx, id))
	}
}

// NewSupersededTool creates the memory_superseded tool definition
func NewSupersededTool() mcp.Tool {
	return mcp.NewTool("memory_superseded",
		mcp.WithDescription("List memories that have been replaced, most recently replaced first"),
		withTier(memory.TierBoth),
		withProjectPath(),
		mcp.WithNumber("limit", mcp.Description("Max entries. Default: 50")),
	)
}

// SupersededHandler handles the memory_superseded tool
func SupersededHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierBoth)
		if err != nil {
			return errorResult(err), nil
		}
		limit := int(request.GetFloat("limit", float64(tc.Search.SupersededLimit)))
		return respond(tc.Engine.ListSuperseded(ctx, tier, tc.projectPath(request), limit))
	}
}

// NewPurgeSupersededTool creates the memory_purge_superseded tool definition
func NewPurgeSupersededTool() mcp.Tool {
	return mcp.NewTool("memory_purge_superseded",
		mcp.WithDescription("Delete memories replaced more than the given number of days ago"),
		withTier(memory.TierProject),
		withProjectPath(),
		mcp.WithNumber("days", mcp.Description("Days since replacement. Default: 30")),
	)
}

// PurgeSupersededHandler handles the memory_purge_superseded tool
func PurgeSupersededHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierProject)
		if err != nil {
			return errorResult(err), nil
		}
		days := int(request.GetFloat("days", float64(tc.Retention.SupersededDays)))
		return respond(tc.Engine.PurgeSuperseded(ctx, tier, tc.projectPath(request), days))
	}
}

// NewPruneDataTool creates the memory_prune_data tool definition
func NewPruneDataTool() mcp.Tool {
	return mcp.NewTool("memory_prune_data",
		mcp.WithDescription("Delete old tool calls, conversation turns and finished sessions. Memories are untouched."),
		mcp.WithNumber("tool_calls_days", mcp.Description("Default: 14")),
		mcp.WithNumber("turns_days", mcp.Description("Default: 30")),
		mcp.WithNumber("sessions_days", mcp.Description("Default: 90")),
		mcp.WithBoolean("dry_run", mcp.Description("Only count what would be deleted")),
	)
}

// PruneDataHandler handles the memory_prune_data tool
func PruneDataHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return respond(tc.Engine.PruneData(ctx, engine.PruneDataInput{
			ToolCallsDays: int(request.GetFloat("tool_calls_days", float64(tc.Retention.ToolCallsDays))),
			TurnsDays:     int(request.GetFloat("turns_days", float64(tc.Retention.TurnsDays))),
			SessionsDays:  int(request.GetFloat("sessions_days", float64(tc.Retention.SessionsDays))),
			DryRun:        request.GetBool("dry_run", false),
		}))
	}
}

// NewStatsTool creates the memory_stats tool definition
func NewStatsTool() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription("Count memories by type, confidence and scope"),
		withTier(memory.TierBoth),
		withProjectPath(),
	)
}

// StatsHandler handles the memory_stats tool
func StatsHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tier, err := tierArg(request, memory.TierBoth)
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.Stats(ctx, tier, tc.projectPath(request)))
	}
}
