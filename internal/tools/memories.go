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

// NewAddTool creates the memory_add tool definition
func NewAddTool() mcp.Tool {
	return mcp.NewTool("memory_add",
		mcp.WithDescription("Store something worth remembering across sessions. Refused with a duplicate response when a memory of the same type starts with the same 100 characters."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("convention, architecture, gotcha, api, learning or preference"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The memory text"),
		),
		mcp.WithArray("tags",
			mcp.Description("Labels that also match keyword searches"),
		),
		mcp.WithString("confidence",
			mcp.Description("high, medium or low. Default: high"),
		),
		mcp.WithString("tier",
			mcp.Description("project or global. Default: project"),
			mcp.Enum("project", "global"),
		),
		withProjectPath(),
		mcp.WithString("supersedes",
			mcp.Description("ID of a memory this one replaces"),
		),
		mcp.WithString("session_id", mcp.Description("Session that produced the memory")),
		mcp.WithString("turn_id", mcp.Description("Turn that produced the memory")),
	)
}

// AddHandler handles the memory_add tool
func AddHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawType, err := request.RequireString("type")
		if err != nil {
			return errorResult(err), nil
		}
		content, err := request.RequireString("content")
		if err != nil {
			return errorResult(err), nil
		}

		typ, err := memory.ParseType(rawType)
		if err != nil {
			return errorResult(err), nil
		}
		confidence, err := memory.ParseConfidence(request.GetString("confidence", string(memory.ConfidenceHigh)))
		if err != nil {
			return errorResult(err), nil
		}
		scope, err := memory.ParseScope(request.GetString("tier", string(memory.ScopeProject)))
		if err != nil {
			return errorResult(err), nil
		}

		outcome, err := tc.Engine.Add(ctx, engine.AddInput{
			Type:            typ,
			Content:         content,
			Tags:            request.GetStringSlice("tags", []string{}),
			Confidence:      confidence,
			Tier:            memory.Tier(scope),
			ProjectPath:     tc.projectPath(request),
			SourceSessionID: request.GetString("session_id", ""),
			SourceTurnID:    request.GetString("turn_id", ""),
			Supersedes:      request.GetString("supersedes", ""),
		})
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(outcome.Response())
	}
}

// NewUpdateTool creates the memory_update tool definition
func NewUpdateTool() mcp.Tool {
	return mcp.NewTool("memory_update",
		mcp.WithDescription("Replace a memory's content, optionally moving it to another tier"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
		mcp.WithString("tier",
			mcp.Description("Move the memory to project or global"),
			mcp.Enum("project", "global"),
		),
		withProjectPath(),
	)
}

// UpdateHandler handles the memory_update tool
func UpdateHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return errorResult(err), nil
		}
		content, err := request.RequireString("content")
		if err != nil {
			return errorResult(err), nil
		}

		var tier *memory.Tier
		if raw := request.GetString("tier", ""); raw != "" {
			scope, err := memory.ParseScope(raw)
			if err != nil {
				return errorResult(err), nil
			}
			t := memory.Tier(scope)
			tier = &t
		}

		return respond(tc.Engine.Update(ctx, id, content, tier, tc.projectPath(request)))
	}
}

// NewDeleteTool creates the memory_delete tool definition
func NewDeleteTool() mcp.Tool {
	return mcp.NewTool("memory_delete",
		mcp.WithDescription("Permanently delete a memory"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID")),
	)
}

// DeleteHandler handles the memory_delete tool
func DeleteHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.Delete(ctx, id))
	}
}

// NewGetTool creates the memory_get tool definition
func NewGetTool() mcp.Tool {
	return mcp.NewTool("memory_get",
		mcp.WithDescription("Fetch one memory by ID. Does not count as an access."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Memory ID")),
	)
}

// GetHandler handles the memory_get tool
func GetHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.Get(ctx, id))
	}
}
