// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tejzpr/hippocampus/internal/store"
)

// NewSessionStartTool creates the session_start tool definition
func NewSessionStartTool() mcp.Tool {
	return mcp.NewTool("session_start",
		mcp.WithDescription("Record the start of an assistant session and the project's git status"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("The assistant's session ID")),
		withProjectPath(),
	)
}

// SessionStartHandler handles the session_start tool
func SessionStartHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.StartSession(ctx, sessionID, tc.projectPath(request)))
	}
}

// NewSessionEndTool creates the session_end tool definition
func NewSessionEndTool() mcp.Tool {
	return mcp.NewTool("session_end",
		mcp.WithDescription("Mark a session completed"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID or the assistant's session ID")),
		mcp.WithString("summary", mcp.Description("What the session accomplished")),
	)
}

// SessionEndHandler handles the session_end tool
func SessionEndHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.EndSession(ctx, sessionID, request.GetString("summary", "")))
	}
}

// NewTurnStartTool creates the turn_start tool definition
func NewTurnStartTool() mcp.Tool {
	return mcp.NewTool("turn_start",
		mcp.WithDescription("Open the next conversation turn of a session"),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID or the assistant's session ID")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("The user's prompt")),
		mcp.WithString("model", mcp.Description("Model answering the turn")),
	)
}

// TurnStartHandler handles the turn_start tool
func TurnStartHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := request.RequireString("session_id")
		if err != nil {
			return errorResult(err), nil
		}
		prompt, err := request.RequireString("prompt")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.StartTurn(ctx, sessionID, prompt, request.GetString("model", "")))
	}
}

// NewTurnFinishTool creates the turn_finish tool definition
func NewTurnFinishTool() mcp.Tool {
	return mcp.NewTool("turn_finish",
		mcp.WithDescription("Store the assistant's response and token usage for a turn"),
		mcp.WithString("turn_id", mcp.Required(), mcp.Description("Turn ID")),
		mcp.WithString("response", mcp.Required(), mcp.Description("The assistant's response")),
		mcp.WithNumber("input_tokens", mcp.Description("Prompt tokens")),
		mcp.WithNumber("output_tokens", mcp.Description("Completion tokens")),
	)
}

// TurnFinishHandler handles the turn_finish tool
func TurnFinishHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		turnID, err := request.RequireString("turn_id")
		if err != nil {
			return errorResult(err), nil
		}
		response, err := request.RequireString("response")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.FinishTurn(ctx, turnID, response,
			optionalInt(request, "input_tokens"), optionalInt(request, "output_tokens")))
	}
}

// NewToolCallTool creates the tool_call_record tool definition
func NewToolCallTool() mcp.Tool {
	return mcp.NewTool("tool_call_record",
		mcp.WithDescription("Record a tool invocation made during a session"),
		mcp.WithString("tool_name", mcp.Required(), mcp.Description("Name of the tool that ran")),
		mcp.WithString("session_id", mcp.Description("Session ID")),
		mcp.WithString("turn_id", mcp.Description("Turn ID")),
		mcp.WithString("parameters", mcp.Description("Tool input, usually JSON")),
		mcp.WithString("result_summary", mcp.Description("Short description of the outcome")),
	)
}

// ToolCallHandler handles the tool_call_record tool
func ToolCallHandler(tc *ToolContext) Handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		toolName, err := request.RequireString("tool_name")
		if err != nil {
			return errorResult(err), nil
		}
		return respond(tc.Engine.RecordToolCall(ctx, store.ToolCallInput{
			SessionID:     request.GetString("session_id", ""),
			TurnID:        request.GetString("turn_id", ""),
			ToolName:      toolName,
			Parameters:    request.GetString("parameters", ""),
			ResultSummary: request.GetString("result_summary", ""),
		}))
	}
}

func optionalInt(request mcp.CallToolRequest, key string) *int {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := int(request.GetFloat(key, 0))
	return &v
}
