// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

import (
	"context"
	"errors"
	"log"

	"github.com/tejzpr/hippocampus/internal/git"
	"github.com/tejzpr/hippocampus/internal/store"
)

// StartSession records a new session and the git state of its project
func (e *Engine) StartSession(ctx context.Context, claudeSessionID, projectPath string) (*SessionResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if claudeSessionID == "" {
		return nil, errors.New("session id must not be empty")
	}

	var gitStatus string
	if projectPath != "" {
		snap, err := git.Capture(projectPath)
		if err != nil {
			log.Printf("Warning: could not read git status for %s: %v", projectPath, err)
		} else if gitStatus, err = snap.JSON(); err != nil {
			log.Printf("Warning: could not encode git status: %v", err)
		}
	}

	sess, err := e.store.CreateSession(ctx, claudeSessionID, projectPath, gitStatus)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Success: true, Session: *sess}, nil
}

// EndSession marks a session completed
func (e *Engine) EndSession(ctx context.Context, ref, summary string) (*SessionResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	sess, err := e.store.EndSession(ctx, ref, summary)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{Success: true, Session: *sess}, nil
}

// StartTurn opens the next turn of a session
func (e *Engine) StartTurn(ctx context.Context, sessionRef, prompt, model string) (*TurnResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	turn, err := e.store.CreateTurn(ctx, sessionRef, prompt, model)
	if err != nil {
		return nil, err
	}
	return &TurnResponse{Success: true, Turn: *turn}, nil
}

// FinishTurn stores the assistant response and token usage of a turn
func (e *Engine) FinishTurn(ctx context.Context, turnID, response string, inputTokens, outputTokens *int) (*TurnResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	turn, err := e.store.UpdateTurn(ctx, turnID, response, inputTokens, outputTokens)
	if err != nil {
		return nil, err
	}
	return &TurnResponse{Success: true, Turn: *turn}, nil
}

// RecordToolCall stores one tool invocation
func (e *Engine) RecordToolCall(ctx context.Context, in store.ToolCallInput) (*ToolCallResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if in.ToolName == "" {
		return nil, errors.New("tool name must not be empty")
	}

	call, err := e.store.RecordToolCall(ctx, in)
	if err != nil {
		return nil, err
	}
	return &ToolCallResponse{Success: true, ToolCall: *call}, nil
}
