// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tejzpr/hippocampus/internal/database"
	"gorm.io/gorm"
)

// CreateSession records the start of an assistant session. gitStatus is
// an already encoded snapshot and may be empty.
func (s *Store) CreateSession(ctx context.Context, claudeSessionID, projectPath, gitStatus string) (*database.Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	sess := database.Session{
		ID:              id,
		ClaudeSessionID: claudeSessionID,
		ProjectPath:     optional(projectPath),
		GitStatus:       optional(gitStatus),
		Status:          database.SessionActive,
		StartedAt:       now,
		CreatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &sess, nil
}

// FindSession looks a session up by its own id or by the assistant's
// session id
func (s *Store) FindSession(ctx context.Context, ref string) (*database.Session, error) {
	var sess database.Session
	err := s.db.WithContext(ctx).
		Where("id = ? OR claude_session_id = ?", ref, ref).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "Session", ID: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return &sess, nil
}

// EndSession marks a session completed. An empty summary keeps any
// previous one.
func (s *Store) EndSession(ctx context.Context, ref, summary string) (*database.Session, error) {
	sess, err := s.FindSession(ctx, ref)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	updates := map[string]interface{}{
		"status":   database.SessionCompleted,
		"ended_at": now,
	}
	if summary != "" {
		updates["summary"] = summary
	}
	if err := s.db.WithContext(ctx).Model(&database.Session{}).Where("id = ?", sess.ID).UpdateColumns(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	return s.FindSession(ctx, sess.ID)
}

// CreateTurn opens the next numbered turn of a session
func (s *Store) CreateTurn(ctx context.Context, sessionRef, prompt, model string) (*database.ConversationTurn, error) {
	sess, err := s.FindSession(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}

	var turn database.ConversationTurn
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&database.ConversationTurn{}).
			Where("session_id = ?", sess.ID).
			Select("COALESCE(MAX(turn_number), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		next := last + 1

		now := s.timestamp()
		turn = database.ConversationTurn{
			ID:         id,
			SessionID:  sess.ID,
			TurnNumber: next,
			UserPrompt: prompt,
			ModelUsed:  optional(model),
			StartedAt:  now,
			CreatedAt:  now,
		}
		return tx.Create(&turn).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create turn: %w", err)
	}
	return &turn, nil
}

// UpdateTurn stores the assistant's response and token usage
func (s *Store) UpdateTurn(ctx context.Context, turnID, response string, inputTokens, outputTokens *int) (*database.ConversationTurn, error) {
	result := s.db.WithContext(ctx).Model(&database.ConversationTurn{}).
		Where("id = ?", turnID).
		UpdateColumns(map[string]interface{}{
			"assistant_response": response,
			"input_tokens":       inputTokens,
			"output_tokens":      outputTokens,
			"ended_at":           s.timestamp(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update turn: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, &NotFoundError{Kind: "Turn", ID: turnID}
	}

	var turn database.ConversationTurn
	if err := s.db.WithContext(ctx).Where("id = ?", turnID).First(&turn).Error; err != nil {
		return nil, fmt.Errorf("failed to load turn: %w", err)
	}
	return &turn, nil
}

// ToolCallInput describes one tool invocation to record
type ToolCallInput struct {
	SessionID     string
	TurnID        string
	ToolName      string
	Parameters    string
	ResultSummary string
}

// RecordToolCall stores a tool invocation
func (s *Store) RecordToolCall(ctx context.Context, in ToolCallInput) (*database.ToolCall, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	call := database.ToolCall{
		ID:            id,
		SessionID:     optional(in.SessionID),
		TurnID:        optional(in.TurnID),
		ToolName:      in.ToolName,
		Parameters:    optional(in.Parameters),
		ResultSummary: optional(in.ResultSummary),
		CalledAt:      s.timestamp(),
	}
	if err := s.db.WithContext(ctx).Create(&call).Error; err != nil {
		return nil, fmt.Errorf("failed to record tool call: %w", err)
	}
	return &call, nil
}

// LifecycleCounts reports rows removed (or that would be removed) by a
// lifecycle prune
type LifecycleCounts struct {
	ToolCalls int64
	Turns     int64
	Sessions  int64
}

type pruneTarget struct {
	name  string
	model interface{}
	where func(tx *gorm.DB) *gorm.DB
	count *int64
}

// PruneLifecycleData removes tool calls, turns and finished sessions
// older than their thresholds. With dryRun it only counts.
func (s *Store) PruneLifecycleData(ctx context.Context, toolCallDays, turnDays, sessionDays int, dryRun bool) (*LifecycleCounts, error) {
	counts := &LifecycleCounts{}
	targets := []pruneTarget{
		{
			name:  "tool calls",
			model: &database.ToolCall{},
			where: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("called_at < ?", s.cutoff(toolCallDays))
			},
			count: &counts.ToolCalls,
		},
		{
			name:  "turns",
			model: &database.ConversationTurn{},
			where: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("created_at < ?", s.cutoff(turnDays))
			},
			count: &counts.Turns,
		},
		{
			name:  "sessions",
			model: &database.Session{},
			where: func(tx *gorm.DB) *gorm.DB {
				return tx.Where("status <> ? AND started_at < ?", database.SessionActive, s.cutoff(sessionDays))
			},
			count: &counts.Sessions,
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range targets {
			if dryRun {
				if err := t.where(tx.Model(t.model)).Count(t.count).Error; err != nil {
					return fmt.Errorf("failed to count %s: %w", t.name, err)
				}
				continue
			}
			result := t.where(tx).Delete(t.model)
			if result.Error != nil {
				return fmt.Errorf("failed to prune %s: %w", t.name, result.Error)
			}
			*t.count = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
