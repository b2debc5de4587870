// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
)

func TestStats_ZeroFilledAndScoped(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	addMemory(t, s, NewMemory{Type: memory.TypeGotcha, Confidence: memory.ConfidenceHigh, Content: "g1"})
	addMemory(t, s, NewMemory{Type: memory.TypeGotcha, Confidence: memory.ConfidenceLow, Content: "g2"})
	addMemory(t, s, NewMemory{Type: memory.TypeAPI, Confidence: memory.ConfidenceHigh, Content: "a1", Scope: memory.ScopeGlobal})
	addMemory(t, s, NewMemory{Type: memory.TypeAPI, Content: "elsewhere", ProjectPath: "/work/beta"})

	stats, err := s.Stats(ctx, ReadScope(memory.TierBoth, testProject))
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Len(t, stats.ByType, len(memory.AllTypes))
	assert.Equal(t, int64(2), stats.ByType[memory.TypeGotcha])
	assert.Equal(t, int64(1), stats.ByType[memory.TypeAPI])
	assert.Equal(t, int64(0), stats.ByType[memory.TypePreference])
	assert.Equal(t, int64(2), stats.ByConfidence[memory.ConfidenceHigh])
	assert.Equal(t, int64(0), stats.ByConfidence[memory.ConfidenceMedium])
	assert.Equal(t, int64(1), stats.ByConfidence[memory.ConfidenceLow])
	assert.Equal(t, int64(2), stats.ByScope[memory.ScopeProject])
	assert.Equal(t, int64(1), stats.ByScope[memory.ScopeGlobal])

	stats, err = s.Stats(ctx, ReadScope(memory.TierGlobal, testProject))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(0), stats.ByScope[memory.ScopeProject])
}

func TestStats_NoAccessSideEffect(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	mem := addMemory(t, s, NewMemory{Content: "counted"})
	_, err := s.Stats(ctx, ReadScope(memory.TierBoth, testProject))
	require.NoError(t, err)

	got, err := s.Get(ctx, mem.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AccessCount)
}

func TestSessionsAndTurns(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "claude-123", testProject, `{"branch":"main"}`)
	require.NoError(t, err)
	assert.Equal(t, database.SessionActive, sess.Status)

	found, err := s.FindSession(ctx, "claude-123")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, found.ID)

	first, err := s.CreateTurn(ctx, "claude-123", "hello", "model-a")
	require.NoError(t, err)
	second, err := s.CreateTurn(ctx, sess.ID, "again", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TurnNumber)
	assert.Equal(t, 2, second.TurnNumber)

	in, out := 120, 480
	turn, err := s.UpdateTurn(ctx, first.ID, "hi there", &in, &out)
	require.NoError(t, err)
	require.NotNil(t, turn.AssistantResponse)
	assert.Equal(t, "hi there", *turn.AssistantResponse)
	require.NotNil(t, turn.OutputTokens)
	assert.Equal(t, 480, *turn.OutputTokens)
	assert.NotNil(t, turn.EndedAt)

	_, err = s.UpdateTurn(ctx, "missing", "x", nil, nil)
	assert.True(t, errors.Is(err, ErrNotFound))

	call, err := s.RecordToolCall(ctx, ToolCallInput{SessionID: sess.ID, TurnID: first.ID, ToolName: "Edit", Parameters: `{"file":"a.go"}`})
	require.NoError(t, err)
	assert.Equal(t, "Edit", call.ToolName)

	ended, err := s.EndSession(ctx, "claude-123", "did things")
	require.NoError(t, err)
	assert.Equal(t, database.SessionCompleted, ended.Status)
	require.NotNil(t, ended.Summary)
	assert.Equal(t, "did things", *ended.Summary)
	assert.NotNil(t, ended.EndedAt)

	_, err = s.EndSession(ctx, "nope", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPruneLifecycleData(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	start := clock.now
	clock.now = start.Add(-100 * day)
	oldDone, err := s.CreateSession(ctx, "old-done", testProject, "")
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, "old-active", testProject, "")
	require.NoError(t, err)
	_, err = s.CreateTurn(ctx, oldDone.ID, "old prompt", "")
	require.NoError(t, err)
	_, err = s.RecordToolCall(ctx, ToolCallInput{SessionID: oldDone.ID, ToolName: "Read"})
	require.NoError(t, err)
	_, err = s.EndSession(ctx, oldDone.ID, "")
	require.NoError(t, err)

	clock.now = start.Add(-time.Hour)
	fresh, err := s.CreateSession(ctx, "fresh", testProject, "")
	require.NoError(t, err)
	_, err = s.CreateTurn(ctx, fresh.ID, "new prompt", "")
	require.NoError(t, err)
	_, err = s.RecordToolCall(ctx, ToolCallInput{SessionID: fresh.ID, ToolName: "Bash"})
	require.NoError(t, err)
	clock.now = start

	dry, err := s.PruneLifecycleData(ctx, 14, 30, 90, true)
	require.NoError(t, err)
	assert.Equal(t, &LifecycleCounts{ToolCalls: 1, Turns: 1, Sessions: 1}, dry)

	var sessions int64
	require.NoError(t, s.DB().Model(&database.Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(3), sessions)

	done, err := s.PruneLifecycleData(ctx, 14, 30, 90, false)
	require.NoError(t, err)
	assert.Equal(t, dry, done)

	require.NoError(t, s.DB().Model(&database.Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(2), sessions)

	again, err := s.PruneLifecycleData(ctx, 14, 30, 90, false)
	require.NoError(t, err)
	assert.Equal(t, &LifecycleCounts{}, again)
}
