// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
	"gorm.io/gorm/logger"
)

const testProject = "/work/alpha"

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setupTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	db, err := database.Connect(&database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Setup(db))

	clock := &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(db, WithClock(clock.Now)), clock
}

func addMemory(t *testing.T, s *Store, in NewMemory) *database.Memory {
	t.Helper()
	if in.Type == "" {
		in.Type = memory.TypeLearning
	}
	if in.Confidence == "" {
		in.Confidence = memory.ConfidenceMedium
	}
	if in.Scope == "" {
		in.Scope = memory.ScopeProject
		if in.ProjectPath == "" {
			in.ProjectPath = testProject
		}
	}
	mem, err := s.Insert(context.Background(), in)
	require.NoError(t, err)
	return mem
}

func ids(mems []database.Memory) []string {
	out := make([]string, len(mems))
	for i, m := range mems {
		out[i] = m.ID
	}
	return out
}

func TestInsert_ScopeResolution(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	project := addMemory(t, s, NewMemory{Content: "project note", Scope: memory.ScopeProject, ProjectPath: testProject})
	global := addMemory(t, s, NewMemory{Content: "global note", Scope: memory.ScopeGlobal, ProjectPath: testProject})

	got, err := s.Get(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ProjectPath)
	assert.Equal(t, testProject, *got.ProjectPath)

	got, err = s.Get(ctx, global.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProjectPath)
	assert.Equal(t, "global", got.Scope)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(0), got.AccessCount)
	assert.Nil(t, got.AccessedAt)
}

func TestInsert_TagsDeduplicated(t *testing.T) {
	s, _ := setupTestStore(t)

	mem := addMemory(t, s, NewMemory{Content: "tagged", Tags: []string{"db", " db ", "", "pool"}})

	got, err := s.Get(context.Background(), mem.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"db", "pool"}, got.TagNames())
}

func TestInsert_IDsFollowInsertionOrder(t *testing.T) {
	s, _ := setupTestStore(t)

	first := addMemory(t, s, NewMemory{Content: "first"})
	second := addMemory(t, s, NewMemory{Content: "second"})
	assert.Less(t, first.ID, second.ID)
}

func TestFindDuplicate(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	prefix := strings.Repeat("Connection pooling matters. ", 5)[:100]
	orig := addMemory(t, s, NewMemory{
		Type:    memory.TypeLearning,
		Content: prefix + " original ending",
		Scope:   memory.ScopeGlobal,
	})

	tests := []struct {
		name    string
		typ     memory.Type
		content string
		want    bool
	}{
		{"same prefix different tail", memory.TypeLearning, prefix + " other ending", true},
		{"case differs", memory.TypeLearning, strings.ToUpper(prefix), true},
		{"different type", memory.TypeGotcha, prefix, false},
		{"different prefix", memory.TypeLearning, "x" + prefix, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dup, err := s.FindDuplicate(ctx, tt.typ, tt.content)
			require.NoError(t, err)
			if !tt.want {
				assert.Nil(t, dup)
				return
			}
			require.NotNil(t, dup)
			assert.Equal(t, orig.ID, dup.ID)
		})
	}
}

func TestFindDuplicate_ShortContentComparedInFull(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	addMemory(t, s, NewMemory{Content: "Use connection pooling for all database access"})

	dup, err := s.FindDuplicate(ctx, memory.TypeLearning, "use CONNECTION pooling for all database access")
	require.NoError(t, err)
	assert.NotNil(t, dup)

	dup, err = s.FindDuplicate(ctx, memory.TypeLearning, "Use connection pooling for all database access patterns")
	require.NoError(t, err)
	assert.Nil(t, dup)
}

func TestFindDuplicate_IgnoresScope(t *testing.T) {
	s, _ := setupTestStore(t)

	project := addMemory(t, s, NewMemory{Content: "Shared insight", Scope: memory.ScopeProject, ProjectPath: "/other"})

	dup, err := s.FindDuplicate(context.Background(), memory.TypeLearning, "shared insight")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, project.ID, dup.ID)
}

func TestUpdate(t *testing.T) {
	s, clock := setupTestStore(t)
	ctx := context.Background()

	mem := addMemory(t, s, NewMemory{Content: "old content"})
	require.NoError(t, s.MarkAccessed(ctx, []string{mem.ID}))

	clock.Advance(time.Hour)
	global := memory.ScopeGlobal
	require.NoError(t, s.Update(ctx, mem.ID, "new content", &global, testProject))

	got, err := s.Get(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, "new content", got.Content)
	assert.Equal(t, "new content", got.ContentKey)
	assert.Equal(t, "global", got.Scope)
	assert.Nil(t, got.ProjectPath)
	assert.Equal(t, "learning", got.Type)
	assert.Equal(t, int64(1), got.AccessCount)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpdate_ContentOnlyKeepsScope(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	mem := addMemory(t, s, NewMemory{Content: "old"})
	require.NoError(t, s.Update(ctx, mem.ID, "new", nil, ""))

	got, err := s.Get(ctx, mem.ID)
	require.NoError(t, err)
	assert.Equal(t, "project", got.Scope)
	require.NotNil(t, got.ProjectPath)
	assert.Equal(t, testProject, *got.ProjectPath)
}

func TestUpdate_NotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.Update(context.Background(), "missing-id", "content", nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Memory not found: missing-id", err.Error())
}

func TestDelete(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	mem := addMemory(t, s, NewMemory{Content: "to delete", Tags: []string{"a", "b"}})
	require.NoError(t, s.Delete(ctx, mem.ID))

	_, err := s.Get(ctx, mem.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	var tagCount int64
	require.NoError(t, s.DB().Model(&database.MemoryTag{}).Where("memory_id = ?", mem.ID).Count(&tagCount).Error)
	assert.Zero(t, tagCount)

	err = s.Delete(ctx, mem.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
