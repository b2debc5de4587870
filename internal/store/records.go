// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
	"gorm.io/gorm"
)

// NewMemory holds the fields of a memory to insert
type NewMemory struct {
	Type            memory.Type
	Content         string
	Tags            []string
	Confidence      memory.Confidence
	Scope           memory.Scope
	ProjectPath     string
	SourceSessionID string
	SourceTurnID    string
}

// FindDuplicate returns the oldest memory of the same type whose first
// 100 characters match content ignoring case, or nil. Scope is ignored.
func (s *Store) FindDuplicate(ctx context.Context, t memory.Type, content string) (*database.Memory, error) {
	var found []database.Memory
	err := s.db.WithContext(ctx).
		Where("type = ? AND content_key = ?", string(t), memory.ContentKey(content)).
		Order("created_at ASC").Order("id ASC").
		Limit(1).
		Find(&found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// Insert stores a new memory. The project path is kept only for project
// scope. Duplicate detection is the caller's job and is not atomic with
// the insert.
func (s *Store) Insert(ctx context.Context, in NewMemory) (*database.Memory, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	now := s.timestamp()

	mem := database.Memory{
		ID:              id,
		Type:            string(in.Type),
		Scope:           string(in.Scope),
		Content:         in.Content,
		ContentKey:      memory.ContentKey(in.Content),
		ContentLower:    strings.ToLower(in.Content),
		Confidence:      string(in.Confidence),
		SourceSessionID: optional(in.SourceSessionID),
		SourceTurnID:    optional(in.SourceTurnID),
		CreatedAt:       now,
		UpdatedAt:       now,
		IsActive:        true,
		Tags:            buildTags(in.Tags),
	}
	if in.Scope == memory.ScopeProject {
		mem.ProjectPath = optional(in.ProjectPath)
	}

	if err := s.db.WithContext(ctx).Create(&mem).Error; err != nil {
		return nil, fmt.Errorf("failed to insert memory: %w", err)
	}
	return &mem, nil
}

// Get loads one memory with its tags
func (s *Store) Get(ctx context.Context, id string) (*database.Memory, error) {
	var mem database.Memory
	err := s.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&mem).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Kind: "Memory", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return &mem, nil
}

// Update replaces a memory's content and, when scope is non-nil, its
// scope and project path. Type and access counters are never touched.
func (s *Store) Update(ctx context.Context, id, content string, scope *memory.Scope, projectPath string) error {
	updates := map[string]interface{}{
		"content":       content,
		"content_key":   memory.ContentKey(content),
		"content_lower": strings.ToLower(content),
		"updated_at":    s.timestamp(),
	}
	if scope != nil {
		updates["scope"] = string(*scope)
		if *scope == memory.ScopeProject {
			updates["project_path"] = optional(projectPath)
		} else {
			updates["project_path"] = nil
		}
	}

	db := s.db.WithContext(ctx)
	result := db.Model(&database.Memory{}).Where("id = ?", id).UpdateColumns(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update memory: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Zero rows can mean the row is gone or that it was rewritten with
	// identical values by a concurrent update; only the former is NotFound.
	exists, err := s.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Kind: "Memory", ID: id}
	}
	return nil
}

// Delete removes a memory and its tags
func (s *Store) Delete(ctx context.Context, id string) error {
	deleted, err := s.deleteMemories(ctx, []string{id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &NotFoundError{Kind: "Memory", ID: id}
	}
	return nil
}

func (s *Store) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Memory{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up memory: %w", err)
	}
	return count > 0, nil
}

// deleteMemories removes the given memories and their tags in one
// transaction and returns the number of memory rows deleted
func (s *Store) deleteMemories(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteByIDs(tx, ids)
		deleted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}
	return deleted, nil
}

func buildTags(tags []string) []database.MemoryTag {
	seen := make(map[string]bool, len(tags))
	out := make([]database.MemoryTag, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, database.MemoryTag{Tag: tag, TagLower: strings.ToLower(tag)})
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
