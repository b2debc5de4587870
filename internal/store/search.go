// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"fmt"

	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
	"gorm.io/gorm"
)

// SearchParams selects memories for keyword and type search
type SearchParams struct {
	// Query is matched as a case-insensitive substring of content or of
	// any tag. Empty matches everything.
	Query string
	// Type restricts results to one memory type when set
	Type              memory.Type
	Scope             ScopeFilter
	Limit             int
	IncludeSuperseded bool
}

// Search returns matching memories ranked by confidence, then newest
// first. It has no side effects; callers record access separately.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]database.Memory, error) {
	q := s.db.WithContext(ctx).Model(&database.Memory{})
	if p.Type != "" {
		q = q.Where("memories.type = ?", string(p.Type))
	}
	if p.Query != "" {
		sql, args := keywordPredicate(p.Query)
		q = q.Where(sql, args...)
	}
	q = p.Scope.apply(q, "memories")
	if !p.IncludeSuperseded {
		q = activeOnly(q)
	}

	q = q.Order(confidenceRank).
		Order("memories.created_at DESC").
		Order("memories.id DESC")

	return s.find(q, p.Limit, "search memories")
}

// Context returns the memories to preload into a session: global plus
// the project's own, ranked by confidence, then usage, then recency.
func (s *Store) Context(ctx context.Context, projectPath string, limit int) ([]database.Memory, error) {
	q := s.db.WithContext(ctx).Model(&database.Memory{})
	q = ScopeFilter{Mode: ScopeProjectAndGlobal, ProjectPath: projectPath}.apply(q, "memories")
	q = activeOnly(q).
		Order(confidenceRank).
		Order("memories.access_count DESC").
		Order("memories.created_at DESC").
		Order("memories.id DESC")

	return s.find(q, limit, "load context")
}

// ListRecent returns the newest active memories in scope and the total
// number of memories in scope, superseded ones included, regardless of
// limit
func (s *Store) ListRecent(ctx context.Context, scope ScopeFilter, limit int) ([]database.Memory, int64, error) {
	base := func() *gorm.DB {
		return scope.apply(s.db.WithContext(ctx).Model(&database.Memory{}), "memories")
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count memories: %w", err)
	}

	q := activeOnly(base()).Order("memories.created_at DESC").Order("memories.id DESC")
	mems, err := s.find(q, limit, "list recent memories")
	if err != nil {
		return nil, 0, err
	}
	return mems, total, nil
}

// MarkAccessed stamps accessed_at and increments access_count once per
// distinct id in a single statement. updated_at is left alone.
func (s *Store) MarkAccessed(ctx context.Context, ids []string) error {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&database.Memory{}).
		Where("id IN ?", unique).
		UpdateColumns(map[string]interface{}{
			"accessed_at":  s.timestamp(),
			"access_count": gorm.Expr("access_count + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}
	return nil
}

func (s *Store) find(q *gorm.DB, limit int, action string) ([]database.Memory, error) {
	if limit > 0 {
		q = q.Limit(limit)
	}
	var mems []database.Memory
	if err := q.Preload("Tags").Find(&mems).Error; err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	return mems, nil
}

func activeOnly(q *gorm.DB) *gorm.DB {
	return q.Where("memories.is_active = ?", true)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
