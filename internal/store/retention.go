// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
	"gorm.io/gorm"
)

// ErrSelfSupersede is returned when a memory is marked as replacing itself
var ErrSelfSupersede = errors.New("a memory cannot supersede itself")

// Consolidate deletes every memory that has an older duplicate (same type,
// same normalized prefix) within the scope, keeping the lowest id of each
// group. Running it again without writes in between deletes nothing.
func (s *Store) Consolidate(ctx context.Context, scope ScopeFilter) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table("memories AS m2").
			Joins("JOIN memories AS m1 ON m1.type = m2.type AND m1.content_key = m2.content_key AND m1.id < m2.id")
		if sql, args, ok := scope.predicate("m1"); ok {
			q = q.Where(sql, args...)
		}
		if sql, args, ok := scope.predicate("m2"); ok {
			q = q.Where(sql, args...)
		}
		if err := q.Distinct("m2.id").Order("m2.id").Pluck("m2.id", &ids).Error; err != nil {
			return err
		}
		_, err := deleteByIDs(tx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consolidate memories: %w", err)
	}
	return nonNil(ids), nil
}

// PruneResult lists the ids removed by a tiered prune
type PruneResult struct {
	Low    []string
	Medium []string
}

// Total is the number of memories removed
func (r *PruneResult) Total() int {
	return len(r.Low) + len(r.Medium)
}

// TieredPrune deletes never-accessed low confidence memories older than
// lowDays and never-accessed medium confidence memories older than
// mediumDays. High confidence memories are never eligible.
func (s *Store) TieredPrune(ctx context.Context, scope ScopeFilter, lowDays, mediumDays int) (*PruneResult, error) {
	low, err := s.pruneConfidence(ctx, scope, memory.ConfidenceLow, lowDays)
	if err != nil {
		return nil, err
	}
	medium, err := s.pruneConfidence(ctx, scope, memory.ConfidenceMedium, mediumDays)
	if err != nil {
		return nil, err
	}
	return &PruneResult{Low: low, Medium: medium}, nil
}

func (s *Store) pruneConfidence(ctx context.Context, scope ScopeFilter, c memory.Confidence, days int) ([]string, error) {
	if c == memory.ConfidenceHigh {
		return []string{}, nil
	}
	cutoff := s.cutoff(days)

	var ids []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&database.Memory{}).
			Where("memories.confidence = ? AND memories.access_count = 0 AND memories.created_at < ?", string(c), cutoff)
		if err := scope.apply(q, "memories").Order("memories.id").Pluck("memories.id", &ids).Error; err != nil {
			return err
		}
		_, err := deleteByIDs(tx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prune %s confidence memories: %w", c, err)
	}
	return nonNil(ids), nil
}

// MarkSuperseded retires oldID in favor of newID. The old memory stays
// stored but is no longer active.
func (s *Store) MarkSuperseded(ctx context.Context, oldID, newID string) error {
	if oldID == newID {
		return ErrSelfSupersede
	}
	now := s.timestamp()
	result := s.db.WithContext(ctx).Model(&database.Memory{}).
		Where("id = ?", oldID).
		UpdateColumns(map[string]interface{}{
			"superseded_by": newID,
			"superseded_at": now,
			"is_active":     false,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark memory superseded: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Kind: "Memory", ID: oldID}
	}
	return nil
}

// Chain is a memory with its immediate supersession neighbors
type Chain struct {
	Memory       database.Memory
	Predecessors []database.Memory
	Successors   []database.Memory
}

// ShowChain returns the memory, the memories it replaced and the memory
// that replaced it. Only direct neighbors are returned.
func (s *Store) ShowChain(ctx context.Context, id string) (*Chain, error) {
	mem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := &Chain{Memory: *mem, Predecessors: []database.Memory{}, Successors: []database.Memory{}}

	db := s.db.WithContext(ctx)
	if err := db.Preload("Tags").Where("superseded_by = ?", id).
		Order("superseded_at ASC").Order("id ASC").
		Find(&chain.Predecessors).Error; err != nil {
		return nil, fmt.Errorf("failed to load predecessors: %w", err)
	}

	if mem.SupersededBy != nil {
		if err := db.Preload("Tags").Where("id = ?", *mem.SupersededBy).
			Find(&chain.Successors).Error; err != nil {
			return nil, fmt.Errorf("failed to load successor: %w", err)
		}
	}
	return chain, nil
}

// ListSuperseded returns inactive memories, most recently retired first
func (s *Store) ListSuperseded(ctx context.Context, scope ScopeFilter, limit int) ([]database.Memory, error) {
	q := s.db.WithContext(ctx).Model(&database.Memory{}).
		Where("memories.is_active = ? AND memories.superseded_by IS NOT NULL", false)
	q = scope.apply(q, "memories").
		Order("memories.superseded_at DESC").
		Order("memories.id DESC")
	return s.find(q, limit, "list superseded memories")
}

// PurgeSuperseded deletes memories retired more than days ago
func (s *Store) PurgeSuperseded(ctx context.Context, scope ScopeFilter, days int) ([]string, error) {
	cutoff := s.cutoff(days)

	var ids []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&database.Memory{}).
			Where("memories.is_active = ? AND memories.superseded_at IS NOT NULL AND memories.superseded_at < ?", false, cutoff)
		if err := scope.apply(q, "memories").Order("memories.id").Pluck("memories.id", &ids).Error; err != nil {
			return err
		}
		_, err := deleteByIDs(tx, ids)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to purge superseded memories: %w", err)
	}
	return nonNil(ids), nil
}

// deleteByIDs removes memories and their tags inside tx
func deleteByIDs(tx *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if err := tx.Where("memory_id IN ?", ids).Delete(&database.MemoryTag{}).Error; err != nil {
		return 0, err
	}
	result := tx.Where("id IN ?", ids).Delete(&database.Memory{})
	return result.RowsAffected, result.Error
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
