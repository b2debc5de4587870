// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package engine exposes the memory operations as request/response
// calls. Each call runs under its own deadline and returns the envelope
// that callers render as JSON.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tejzpr/hippocampus/internal/memory"
	"github.com/tejzpr/hippocampus/internal/store"
)

// DefaultTimeout bounds a single operation, including pool acquisition
const DefaultTimeout = 30 * time.Second

// Engine runs memory operations against a store
type Engine struct {
	store   *store.Store
	timeout time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithTimeout sets the per-operation deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// New creates an engine
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{store: st, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store
func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// AddInput is a memory to store
type AddInput struct {
	Type            memory.Type
	Content         string
	Tags            []string
	Confidence      memory.Confidence
	Tier            memory.Tier
	ProjectPath     string
	SourceSessionID string
	SourceTurnID    string
	// Supersedes names an existing memory the new one replaces
	Supersedes string
}

// Add stores a memory unless a memory of the same type with the same
// leading content already exists, in which case the outcome carries a
// duplicate response instead. The check and the insert are separate
// statements.
func (e *Engine) Add(ctx context.Context, in AddInput) (*AddOutcome, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if in.Content == "" {
		return nil, errors.New("content must not be empty")
	}

	existing, err := e.store.FindDuplicate(ctx, in.Type, in.Content)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &AddOutcome{Duplicate: newDuplicateResponse(existing)}, nil
	}

	mem, err := e.store.Insert(ctx, store.NewMemory{
		Type:            in.Type,
		Content:         in.Content,
		Tags:            in.Tags,
		Confidence:      in.Confidence,
		Scope:           in.Tier.Scope(),
		ProjectPath:     in.ProjectPath,
		SourceSessionID: in.SourceSessionID,
		SourceTurnID:    in.SourceTurnID,
	})
	if err != nil {
		return nil, err
	}

	resp := &AddResponse{Success: true, ID: mem.ID}
	if in.Supersedes != "" {
		if err := e.store.MarkSuperseded(ctx, in.Supersedes, mem.ID); err != nil {
			log.Printf("Warning: stored %s but could not supersede %s: %v", mem.ID, in.Supersedes, err)
			resp.SupersedeWarning = err.Error()
		}
	}
	return &AddOutcome{Added: resp}, nil
}

// Update replaces a memory's content. A non-nil tier also moves it to
// the tier's scope.
func (e *Engine) Update(ctx context.Context, id, content string, tier *memory.Tier, projectPath string) (*UpdateResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if content == "" {
		return nil, errors.New("content must not be empty")
	}

	var scope *memory.Scope
	if tier != nil {
		s := tier.Scope()
		scope = &s
	}
	if err := e.store.Update(ctx, id, content, scope, projectPath); err != nil {
		return nil, err
	}
	return &UpdateResponse{Success: true, ID: id}, nil
}

// Delete removes a memory
func (e *Engine) Delete(ctx context.Context, id string) (*DeleteResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if err := e.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &DeleteResponse{Success: true, Deleted: id}, nil
}

// Get returns one memory. Point lookups do not count as access.
func (e *Engine) Get(ctx context.Context, id string) (*GetResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	mem, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GetResponse{Success: true, Memory: summarize(mem)}, nil
}

// SearchInput selects memories for Search and SearchByType
type SearchInput struct {
	Query             string
	Tier              memory.Tier
	ProjectPath       string
	Limit             int
	IncludeSuperseded bool
}

// Search finds memories whose content or tags contain the query
func (e *Engine) Search(ctx context.Context, in SearchInput) (*SearchResponse, error) {
	return e.search(ctx, "", in)
}

// SearchByType finds memories of one type, optionally narrowed by query
func (e *Engine) SearchByType(ctx context.Context, t memory.Type, in SearchInput) (*SearchResponse, error) {
	return e.search(ctx, t, in)
}

func (e *Engine) search(ctx context.Context, t memory.Type, in SearchInput) (*SearchResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	mems, err := e.store.Search(ctx, store.SearchParams{
		Query:             in.Query,
		Type:              t,
		Scope:             store.ReadScope(in.Tier, in.ProjectPath),
		Limit:             in.Limit,
		IncludeSuperseded: in.IncludeSuperseded,
	})
	if err != nil {
		return nil, err
	}

	results := summarizeAll(mems)
	e.recordAccess(ctx, results)
	return &SearchResponse{Success: true, Results: results, Count: len(results)}, nil
}

// GetContext loads the memories to inject at session start and renders
// them as a markdown block
func (e *Engine) GetContext(ctx context.Context, projectPath string, limit int) (*ContextResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	mems, err := e.store.Context(ctx, projectPath, limit)
	if err != nil {
		return nil, err
	}

	entries := summarizeAll(mems)
	lines := make([]memory.ContextEntry, len(entries))
	for i, s := range entries {
		lines[i] = memory.ContextEntry{
			Type:       memory.Type(s.Type),
			Confidence: memory.Confidence(s.Confidence),
			Summary:    s.Summary,
		}
	}

	e.recordAccess(ctx, entries)
	return &ContextResponse{
		Success: true,
		Context: memory.RenderContext(lines),
		Count:   len(entries),
		Entries: entries,
	}, nil
}

// ListRecent returns the newest memories in a tier and the tier's total
func (e *Engine) ListRecent(ctx context.Context, tier memory.Tier, projectPath string, limit int) (*ListRecentResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	mems, total, err := e.store.ListRecent(ctx, store.ReadScope(tier, projectPath), limit)
	if err != nil {
		return nil, err
	}

	entries := summarizeAll(mems)
	e.recordAccess(ctx, entries)
	return &ListRecentResponse{Success: true, Entries: entries, Total: total}, nil
}

// recordAccess bumps access counters for returned memories. Failures are
// logged and do not affect the response, which keeps pre-update values.
func (e *Engine) recordAccess(ctx context.Context, entries []MemorySummary) {
	if len(entries) == 0 {
		return
	}
	ids := make([]string, len(entries))
	for i, s := range entries {
		ids[i] = s.ID
	}
	if err := e.store.MarkAccessed(ctx, ids); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// Consolidate removes duplicate memories within a tier. The "both" tier
// applies no scope constraint.
func (e *Engine) Consolidate(ctx context.Context, tier memory.Tier, projectPath string) (*ConsolidateResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	removed, err := e.store.Consolidate(ctx, store.RetentionScope(tier, projectPath))
	if err != nil {
		return nil, err
	}
	return &ConsolidateResponse{Success: true, Removed: len(removed), DuplicateIDs: removed}, nil
}

// TieredPrune removes unused low and medium confidence memories past
// their age thresholds
func (e *Engine) TieredPrune(ctx context.Context, tier memory.Tier, projectPath string, lowDays, mediumDays int) (*TieredPruneResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if lowDays < 0 || mediumDays < 0 {
		return nil, fmt.Errorf("prune thresholds must not be negative (low=%d, medium=%d)", lowDays, mediumDays)
	}

	result, err := e.store.TieredPrune(ctx, store.RetentionScope(tier, projectPath), lowDays, mediumDays)
	if err != nil {
		return nil, err
	}
	return &TieredPruneResponse{
		Success:         true,
		LowPruned:       len(result.Low),
		LowPrunedIDs:    result.Low,
		MediumPruned:    len(result.Medium),
		MediumPrunedIDs: result.Medium,
		TotalPruned:     result.Total(),
	}, nil
}

// ShowChain returns a memory with what it replaced and what replaced it
func (e *Engine) ShowChain(ctx context.Context, id string) (*ChainResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	chain, err := e.store.ShowChain(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ChainResponse{
		Success:      true,
		Memory:       summarize(&chain.Memory),
		Predecessors: summarizeAll(chain.Predecessors),
		Successors:   summarizeAll(chain.Successors),
	}, nil
}

// ListSuperseded returns retired memories in a tier
func (e *Engine) ListSuperseded(ctx context.Context, tier memory.Tier, projectPath string, limit int) (*ListSupersededResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	mems, err := e.store.ListSuperseded(ctx, store.ReadScope(tier, projectPath), limit)
	if err != nil {
		return nil, err
	}

	entries := make([]SupersededEntry, 0, len(mems))
	for i := range mems {
		m := &mems[i]
		entry := SupersededEntry{Memory: summarize(m)}
		if m.SupersededBy != nil {
			entry.SupersededByID = *m.SupersededBy
		}
		if m.SupersededAt != nil {
			entry.SupersededAt = *m.SupersededAt
		}
		entries = append(entries, entry)
	}
	return &ListSupersededResponse{Success: true, Entries: entries, Count: len(entries)}, nil
}

// PurgeSuperseded deletes memories retired more than days ago
func (e *Engine) PurgeSuperseded(ctx context.Context, tier memory.Tier, projectPath string, days int) (*PurgeSupersededResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	if days < 0 {
		return nil, fmt.Errorf("days must not be negative, got %d", days)
	}

	purged, err := e.store.PurgeSuperseded(ctx, store.RetentionScope(tier, projectPath), days)
	if err != nil {
		return nil, err
	}
	return &PurgeSupersededResponse{Success: true, Purged: len(purged), PurgedIDs: purged}, nil
}

// PruneDataInput holds the lifecycle retention thresholds in days
type PruneDataInput struct {
	ToolCallsDays int
	TurnsDays     int
	SessionsDays  int
	DryRun        bool
}

// PruneData removes old tool calls, turns and finished sessions
func (e *Engine) PruneData(ctx context.Context, in PruneDataInput) (*PruneDataResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	counts, err := e.store.PruneLifecycleData(ctx, in.ToolCallsDays, in.TurnsDays, in.SessionsDays, in.DryRun)
	if err != nil {
		return nil, err
	}
	return &PruneDataResponse{
		Success:         true,
		ToolCallsPruned: counts.ToolCalls,
		TurnsPruned:     counts.Turns,
		SessionsPruned:  counts.Sessions,
		DryRun:          in.DryRun,
	}, nil
}

// Stats counts memories in a tier by type, confidence and scope
func (e *Engine) Stats(ctx context.Context, tier memory.Tier, projectPath string) (*StatsResponse, error) {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	stats, err := e.store.Stats(ctx, store.ReadScope(tier, projectPath))
	if err != nil {
		return nil, err
	}

	resp := &StatsResponse{
		Success:      true,
		Total:        stats.Total,
		ByType:       make(map[string]int64, len(stats.ByType)),
		ByConfidence: make(map[string]int64, len(stats.ByConfidence)),
		ByScope:      make(map[string]int64, len(stats.ByScope)),
	}
	for k, v := range stats.ByType {
		resp.ByType[string(k)] = v
	}
	for k, v := range stats.ByConfidence {
		resp.ByConfidence[string(k)] = v
	}
	for k, v := range stats.ByScope {
		resp.ByScope[string(k)] = v
	}
	return resp, nil
}
