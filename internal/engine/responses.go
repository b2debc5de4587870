// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

import (
	"fmt"
	"time"

	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
)

// DuplicateReason explains why an add was refused
const DuplicateReason = "Duplicate memory detected (matching first 100 chars)"

// MemorySummary is the list view of a memory
type MemorySummary struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Tier         string     `json:"tier"`
	Summary      string     `json:"summary"`
	Tags         []string   `json:"tags"`
	Confidence   string     `json:"confidence"`
	Created      time.Time  `json:"created"`
	AccessCount  int64      `json:"accessCount"`
	SupersededBy *string    `json:"supersededBy,omitempty"`
	SupersededAt *time.Time `json:"supersededAt,omitempty"`
	IsActive     bool       `json:"isActive"`
}

func summarize(m *database.Memory) MemorySummary {
	tags := m.TagNames()
	return MemorySummary{
		ID:           m.ID,
		Type:         m.Type,
		Tier:         m.Scope,
		Summary:      memory.Summarize(m.Content),
		Tags:         tags,
		Confidence:   m.Confidence,
		Created:      m.CreatedAt,
		AccessCount:  m.AccessCount,
		SupersededBy: m.SupersededBy,
		SupersededAt: m.SupersededAt,
		IsActive:     m.IsActive,
	}
}

func summarizeAll(mems []database.Memory) []MemorySummary {
	out := make([]MemorySummary, len(mems))
	for i := range mems {
		out[i] = summarize(&mems[i])
	}
	return out
}

// ErrorResponse is the failure envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Failure wraps err in the failure envelope
func Failure(err error) ErrorResponse {
	return ErrorResponse{Success: false, Error: err.Error()}
}

// AddResponse reports a stored memory
type AddResponse struct {
	Success          bool   `json:"success"`
	ID               string `json:"id"`
	SupersedeWarning string `json:"supersedeWarning,omitempty"`
}

// DuplicateResponse reports that an add was refused because an equivalent
// memory exists. It is a normal outcome, not a failure.
type DuplicateResponse struct {
	Success         bool   `json:"success"`
	Duplicate       bool   `json:"duplicate"`
	Reason          string `json:"reason"`
	ExistingID      string `json:"existingId"`
	ExistingTier    string `json:"existingTier"`
	ExistingSummary string `json:"existingSummary"`
	Message         string `json:"message"`
}

func newDuplicateResponse(existing *database.Memory) *DuplicateResponse {
	return &DuplicateResponse{
		Success:         false,
		Duplicate:       true,
		Reason:          DuplicateReason,
		ExistingID:      existing.ID,
		ExistingTier:    existing.Scope,
		ExistingSummary: memory.Summarize(existing.Content),
		Message:         fmt.Sprintf("Memory with similar content already exists (id: %s)", existing.ID),
	}
}

// AddOutcome holds exactly one of Added or Duplicate
type AddOutcome struct {
	Added     *AddResponse
	Duplicate *DuplicateResponse
}

// IsDuplicate reports whether the add was refused
func (o *AddOutcome) IsDuplicate() bool {
	return o.Duplicate != nil
}

// Response returns the envelope to render
func (o *AddOutcome) Response() interface{} {
	if o.Duplicate != nil {
		return o.Duplicate
	}
	return o.Added
}

// UpdateResponse reports an updated memory
type UpdateResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// DeleteResponse reports a deleted memory
type DeleteResponse struct {
	Success bool   `json:"success"`
	Deleted string `json:"deleted"`
}

// GetResponse carries one memory
type GetResponse struct {
	Success bool          `json:"success"`
	Memory  MemorySummary `json:"memory"`
}

// SearchResponse carries ranked search results
type SearchResponse struct {
	Success bool            `json:"success"`
	Results []MemorySummary `json:"results"`
	Count   int             `json:"count"`
}

// ContextResponse carries the rendered context block and its entries
type ContextResponse struct {
	Success bool            `json:"success"`
	Context string          `json:"context"`
	Count   int             `json:"count"`
	Entries []MemorySummary `json:"entries"`
}

// ListRecentResponse carries a page of recent active memories and the
// total in scope, superseded memories included
type ListRecentResponse struct {
	Success bool            `json:"success"`
	Entries []MemorySummary `json:"entries"`
	Total   int64           `json:"total"`
}

// ConsolidateResponse lists removed duplicates
type ConsolidateResponse struct {
	Success      bool     `json:"success"`
	Removed      int      `json:"removed"`
	DuplicateIDs []string `json:"duplicateIds"`
}

// TieredPruneResponse lists memories removed per confidence level
type TieredPruneResponse struct {
	Success         bool     `json:"success"`
	LowPruned       int      `json:"lowPruned"`
	LowPrunedIDs    []string `json:"lowPrunedIds"`
	MediumPruned    int      `json:"mediumPruned"`
	MediumPrunedIDs []string `json:"mediumPrunedIds"`
	TotalPruned     int      `json:"totalPruned"`
}

// ChainResponse is a memory with its direct supersession neighbors
type ChainResponse struct {
	Success      bool            `json:"success"`
	Memory       MemorySummary   `json:"memory"`
	Predecessors []MemorySummary `json:"predecessors"`
	Successors   []MemorySummary `json:"successors"`
}

// SupersededEntry is a retired memory and what replaced it
type SupersededEntry struct {
	Memory         MemorySummary `json:"memory"`
	SupersededByID string        `json:"supersededById"`
	SupersededAt   time.Time     `json:"supersededAt"`
}

// ListSupersededResponse carries retired memories
type ListSupersededResponse struct {
	Success bool              `json:"success"`
	Entries []SupersededEntry `json:"entries"`
	Count   int               `json:"count"`
}

// PurgeSupersededResponse lists purged memories
type PurgeSupersededResponse struct {
	Success   bool     `json:"success"`
	Purged    int      `json:"purged"`
	PurgedIDs []string `json:"purgedIds"`
}

// PruneDataResponse reports lifecycle rows removed, or that would be
// removed in a dry run
type PruneDataResponse struct {
	Success         bool  `json:"success"`
	ToolCallsPruned int64 `json:"toolCallsPruned"`
	TurnsPruned     int64 `json:"turnsPruned"`
	SessionsPruned  int64 `json:"sessionsPruned"`
	DryRun          bool  `json:"dryRun"`
}

// StatsResponse carries memory counts
type StatsResponse struct {
	Success      bool             `json:"success"`
	Total        int64            `json:"total"`
	ByType       map[string]int64 `json:"byType"`
	ByConfidence map[string]int64 `json:"byConfidence"`
	ByScope      map[string]int64 `json:"byScope"`
}

// SessionResponse carries a session record
type SessionResponse struct {
	Success bool             `json:"success"`
	Session database.Session `json:"session"`
}

// TurnResponse carries a conversation turn
type TurnResponse struct {
	Success bool                      `json:"success"`
	Turn    database.ConversationTurn `json:"turn"`
}

// ToolCallResponse carries a recorded tool call
type ToolCallResponse struct {
	Success  bool              `json:"success"`
	ToolCall database.ToolCall `json:"toolCall"`
}
