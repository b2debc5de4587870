// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import "time"

// Memory is a stored note with its retention metadata
type Memory struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	Scope           string     `gorm:"type:varchar(10);not null" json:"scope"`
	ProjectPath     *string    `gorm:"type:text" json:"project_path,omitempty"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	ContentKey      string     `gorm:"type:text;not null" json:"-"`
	ContentLower    string     `gorm:"type:text;not null;default:''" json:"-"`
	Confidence      string     `gorm:"type:varchar(10);not null" json:"confidence"`
	SourceSessionID *string    `gorm:"type:varchar(36)" json:"source_session_id,omitempty"`
	SourceTurnID    *string    `gorm:"type:varchar(36)" json:"source_turn_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
	AccessedAt      *time.Time `json:"accessed_at,omitempty"`
	AccessCount     int64      `gorm:"not null;default:0" json:"access_count"`
	SupersededBy    *string    `gorm:"type:varchar(36);index" json:"superseded_by,omitempty"`
	SupersededAt    *time.Time `json:"superseded_at,omitempty"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`

	Tags []MemoryTag `gorm:"foreignKey:MemoryID" json:"-"`
}

// TableName specifies the table name for Memory
func (Memory) TableName() string {
	return "memories"
}

// TagNames returns the memory's tags as plain strings
func (m *Memory) TagNames() []string {
	out := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		out = append(out, t.Tag)
	}
	return out
}

// MemoryTag attaches one tag to a memory
type MemoryTag struct {
	MemoryID string `gorm:"primaryKey;type:varchar(36)" json:"memory_id"`
	Tag      string `gorm:"primaryKey;type:varchar(255)" json:"tag"`
	TagLower string `gorm:"type:varchar(255);not null;default:''" json:"-"`
}

// TableName specifies the table name for MemoryTag
func (MemoryTag) TableName() string {
	return "memory_tags"
}

// Session statuses
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionOrphaned  = "orphaned"
)

// Session is one assistant session in a project
type Session struct {
	ID              string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ClaudeSessionID string     `gorm:"uniqueIndex;not null" json:"claude_session_id"`
	ProjectPath     *string    `gorm:"type:text" json:"project_path,omitempty"`
	GitStatus       *string    `gorm:"type:text" json:"git_status,omitempty"`
	Status          string     `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	Summary         *string    `gorm:"type:text" json:"summary,omitempty"`
	StartedAt       time.Time  `gorm:"not null;index" json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// ConversationTurn is one prompt/response exchange within a session
type ConversationTurn struct {
	ID                string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID         string     `gorm:"type:varchar(36);not null;index" json:"session_id"`
	TurnNumber        int        `gorm:"not null" json:"turn_number"`
	UserPrompt        string     `gorm:"type:text;not null" json:"user_prompt"`
	AssistantResponse *string    `gorm:"type:text" json:"assistant_response,omitempty"`
	ModelUsed         *string    `json:"model_used,omitempty"`
	InputTokens       *int       `json:"input_tokens,omitempty"`
	OutputTokens      *int       `json:"output_tokens,omitempty"`
	StartedAt         time.Time  `gorm:"not null" json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	CreatedAt         time.Time  `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for ConversationTurn
func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// ToolCall records a tool invocation made during a turn
type ToolCall struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID     *string   `gorm:"type:varchar(36);index" json:"session_id,omitempty"`
	TurnID        *string   `gorm:"type:varchar(36);index" json:"turn_id,omitempty"`
	ToolName      string    `gorm:"not null" json:"tool_name"`
	Parameters    *string   `gorm:"type:text" json:"parameters,omitempty"`
	ResultSummary *string   `gorm:"type:text" json:"result_summary,omitempty"`
	CalledAt      time.Time `gorm:"not null;index" json:"called_at"`
}

// TableName specifies the table name for ToolCall
func (ToolCall) TableName() string {
	return "tool_calls"
}

// MaintenanceLease is a time-limited claim on a named background job
type MaintenanceLease struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)" json:"name"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	Holder    string    `gorm:"not null" json:"holder"`
	ClaimedAt time.Time `gorm:"not null" json:"claimed_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// TableName specifies the table name for MaintenanceLease
func (MaintenanceLease) TableName() string {
	return "maintenance_leases"
}
