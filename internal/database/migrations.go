// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AllModels returns all database models for migration
func AllModels() []interface{} {
	return []interface{}{
		&Memory{},
		&MemoryTag{},
		&Session{},
		&ConversationTurn{},
		&ToolCall{},
		&MaintenanceLease{},
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// DropAllTables drops all tables (use with caution!)
func DropAllTables(db *gorm.DB) error {
	models := []interface{}{
		&MaintenanceLease{},
		&ToolCall{},
		&ConversationTurn{},
		&Session{},
		&MemoryTag{},
		&Memory{},
	}

	for _, model := range models {
		if err := db.Migrator().DropTable(model); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	return nil
}

// CreateIndexes creates the composite indexes used by search and retention.
// idx_memories_type_key backs duplicate detection and is not unique:
// concurrent adds of the same content can both succeed.
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
		name    string
	}{
		{
			table:   "memories",
			columns: []string{"type", "content_key"},
			name:    "idx_memories_type_key",
		},
		{
			table:   "memories",
			columns: []string{"scope", "project_path"},
			name:    "idx_memories_scope_path",
		},
		{
			table:   "memories",
			columns: []string{"confidence", "created_at"},
			name:    "idx_memories_confidence_created",
		},
		{
			table:   "memories",
			columns: []string{"is_active", "superseded_at"},
			name:    "idx_memories_active_superseded",
		},
		{
			table:   "memory_tags",
			columns: []string{"tag_lower"},
			name:    "idx_memory_tags_tag_lower",
		},
		{
			table:   "conversation_turns",
			columns: []string{"session_id", "turn_number"},
			name:    "idx_turns_session_number",
		},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			idx.name,
			idx.table,
			strings.Join(idx.columns, ", "))

		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// Setup migrates the schema and creates indexes
func Setup(db *gorm.DB) error {
	if err := Migrate(db); err != nil {
		return err
	}
	return CreateIndexes(db)
}
