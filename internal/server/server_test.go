// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/hippocampus/internal/config"
	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/store"
	"gorm.io/gorm/logger"
)

func TestNewMCPServer_RegistersTools(t *testing.T) {
	db, err := database.Connect(&database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "server.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.Setup(db))

	srv := NewMCPServer(config.DefaultConfig(), engine.New(store.New(db)), "/work/alpha")
	require.NotNil(t, srv.GetMCPServer())

	tools := srv.Tools()
	seen := map[string]bool{}
	for _, tool := range tools {
		assert.False(t, seen[tool.Tool.Name], "duplicate tool %s", tool.Tool.Name)
		seen[tool.Tool.Name] = true
		assert.NotNil(t, tool.Handler, tool.Tool.Name)
		assert.NotEmpty(t, tool.Tool.Description, tool.Tool.Name)
	}

	for _, name := range []string{
		"memory_add", "memory_update", "memory_delete", "memory_get",
		"memory_search", "memory_search_type", "memory_context", "memory_recent",
		"memory_consolidate", "memory_prune", "memory_chain", "memory_superseded",
		"memory_purge_superseded", "memory_prune_data", "memory_stats",
		"session_start", "session_end", "turn_start", "turn_finish", "tool_call_record",
	} {
		assert.True(t, seen[name], "missing tool %s", name)
	}
	assert.Len(t, tools, 20)
}
