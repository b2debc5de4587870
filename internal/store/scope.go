// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"strings"

	"github.com/tejzpr/hippocampus/internal/memory"
	"gorm.io/gorm"
)

// ScopeMode selects which stored scopes a query sees
type ScopeMode int

// Scope modes
const (
	// ScopeAll applies no scope constraint
	ScopeAll ScopeMode = iota
	// ScopeProjectOnly matches project memories of one path
	ScopeProjectOnly
	// ScopeGlobalOnly matches global memories
	ScopeGlobalOnly
	// ScopeProjectAndGlobal matches global memories plus project memories of one path
	ScopeProjectAndGlobal
)

// ScopeFilter is a composable scope predicate
type ScopeFilter struct {
	Mode        ScopeMode
	ProjectPath string
}

// ReadScope maps a tier to the filter used by search, listing and stats,
// where "both" means global plus the caller's project.
func ReadScope(tier memory.Tier, projectPath string) ScopeFilter {
	switch tier {
	case memory.TierProject:
		return ScopeFilter{Mode: ScopeProjectOnly, ProjectPath: projectPath}
	case memory.TierGlobal:
		return ScopeFilter{Mode: ScopeGlobalOnly}
	default:
		return ScopeFilter{Mode: ScopeProjectAndGlobal, ProjectPath: projectPath}
	}
}

// RetentionScope maps a tier to the filter used by consolidation and
// pruning, where "both" applies no scope constraint at all.
func RetentionScope(tier memory.Tier, projectPath string) ScopeFilter {
	switch tier {
	case memory.TierProject:
		return ScopeFilter{Mode: ScopeProjectOnly, ProjectPath: projectPath}
	case memory.TierGlobal:
		return ScopeFilter{Mode: ScopeGlobalOnly}
	default:
		return ScopeFilter{Mode: ScopeAll}
	}
}

// predicate renders the filter against a table alias. ok is false when
// the filter matches everything.
func (f ScopeFilter) predicate(alias string) (sql string, args []interface{}, ok bool) {
	col := func(name string) string { return alias + "." + name }

	switch f.Mode {
	case ScopeProjectOnly:
		return col("scope") + " = ? AND " + col("project_path") + " = ?",
			[]interface{}{string(memory.ScopeProject), f.ProjectPath}, true
	case ScopeGlobalOnly:
		return col("scope") + " = ?", []interface{}{string(memory.ScopeGlobal)}, true
	case ScopeProjectAndGlobal:
		return "(" + col("scope") + " = ? OR (" + col("scope") + " = ? AND " + col("project_path") + " = ?))",
			[]interface{}{string(memory.ScopeGlobal), string(memory.ScopeProject), f.ProjectPath}, true
	default:
		return "", nil, false
	}
}

// apply adds the filter to a query over the memories table
func (f ScopeFilter) apply(q *gorm.DB, alias string) *gorm.DB {
	if sql, args, ok := f.predicate(alias); ok {
		return q.Where(sql, args...)
	}
	return q
}

// keywordPredicate matches content or any tag containing the query,
// ignoring case. It compares against lowercase copies folded in Go, since
// SQLite's LOWER only folds ASCII.
func keywordPredicate(query string) (string, []interface{}) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	sql := `(memories.content_lower LIKE ? ESCAPE '\'` +
		` OR EXISTS (SELECT 1 FROM memory_tags t WHERE t.memory_id = memories.id AND t.tag_lower LIKE ? ESCAPE '\'))`
	return sql, []interface{}{pattern, pattern}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

const confidenceRank = "CASE memories.confidence WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END"
