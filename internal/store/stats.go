// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package store

import (
	"context"
	"fmt"

	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/memory"
)

// Stats counts memories in a scope
type Stats struct {
	Total        int64
	ByType       map[memory.Type]int64
	ByConfidence map[memory.Confidence]int64
	ByScope      map[memory.Scope]int64
}

type groupCount struct {
	GroupKey string
	Count    int64
}

// zeroFill makes every known value present in the maps
func (s *Stats) zeroFill() {
	for _, t := range memory.AllTypes {
		s.ByType[t] += 0
	}
	for _, c := range memory.AllConfidences {
		s.ByConfidence[c] += 0
	}
	for _, sc := range memory.AllScopes {
		s.ByScope[sc] += 0
	}
}

// Stats aggregates memory counts within scope. It is read-only.
func (s *Store) Stats(ctx context.Context, scope ScopeFilter) (*Stats, error) {
	stats := &Stats{
		ByType:       map[memory.Type]int64{},
		ByConfidence: map[memory.Confidence]int64{},
		ByScope:      map[memory.Scope]int64{},
	}

	base := scope.apply(s.db.WithContext(ctx).Model(&database.Memory{}), "memories")
	if err := base.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}

	groups := []struct {
		column string
		add    func(key string, n int64)
	}{
		{"type", func(k string, n int64) { stats.ByType[memory.Type(k)] += n }},
		{"confidence", func(k string, n int64) { stats.ByConfidence[memory.Confidence(k)] += n }},
		{"scope", func(k string, n int64) { stats.ByScope[memory.Scope(k)] += n }},
	}

	for _, g := range groups {
		var rows []groupCount
		q := scope.apply(s.db.WithContext(ctx).Model(&database.Memory{}), "memories")
		err := q.Select("memories." + g.column + " AS group_key, COUNT(*) AS count").
			Group("memories." + g.column).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count memories by %s: %w", g.column, err)
		}
		for _, r := range rows {
			g.add(r.GroupKey, r.Count)
		}
	}

	stats.zeroFill()
	return stats, nil
}
