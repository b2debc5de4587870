// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/memory"
)

func init() {
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Find memories by keyword in content or tags",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	addSearchFlags(search)

	searchType := &cobra.Command{
		Use:   "search-type <type> [query]",
		Short: "List memories of one type, optionally filtered by keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchType,
	}
	addSearchFlags(searchType)

	ctxCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the memory context block for session start",
		RunE:  runContext,
	}
	ctxCmd.Flags().IntP("limit", "l", 0, "Max memories (default: search.context_limit)")

	recent := &cobra.Command{
		Use:   "recent",
		Short: "List the newest memories",
		RunE:  runRecent,
	}
	recent.Flags().String("tier", "both", "Tier: project, global or both")
	recent.Flags().IntP("limit", "l", 0, "Max memories (default: search.recent_limit)")

	RootCmd.AddCommand(search, searchType, ctxCmd, recent)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("tier", "both", "Tier: project, global or both")
	cmd.Flags().IntP("limit", "l", 0, "Max results (default: search.default_limit)")
	cmd.Flags().Bool("include-superseded", false, "Include replaced memories")
}

func searchInput(cmd *cobra.Command, s *app) (engine.SearchInput, error) {
	tier, err := tierFlag(cmd)
	if err != nil {
		return engine.SearchInput{}, err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	includeSuperseded, _ := cmd.Flags().GetBool("include-superseded")
	return engine.SearchInput{
		Tier:              tier,
		ProjectPath:       projectPath(),
		Limit:             orDefault(limit, s.cfg.Search.DefaultLimit),
		IncludeSuperseded: includeSuperseded,
	}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	return run(cmd, func(s *app) (interface{}, error) {
		in, err := searchInput(cmd, s)
		if err != nil {
			return nil, err
		}
		in.Query = strings.Join(args, " ")
		return s.eng.Search(cmd.Context(), in)
	})
}

func runSearchType(cmd *cobra.Command, args []string) error {
	typ, err := memory.ParseType(args[0])
	if err != nil {
		return emit(cmd, nil, err)
	}
	return run(cmd, func(s *app) (interface{}, error) {
		in, err := searchInput(cmd, s)
		if err != nil {
			return nil, err
		}
		in.Query = strings.Join(args[1:], " ")
		return s.eng.SearchByType(cmd.Context(), typ, in)
	})
}

func runContext(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.GetContext(cmd.Context(), projectPath(), orDefault(limit, s.cfg.Search.ContextLimit))
	})
}

func runRecent(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.ListRecent(cmd.Context(), tier, projectPath(), orDefault(limit, s.cfg.Search.RecentLimit))
	})
}

// orDefault returns v unless it is unset
func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
