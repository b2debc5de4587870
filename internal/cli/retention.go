// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/engine"
)

func init() {
	consolidate := &cobra.Command{
		Use:   "consolidate",
		Short: "Delete duplicate memories, keeping the oldest",
		RunE:  runConsolidate,
	}
	consolidate.Flags().String("tier", "project", "Tier: project, global or both (both merges across every scope)")

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete unused low and medium confidence memories past their age",
		RunE:  runPrune,
	}
	prune.Flags().String("tier", "project", "Tier: project, global or both (both prunes every scope)")
	prune.Flags().Int("low-days", -1, "Age threshold for low confidence (default: retention.low_days)")
	prune.Flags().Int("medium-days", -1, "Age threshold for medium confidence (default: retention.medium_days)")

	chain := &cobra.Command{
		Use:   "chain <id>",
		Short: "Show what a memory replaced and what replaced it",
		Args:  cobra.ExactArgs(1),
		RunE:  runChain,
	}

	superseded := &cobra.Command{
		Use:   "superseded",
		Short: "List replaced memories",
		RunE:  runSuperseded,
	}
	superseded.Flags().String("tier", "both", "Tier: project, global or both")
	superseded.Flags().IntP("limit", "l", 0, "Max entries (default: search.superseded_limit)")

	purge := &cobra.Command{
		Use:   "purge-superseded",
		Short: "Delete memories replaced more than --days ago",
		RunE:  runPurgeSuperseded,
	}
	purge.Flags().String("tier", "project", "Tier: project, global or both (both purges every scope)")
	purge.Flags().Int("days", -1, "Days since replacement (default: retention.superseded_days)")

	pruneData := &cobra.Command{
		Use:   "prune-data",
		Short: "Delete old tool calls, turns and finished sessions",
		RunE:  runPruneData,
	}
	pruneData.Flags().Int("tool-calls-days", -1, "Default: retention.tool_calls_days")
	pruneData.Flags().Int("turns-days", -1, "Default: retention.turns_days")
	pruneData.Flags().Int("sessions-days", -1, "Default: retention.sessions_days")
	pruneData.Flags().Bool("dry-run", false, "Only count what would be deleted")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count memories by type, confidence and scope",
		RunE:  runStats,
	}
	stats.Flags().String("tier", "both", "Tier: project, global or both")

	RootCmd.AddCommand(consolidate, prune, chain, superseded, purge, pruneData, stats)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.Consolidate(cmd.Context(), tier, projectPath())
	})
}

func runPrune(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	low, _ := cmd.Flags().GetInt("low-days")
	medium, _ := cmd.Flags().GetInt("medium-days")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.TieredPrune(cmd.Context(), tier, projectPath(),
			daysOrDefault(low, s.cfg.Retention.LowDays),
			daysOrDefault(medium, s.cfg.Retention.MediumDays))
	})
}

func runChain(cmd *cobra.Command, args []string) error {
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.ShowChain(cmd.Context(), args[0])
	})
}

func runSuperseded(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	limit, _ := cmd.Flags().GetInt("limit")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.ListSuperseded(cmd.Context(), tier, projectPath(), orDefault(limit, s.cfg.Search.SupersededLimit))
	})
}

func runPurgeSuperseded(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	days, _ := cmd.Flags().GetInt("days")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.PurgeSuperseded(cmd.Context(), tier, projectPath(), daysOrDefault(days, s.cfg.Retention.SupersededDays))
	})
}

func runPruneData(cmd *cobra.Command, args []string) error {
	toolCalls, _ := cmd.Flags().GetInt("tool-calls-days")
	turns, _ := cmd.Flags().GetInt("turns-days")
	sessions, _ := cmd.Flags().GetInt("sessions-days")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.PruneData(cmd.Context(), engine.PruneDataInput{
			ToolCallsDays: daysOrDefault(toolCalls, s.cfg.Retention.ToolCallsDays),
			TurnsDays:     daysOrDefault(turns, s.cfg.Retention.TurnsDays),
			SessionsDays:  daysOrDefault(sessions, s.cfg.Retention.SessionsDays),
			DryRun:        dryRun,
		})
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	tier, err := tierFlag(cmd)
	if err != nil {
		return emit(cmd, nil, err)
	}
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.Stats(cmd.Context(), tier, projectPath())
	})
}

// daysOrDefault treats -1 as unset so that 0 stays a valid threshold
func daysOrDefault(v, fallback int) int {
	if v == -1 {
		return fallback
	}
	return v
}
