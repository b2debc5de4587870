// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/memory"
)

func init() {
	add := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin.",
		RunE:  runAdd,
	}
	add.Flags().StringP("type", "t", "", "Type: convention, architecture, gotcha, api, learning, preference (required)")
	add.Flags().String("tags", "", "Comma-separated tags")
	add.Flags().StringP("confidence", "c", "high", "Confidence: high, medium, low")
	add.Flags().String("tier", "project", "Tier: project or global")
	add.Flags().String("supersedes", "", "ID of the memory this one replaces")
	add.Flags().String("session", "", "Source session ID")
	add.Flags().String("turn", "", "Source turn ID")
	add.MarkFlagRequired("type")

	update := &cobra.Command{
		Use:   "update <id> [content]",
		Short: "Replace a memory's content",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runUpdate,
	}
	update.Flags().String("tier", "", "Move to tier: project or global")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one memory",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}

	RootCmd.AddCommand(add, update, del, get)
}

func runAdd(cmd *cobra.Command, args []string) error {
	rawType, _ := cmd.Flags().GetString("type")
	tagsStr, _ := cmd.Flags().GetString("tags")
	rawConfidence, _ := cmd.Flags().GetString("confidence")
	rawTier, _ := cmd.Flags().GetString("tier")
	supersedes, _ := cmd.Flags().GetString("supersedes")
	sessionID, _ := cmd.Flags().GetString("session")
	turnID, _ := cmd.Flags().GetString("turn")

	typ, err := memory.ParseType(rawType)
	if err != nil {
		return emit(cmd, nil, err)
	}
	confidence, err := memory.ParseConfidence(rawConfidence)
	if err != nil {
		return emit(cmd, nil, err)
	}
	scope, err := memory.ParseScope(rawTier)
	if err != nil {
		return emit(cmd, nil, err)
	}
	content, err := readContent(cmd, args)
	if err != nil {
		return emit(cmd, nil, err)
	}

	return run(cmd, func(s *app) (interface{}, error) {
		outcome, err := s.eng.Add(cmd.Context(), engine.AddInput{
			Type:            typ,
			Content:         content,
			Tags:            splitTags(tagsStr),
			Confidence:      confidence,
			Tier:            memory.Tier(scope),
			ProjectPath:     projectPath(),
			SourceSessionID: sessionID,
			SourceTurnID:    turnID,
			Supersedes:      supersedes,
		})
		if err != nil {
			return nil, err
		}
		return outcome.Response(), nil
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	rawTier, _ := cmd.Flags().GetString("tier")

	var tier *memory.Tier
	if rawTier != "" {
		scope, err := memory.ParseScope(rawTier)
		if err != nil {
			return emit(cmd, nil, err)
		}
		t := memory.Tier(scope)
		tier = &t
	}
	content, err := readContent(cmd, args[1:])
	if err != nil {
		return emit(cmd, nil, err)
	}

	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.Update(cmd.Context(), args[0], content, tier, projectPath())
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.Delete(cmd.Context(), args[0])
	})
}

func runGet(cmd *cobra.Command, args []string) error {
	return run(cmd, func(s *app) (interface{}, error) {
		return s.eng.Get(cmd.Context(), args[0])
	})
}

// readContent takes content from positional args, then from piped stdin
func readContent(cmd *cobra.Command, args []string) (string, error) {
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else if in, ok := cmd.InOrStdin().(*os.File); !ok || isPipe(in) {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		content = string(b)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("content is required (positional arg or stdin)")
	}
	return content, nil
}

func isPipe(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
