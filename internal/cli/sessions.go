// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/store"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Record assistant sessions",
	}
	sessionCmd.AddCommand(
		&cobra.Command{
			Use:   "start <session-id>",
			Short: "Record a session start and the project's git status",
			Args:  cobra.ExactArgs(1),
			RunE:  runSessionStart,
		},
	)
	end := &cobra.Command{
		Use:   "end <session-id>",
		Short: "Mark a session completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionEnd,
	}
	end.Flags().String("summary", "", "What the session accomplished")
	sessionCmd.AddCommand(end)

	turnCmd := &cobra.Command{
		Use:   "turn",
		Short: "Record conversation turns",
	}
	turnStart := &cobra.Command{
		Use:   "start <session-id> [prompt]",
		Short: "Open the next turn of a session",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTurnStart,
	}
	turnStart.Flags().String("model", "", "Model answering the turn")
	turnFinish := &cobra.Command{
		Use:   "finish <turn-id> [response]",
		Short: "Store the response and token usage of a turn",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTurnFinish,
	}
	turnFinish.Flags().Int("input-tokens", -1, "Prompt tokens")
	turnFinish.Flags().Int("output-tokens", -1, "Completion tokens")
	turnCmd.AddCommand(turnStart, turnFinish)

	toolCall := &cobra.Command{
		Use:   "tool-call <tool-name>",
		Short: "Record a tool invocation",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolCall,
	}
	toolCall.Flags().String("session", "", "Session ID")
	toolCall.Flags().String("turn", "", "Turn ID")
	toolCall.Flags().String("params", "", "Tool input, usually JSON")
	toolCall.Flags().String("result", "", "Short description of the outcome")

	RootCmd.AddCommand(sessionCmd, turnCmd, toolCall)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	return run(cmd, func(a *app) (interface{}, error) {
		return a.eng.StartSession(cmd.Context(), args[0], projectPath())
	})
}

func runSessionEnd(cmd *cobra.Command, args []string) error {
	summary, _ := cmd.Flags().GetString("summary")
	return run(cmd, func(a *app) (interface{}, error) {
		return a.eng.EndSession(cmd.Context(), args[0], summary)
	})
}

func runTurnStart(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	prompt, err := readContent(cmd, args[1:])
	if err != nil {
		return emit(cmd, nil, err)
	}
	return run(cmd, func(a *app) (interface{}, error) {
		return a.eng.StartTurn(cmd.Context(), args[0], prompt, model)
	})
}

func runTurnFinish(cmd *cobra.Command, args []string) error {
	response, err := readContent(cmd, args[1:])
	if err != nil {
		return emit(cmd, nil, err)
	}
	input := tokenFlag(cmd, "input-tokens")
	output := tokenFlag(cmd, "output-tokens")
	return run(cmd, func(a *app) (interface{}, error) {
		return a.eng.FinishTurn(cmd.Context(), args[0], response, input, output)
	})
}

func runToolCall(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	turnID, _ := cmd.Flags().GetString("turn")
	params, _ := cmd.Flags().GetString("params")
	result, _ := cmd.Flags().GetString("result")
	return run(cmd, func(a *app) (interface{}, error) {
		return a.eng.RecordToolCall(cmd.Context(), store.ToolCallInput{
			SessionID:     sessionID,
			TurnID:        turnID,
			ToolName:      args[0],
			Parameters:    params,
			ResultSummary: result,
		})
	})
}

func tokenFlag(cmd *cobra.Command, name string) *int {
	v, _ := cmd.Flags().GetInt(name)
	if v < 0 {
		return nil
	}
	return &v
}
