// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cli

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/server"
	"github.com/tejzpr/hippocampus/pkg/scheduler"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  "Serve every memory operation as an MCP tool over stdin/stdout. When maintenance.interval_minutes is set, retention also runs in the background.",
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openEngine()
	if err != nil {
		return err
	}
	defer a.close()

	log.Printf("Starting %s MCP server (database=%s)", a.cfg.Server.Name, a.cfg.Database.Type)

	if minutes := a.cfg.Maintenance.IntervalMinutes; minutes > 0 {
		sched := scheduler.NewScheduler(a.eng, a.cfg.Retention, minutes, a.cfg.Maintenance.LeaseMinutes)
		sched.Start()
		defer sched.Stop()
		log.Printf("Retention scheduled every %d minutes", minutes)
	}

	srv := server.NewMCPServer(a.cfg, a.eng, projectPath())
	if err := srv.ServeStdio(); err != nil {
		log.Printf("MCP server stopped: %v", err)
		return errReported
	}
	return nil
}
