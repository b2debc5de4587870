// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cli implements the hippocampus commands. Every command prints
// one JSON (or YAML) envelope on stdout; logs go to stderr.
package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tejzpr/hippocampus/internal/config"
	"github.com/tejzpr/hippocampus/internal/database"
	"github.com/tejzpr/hippocampus/internal/engine"
	"github.com/tejzpr/hippocampus/internal/memory"
	"github.com/tejzpr/hippocampus/internal/store"
)

var (
	configPath  string
	dbType      string
	dbPath      string
	dbDSN       string
	projectFlag string
	formatFlag  string
)

// errReported means the failure envelope was already written
var errReported = errors.New("reported")

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "hippocampus",
	Short:         "Persistent tiered memory for AI coding assistants",
	Long:          "Stores conventions, gotchas and learnings per project or globally, ranks them by confidence and retires them as they age.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.hippocampus/configs/config.json)")
	RootCmd.PersistentFlags().StringVar(&dbType, "db-type", "", "Database type: sqlite or postgres")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path")
	RootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", "", "PostgreSQL connection string")
	RootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project directory (default: $PROJECT_PATH or the working directory)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or yaml")
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}
	if !errors.Is(err, errReported) {
		// flag and argument errors from cobra
		_ = render(RootCmd.OutOrStdout(), engine.Failure(err), formatFlag)
	}
	return 1
}

// loadConfig reads the config file, then applies environment and flag
// overrides, highest priority last
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			log.Printf("Warning: Failed to load default config: %v", err)
			cfg = config.DefaultConfig()
		}
	}

	applyEnvOverrides(cfg)
	applyCLIOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *config.Config) {
	if v := getEnv("HIPPOCAMPUS_DB_TYPE", "DB_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := getEnv("HIPPOCAMPUS_DB_PATH", "DB_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := getEnv("HIPPOCAMPUS_DB_DSN", "DB_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
}

// applyCLIOverrides applies command-line flag overrides to configuration
func applyCLIOverrides(cfg *config.Config) {
	if dbType != "" {
		cfg.Database.Type = dbType
	}
	if dbPath != "" {
		cfg.Database.SQLitePath = dbPath
	}
	if dbDSN != "" {
		cfg.Database.PostgresDSN = dbDSN
	}
}

// getEnv tries multiple environment variable names and returns the first non-empty value
func getEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// projectPath resolves the project the command acts on
func projectPath() string {
	if projectFlag != "" {
		return projectFlag
	}
	if env := os.Getenv("PROJECT_PATH"); env != "" {
		return env
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Warning: could not determine working directory: %v", err)
		return ""
	}
	return wd
}

// app is an open engine plus the config it was built from
type app struct {
	cfg   *config.Config
	eng   *engine.Engine
	close func()
}

// openEngine connects to the configured database, migrates it and wraps
// it in an engine
func openEngine() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseConfig())
	if err != nil {
		return nil, err
	}
	if err := database.Setup(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to prepare database: %w", err)
	}

	return &app{
		cfg:   cfg,
		eng:   engine.New(store.New(db), engine.WithTimeout(cfg.OperationTimeout())),
		close: func() { _ = database.Close(db) },
	}, nil
}

// run opens the engine, calls fn and prints its envelope
func run(cmd *cobra.Command, fn func(s *app) (interface{}, error)) error {
	s, err := openEngine()
	if err != nil {
		return emit(cmd, nil, err)
	}
	defer s.close()

	resp, err := fn(s)
	return emit(cmd, resp, err)
}

// emit prints resp, or the failure envelope when err is set
func emit(cmd *cobra.Command, resp interface{}, err error) error {
	out := cmd.OutOrStdout()
	if err != nil {
		if rerr := render(out, engine.Failure(err), formatFlag); rerr != nil {
			return rerr
		}
		return errReported
	}
	return render(out, resp, formatFlag)
}

func tierFlag(cmd *cobra.Command) (memory.Tier, error) {
	raw, _ := cmd.Flags().GetString("tier")
	return memory.ParseTier(raw)
}
