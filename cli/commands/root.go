// Package commands implements the prisma-docdb CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/prisma-docdb/cli/internal/config"
	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/cli/internal/version"
	"github.com/satishbabariya/prisma-docdb/internal/debug"
	"github.com/satishbabariya/prisma-docdb/telemetry"
)

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	configFile string
	metrics    *telemetry.Collector
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New(), metrics: telemetry.New("")}

	root := &cobra.Command{
		Use:           "prisma-docdb",
		Short:         "Query compiler and CRUD tool for document stores",
		Long:          "prisma-docdb compiles filter objects into parameterised document queries and runs CRUD operations against a document store.",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./.prisma-docdb.yaml)")
	flags.String("backend", "", "storage backend: memory, sqlite, postgres or mysql")
	flags.String("dsn", "", "storage connection string")
	flags.String("database", "", "database id")
	flags.String("id-field", "", "document identifier field")
	flags.Int("concurrency", 0, "max in-flight calls for batch operations (0 = unlimited)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("json-logs", false, "log as JSON")

	for key, flag := range map[string]string{
		config.KeyBackend:     "backend",
		config.KeyDSN:         "dsn",
		config.KeyDatabase:    "database",
		config.KeyIDField:     "id-field",
		config.KeyConcurrency: "concurrency",
		config.KeyDebug:       "debug",
		config.KeyJSONLogs:    "json-logs",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newInitCommand(a),
		newCompileCommand(a),
		newWatchCommand(a),
		newFindCommand(a),
		newCountCommand(a),
		newSumCommand(a),
		newCreateCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newProvisionCommand(a),
		newServeMetricsCommand(a),
		newVersionCommand(),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	debug.Init(cfg.Debug)
	debug.SetJSON(cfg.JSONLogs)
	if cfg.File != "" {
		debug.Debug("loaded config", "file", cfg.File)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute is the main entry point for the CLI
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

func usageError(cmd *cobra.Command, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", cmd.CommandPath(), fmt.Sprintf(format, args...))
}
