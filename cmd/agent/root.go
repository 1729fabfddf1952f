// Package agent is the CLI entry point: it loads configuration, runs the
// startup sequence (load → register → allocate → compile) and serves the
// host's refresh/fetch calls until the process is told to stop.
package agent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	agentpkg "github.com/metric-agent/pkg/agent"
	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/logger"
	"github.com/metric-agent/pkg/module"
	_ "github.com/metric-agent/pkg/modules"
	"github.com/metric-agent/pkg/signal"
	"github.com/metric-agent/pkg/telemetry"
	"github.com/metric-agent/pkg/util"

	"github.com/metric-agent/internal/server"
)

var (
	cfgFile    string
	defaultCfg = config.NewDefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "metric-agent",
	Short: "Config-driven metrics agent multiplexing refresh/fetch requests to instrumentation modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadWithCli(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			os.Exit(1)
		}
		if err := runAgent(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "startup error: %v\n", err)
			os.Exit(1)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "path to the configuration file")
	initServerFlags(rootCmd)
	initLogFlags(rootCmd)
}

func runAgent(cfg *config.Config) error {
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.GetLogger()

	introspect := agentpkg.IntrospectionMode()
	if !introspect {
		util.PrintBanner("metric-agent")
	}

	reg, err := agentpkg.LoadModules(cfg.Modules, module.DefaultRegistry, log)
	if err != nil {
		return fmt.Errorf("resolve modules: %w", err)
	}

	schema := host.NewSchemaTable()
	if err := agentpkg.Allocate(reg, schema, log); err != nil {
		return fmt.Errorf("allocate metric addresses: %w", err)
	}
	log.Info("address space registered",
		zap.Int("modules", len(reg.Modules())),
		zap.Int("metrics", schema.Len()))

	lifecycle := agentpkg.NewLifecycle(reg, introspect, log)
	if introspect {
		// Introspection walks the schema only; nothing is activated
		// and nothing will need tearing down.
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(schema.Metrics())
	}

	if err := lifecycle.Startup(); err != nil {
		return fmt.Errorf("compile modules: %w", err)
	}

	tel := telemetry.New(true)
	dispatcher := agentpkg.NewDispatcher(reg, schema, tel, log)
	httpServer := server.NewHTTPServer(cfg.Server, dispatcher, schema, tel, log)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("start HTTP server: %w", err)
	}

	signal.WaitForShutdown(log, func() error {
		err := httpServer.Shutdown()
		lifecycle.Shutdown()
		return err
	})
	return nil
}
