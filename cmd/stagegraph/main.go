package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/npratt/stagegraph/internal/api"
	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/tui"
)

var version = "dev"

func main() {
	logLevel := &slog.LevelVar{}
	logger := newJSONLogger(os.Stderr, logLevel)
	slog.SetDefault(logger)

	viper.SetEnvPrefix("STAGEGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// loadConfig applies --verbose and reads the layered config.
	loadConfig := func() (*config.Config, error) {
		if viper.GetBool(FlagVerbose) {
			logLevel.Set(slog.LevelDebug)
			logger.Debug("verbose logging enabled")
		}
		cfg, err := config.LoadConfig(viper.GetViper())
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:   "stagegraph",
		Short: "Stage-grouped task dependency graphs",
		Long: `stagegraph lays out a task collection as a dependency graph grouped into
stage lanes. Tasks come from a JSON/YAML file or a Postgres table.

View the graph in the terminal, serve it over HTTP for a dashboard, or dump
the laid-out scene as JSON.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .stagegraph/config.yaml)")
	rootCmd.PersistentFlags().String(FlagTasks, "", "Task file path (overrides tasks.file)")

	bindFlags(viper.GetViper(), rootCmd.PersistentFlags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stagegraph %s\n", version)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Show the task graph in the terminal",
		Long: `Show the task graph in an interactive terminal view.

Keys: arrows/hjkl select, space/t toggle subtree, enter open details,
H/J/K/L pan, R reload, q quit. Without a terminal the graph is printed
as an outline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logResult, err := SetupTUILogger(debugLogDir, logLevel, cfg.LogRotation)
			if err != nil {
				return fmt.Errorf("setup debug log: %w", err)
			}
			defer func() { _ = logResult.Close() }()
			viewLogger := logResult.Logger

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			source, err := openSource(ctx, cfg.Tasks)
			if err != nil {
				return err
			}
			defer func() { _ = source.Close() }()

			engine, err := newEngine(cfg, viewLogger)
			if err != nil {
				return err
			}

			view := tui.New(engine, source, cfg.TUI,
				tui.WithWatch(cfg.Tasks.Watch),
				tui.WithLogger(viewLogger),
				tui.WithOnQuit(func() { viewLogger.Info("view closed") }),
			)
			return view.Run(ctx)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task graph over HTTP",
		Long: `Serve the laid-out graph for a dashboard.

Endpoints: GET /health, GET /api/graph, POST /api/nodes/:id/toggle,
PUT /api/viewport, GET /api/tasks/:id and GET /api/graph/stream (websocket).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			source, err := openSource(ctx, cfg.Tasks)
			if err != nil {
				return err
			}
			defer func() { _ = source.Close() }()

			engine, err := newEngine(cfg, logger)
			if err != nil {
				return err
			}

			watchCtx, cancelWatch := context.WithCancel(ctx)
			defer cancelWatch()
			if _, err := followSource(watchCtx, engine, source, cfg.Tasks.Watch, logger); err != nil {
				return err
			}

			gin.SetMode(gin.ReleaseMode)
			srv := api.New(engine, cfg.Server, api.WithLogger(logger), api.WithVersion(version))
			return srv.Run(ctx)
		},
	}

	serveCmd.Flags().String(FlagAddr, "", "Listen address (overrides server.addr)")
	bindFlags(viper.GetViper(), serveCmd.Flags())

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the laid-out graph as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			width, err := cmd.Flags().GetFloat64(FlagWidth)
			if err != nil {
				return err
			}
			return runLayout(cmd.Context(), cmd.OutOrStdout(), cfg, width, logger)
		},
	}

	layoutCmd.Flags().Float64(FlagWidth, 0, "Viewport width in pixels (0 selects the expanded preset)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(layoutCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
