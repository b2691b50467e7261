package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsstand/internal/commons"
	"newsstand/internal/config"
	"newsstand/internal/dashboard"
	"newsstand/internal/infrastructure/logger"
	"newsstand/internal/infrastructure/memory"
	"newsstand/internal/infrastructure/mysql"
	"newsstand/internal/product"
	"newsstand/internal/sale"
	"newsstand/internal/server"
	"newsstand/internal/uow"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "newsstand",
		Short:         "Point of sale and inventory for a newsstand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(newServeCmd(load), newMigrateCmd(load), newConfigCmd(load))
	return root
}

type configLoader func() (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer zapLogger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, zapLogger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	var (
		factory uow.Factory
		ping    server.PingFunc
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		zapLogger.Warn("using in-memory store, data is lost on exit")
		factory = memory.NewSeeded()
	default:
		if cfg.Store.MigrateOnStart {
			if err := runMigrations(ctx, cfg, zapLogger, func(m *mysql.Migrator) error { return m.Up() }); err != nil {
				return err
			}
		}

		db, err := mysql.NewConnection(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		zapLogger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))

		factory = mysql.NewFactory(db)
		ping = db.PingContext
	}

	v := commons.NewValidator()
	router := server.NewRouter(
		product.NewModule(factory, cfg, v, zapLogger),
		sale.NewModule(factory, v, zapLogger),
		dashboard.NewModule(factory, cfg, zapLogger),
		ping,
		zapLogger,
	)

	srv := server.New(cfg.Server, router, zapLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zapLogger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	zapLogger.Info("server stopped gracefully")
	return nil
}

func newMigrateCmd(load configLoader) *cobra.Command {
	var (
		down        int
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if down < 0 {
				return fmt.Errorf("--down must not be negative, got %d", down)
			}
			if down > 0 && showVersion {
				return errors.New("--down and --version are mutually exclusive")
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer zapLogger.Sync()

			return runMigrations(cmd.Context(), cfg, zapLogger, func(m *mysql.Migrator) error {
				switch {
				case showVersion:
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				case down > 0:
					return m.Down(down)
				default:
					return m.Up()
				}
			})
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "revert this many migrations instead of applying")
	cmd.Flags().BoolVar(&showVersion, "version", false, "print the applied schema version")
	return cmd
}

// runMigrations opens a dedicated connection, which the migrator closes.
func runMigrations(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger, run func(m *mysql.Migrator) error) error {
	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	m, err := mysql.NewMigrator(db, zapLogger)
	if err != nil {
		db.Close()
		return err
	}
	defer m.Close()

	return run(m)
}

func newConfigCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			data, err := commons.DumpConfig(cfg)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
