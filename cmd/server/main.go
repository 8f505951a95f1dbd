package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"tasktempo/internal/clock"
	"tasktempo/internal/config"
	"tasktempo/internal/ops"
	"tasktempo/internal/recurrence"
	"tasktempo/internal/server"
	"tasktempo/internal/task"
	"tasktempo/internal/telemetry"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "tasktempo",
		Short:   "Task recurrence and stage synchronization server",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateKeysCmd())
	rootCmd.AddCommand(backupCmd())
	rootCmd.AddCommand(restoreCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := log.Default()

			store, err := task.NewFileStore(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}
			svc, err := task.NewService(store, logger, clock.RealClock{}, cfg.Tasks.DailyStartMinute)
			if err != nil {
				return fmt.Errorf("build task service: %w", err)
			}
			events := telemetry.NewMemoryRepository()
			svc.SetRecorder(events)

			if cfg.Storage.Watch {
				stop, err := server.WatchStore(store.Path(), svc.Rehydrate, logger)
				if err != nil {
					return fmt.Errorf("watch task store: %w", err)
				}
				defer stop()
			}

			handler, err := server.NewHandler(server.Options{
				Config:  cfg,
				Service: svc,
				Events:  events,
				Logger:  logger,
			})
			if err != nil {
				return fmt.Errorf("build server: %w", err)
			}

			logger.Printf("listening on %s", cfg.ListenAddr)
			return http.ListenAndServe(cfg.ListenAddr, handler)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tasktempo.yml", "path to config file")
	return cmd
}

func migrateKeysCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate-keys",
		Short: "Rewrite drifted recurrence instance keys to canonical YYYY-MM-DD form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := task.NewFileStore(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}
			tasks, err := store.Load()
			if err != nil {
				return fmt.Errorf("load tasks: %w", err)
			}

			migrated := 0
			for i, t := range tasks {
				updated, n := recurrence.CanonicalizeInstanceKeys(t)
				if n > 0 {
					tasks[i] = updated
					migrated += n
				}
			}
			if migrated > 0 {
				if err := store.Save(tasks); err != nil {
					return fmt.Errorf("save tasks: %w", err)
				}
			}
			fmt.Printf("migrated %d instance keys across %d tasks\n", migrated, len(tasks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tasktempo.yml", "path to config file")
	return cmd
}

func backupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "backup [archive]",
		Short: "Archive the data directory into a gzipped tarball",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := ops.BackupDataDir(cfg.DataDir, args[0]); err != nil {
				return fmt.Errorf("backup: %w", err)
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tasktempo.yml", "path to config file")
	return cmd
}

func restoreCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "restore [archive]",
		Short: "Restore the data directory from a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := ops.RestoreDataDir(args[0], cfg.DataDir); err != nil {
				return fmt.Errorf("restore: %w", err)
			}
			fmt.Printf("restored into %s\n", cfg.DataDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "tasktempo.yml", "path to config file")
	return cmd
}
