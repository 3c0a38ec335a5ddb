package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/env"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply the embedded database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
				return reportNoChange(m.Up(), "Migrations applied")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
				if err := m.Steps(-1); err != nil {
					return fmt.Errorf("roll back last migration: %w", err)
				}
				log.Info("[Migrate] Last migration rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to VERSION",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migrate.Migrate, args []string) error {
				version, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return reportNoChange(m.Migrate(uint(version)), fmt.Sprintf("Migrated to version %d", version))
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migrate.Migrate, _ []string) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					log.Info("[Migrate] No migrations applied yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("read migration version: %w", err)
				}
				suffix := ""
				if dirty {
					suffix = " (dirty)"
				}
				log.Infof("[Migrate] Current version: %d%s", version, suffix)
				return nil
			}),
		},
	)
	return root
}

func withMigrator(run func(m *migrate.Migrate, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		env.SetupEnvFile()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log.Infof("[Migrate] Connecting to %s@%s:%s/%s", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)

		m, err := database.NewMigrator(cfg.DB.MigrateURL())
		if err != nil {
			return err
		}
		defer func() {
			if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
				log.Warnf("[Migrate] Closing migrator: %v, %v", sourceErr, dbErr)
			}
		}()
		return run(m, args)
	}
}

func reportNoChange(err error, success string) error {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("[Migrate] No change, database is up to date")
		return nil
	case err != nil:
		return err
	}
	log.Infof("[Migrate] %s", success)
	return nil
}
