package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/persistence/postgres"
)

// errNoDatabaseURL is returned before any connection attempt.
var errNoDatabaseURL = errors.New("database URL is required (--database-url or $DATABASE_URL)")

// MigrationStatus is one row of "migrate status --json".
type MigrationStatus struct {
	Version   int        `json:"version"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// withMigrator connects, runs fn and closes the pool.
func withMigrator(cmd *cobra.Command, opts *options, fn func(ctx context.Context, m *postgres.Migrator) error) error {
	if opts.databaseURL == "" {
		return errNoDatabaseURL
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, postgres.DefaultConfig(opts.databaseURL))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	return fn(ctx, postgres.NewMigrator(conn))
}

// runMigrateUp is the handler for "ecoleadctl migrate up".
func runMigrateUp(cmd *cobra.Command, opts *options) error {
	return withMigrator(cmd, opts, func(ctx context.Context, m *postgres.Migrator) error {
		applied, err := m.Migrate(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]int{"applied": applied})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
		return nil
	})
}

// runMigrateDown is the handler for "ecoleadctl migrate down".
func runMigrateDown(cmd *cobra.Command, opts *options) error {
	return withMigrator(cmd, opts, func(ctx context.Context, m *postgres.Migrator) error {
		version, err := m.Rollback(ctx)
		if err != nil {
			return err
		}
		if opts.jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]int{"reverted": version})
		}
		if version == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to revert")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reverted migration %d\n", version)
		return nil
	})
}

// runMigrateStatus is the handler for "ecoleadctl migrate status".
func runMigrateStatus(cmd *cobra.Command, opts *options) error {
	return withMigrator(cmd, opts, func(ctx context.Context, m *postgres.Migrator) error {
		migrations, err := m.Status(ctx)
		if err != nil {
			return err
		}

		rows := make([]MigrationStatus, 0, len(migrations))
		for _, mig := range migrations {
			row := MigrationStatus{Version: mig.Version, Name: mig.Name, Applied: mig.IsApplied}
			if mig.IsApplied {
				at := mig.AppliedAt
				row.AppliedAt = &at
			}
			rows = append(rows, row)
		}
		if opts.jsonOutput {
			return outputJSON(cmd.OutOrStdout(), rows)
		}
		printMigrationTable(cmd.OutOrStdout(), rows)
		return nil
	})
}
