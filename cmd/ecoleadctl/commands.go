package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type options struct {
	databaseURL string
	timeout     time.Duration
	file        string
	jsonOutput  bool
}

// =============================================================================
// COMMAND TREE
// =============================================================================

// newRootCmd builds a fresh command tree. Tests call it once per case so
// that flag state never leaks between runs.
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ecoleadctl",
		Short:         "Operator tooling for the ECOLead Finance progression service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print machine-readable JSON")

	// migrate
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	migrateCmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"),
		"PostgreSQL connection string (defaults to $DATABASE_URL)")
	migrateCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall operation timeout")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runMigrateUp(cmd, opts) },
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert the last applied migration",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runMigrateDown(cmd, opts) },
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runMigrateStatus(cmd, opts) },
	})

	// catalog
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect mission content files",
	}
	catalogCmd.PersistentFlags().StringVar(&opts.file, "file", "", "catalog YAML file (empty = embedded seed)")

	catalogCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check a catalog file and print its statistics",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runCatalogValidate(cmd, opts) },
	})
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "fingerprint",
		Short: "Print the content fingerprint used in cache keys",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runCatalogFingerprint(cmd, opts) },
	})

	// policy
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect scoring, label and recommendation policy files",
	}
	policyCmd.PersistentFlags().StringVar(&opts.file, "file", "", "policy YAML file (empty = built-in defaults)")

	policyCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check a policy file against the defaults",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return runPolicyValidate(cmd, opts) },
	})

	rootCmd.AddCommand(migrateCmd, catalogCmd, policyCmd)
	return rootCmd
}
