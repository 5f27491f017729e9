package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-surreal/surtype"
)

var (
	migrateDir    string
	migrateDryRun bool
	migrateTarget string
	rollbackSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply and inspect schema migrations",
	Long: `migrate manages schema migrations stored as .surql scripts in a
directory. Each NAME.surql file is one migration; an optional
NAME.down.surql holds its rollback statements. Applied migrations are
recorded in the _migrations table, keyed by name, with a checksum that
guards against editing an already-applied script.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		opts := []surtype.MigrationOption{surtype.WithLogger(cliLogger())}
		if migrateDryRun {
			opts = append(opts, surtype.WithDryRun())
		}
		if migrateTarget != "" {
			opts = append(opts, surtype.WithTarget(migrateTarget))
		}

		applied, err := surtype.RunMigrations(ctx, c, migrations, opts...)
		if err != nil {
			return err
		}
		if migrateDryRun {
			fmt.Printf("%d pending migration(s)\n", len(applied))
			for _, name := range applied {
				fmt.Println("  " + name)
			}
			return nil
		}
		fmt.Printf("applied %d migration(s)\n", len(applied))
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations are applied and which are pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		infos, err := surtype.MigrationStatus(ctx, c, migrations)
		if err != nil {
			return err
		}
		for _, info := range infos {
			state := "pending"
			if info.Applied {
				state = "applied"
				if info.AppliedAt != "" {
					state += " " + info.AppliedAt
				}
			}
			fmt.Printf("%-44s %s\n", info.Name, state)
		}
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the most recently applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		rolledBack, err := surtype.RollbackMigrations(ctx, c, migrations, rollbackSteps)
		if err != nil {
			return err
		}
		fmt.Printf("rolled back %d migration(s)\n", len(rolledBack))
		for _, name := range rolledBack {
			fmt.Println("  " + name)
		}
		return nil
	},
}

var migrateStampCmd = &cobra.Command{
	Use:   "stamp",
	Short: "Record migrations as applied without running them",
	Long: `stamp writes migration records without executing any statements. Use
it to bring the _migrations table in line with a schema that was
applied by other means.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		opts := []surtype.MigrationOption{surtype.WithLogger(cliLogger())}
		if migrateDryRun {
			opts = append(opts, surtype.WithDryRun())
		}
		stamped, err := surtype.StampMigrations(ctx, c, migrations, opts...)
		if err != nil {
			return err
		}
		fmt.Printf("stamped %d migration(s)\n", len(stamped))
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDir, "dir", "migrations", "directory of .surql migration files")
	migrateUpCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "list pending migrations without applying them")
	migrateUpCmd.Flags().StringVar(&migrateTarget, "target", "", "stop after applying the named migration")
	migrateStampCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "list migrations that would be stamped")
	migrateRollbackCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.AddCommand(migrateRollbackCmd)
	migrateCmd.AddCommand(migrateStampCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadMigrations() ([]surtype.Migration, error) {
	if _, err := os.Stat(migrateDir); err != nil {
		return nil, fmt.Errorf("migrations directory %q: %w", migrateDir, err)
	}
	migrations, err := surtype.LoadDir(os.DirFS(migrateDir), ".")
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		return nil, fmt.Errorf("no .surql migrations in %q", migrateDir)
	}
	return migrations, nil
}
