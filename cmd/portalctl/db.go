package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/UB-CSE-IT/Autolab-Self-Service/pkg/database"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the database schema",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		sqlDB, err := e.db.DB()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(sqlDB, e.logger); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the applied schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		sqlDB, err := e.db.DB()
		if err != nil {
			return err
		}
		version, dirty, err := database.MigrationStatus(sqlDB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
		if dirty {
			fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd, dbStatusCmd)
	rootCmd.AddCommand(dbCmd)
}
