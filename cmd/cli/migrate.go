package cli

import (
	"fmt"

	"github.com/axellelanca/linkforge/cmd"
	"github.com/axellelanca/linkforge/internal/database"
	"github.com/axellelanca/linkforge/internal/logging"
	"github.com/spf13/cobra"
)

// MigrateCmd represents the 'migrate' command
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Executes database migrations to create or update tables.",
	Long: `This command connects to the configured database and runs GORM
automatic migrations for the short_links, short_codes and click_events tables.`,
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := cmd.LoadedConfig()
		if err != nil {
			return err
		}

		logger, level, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := database.Open(cfg.Database, logger, level.Level())
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}

		fmt.Fprintln(c.OutOrStdout(), "Database migrations executed successfully.")
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(MigrateCmd)
}
