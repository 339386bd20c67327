package cmd

import (
	"quiz_bank_backend/pkg/database"
	"quiz_bank_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migration and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Log.Sync()

		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Log.Info("Database migration finished")
		return nil
	},
}
