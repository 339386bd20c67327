package cmd

import (
	"quiz_bank_backend/internal/app"
	"quiz_bank_backend/pkg/database"
	"quiz_bank_backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Log.Sync()

		// release 模式下默认不自动迁移
		cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")
		if cfg.ForceMigrate || cfg.Server.Mode != "release" {
			if err := database.Migrate(db); err != nil {
				return err
			}
		}

		application, err := app.NewApp(cfg, db)
		if err != nil {
			logger.Log.Error("Failed to initialize application", zap.Error(err))
			return err
		}
		return application.Run(configDir(cmd))
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run database migration before serving, even in release mode")
}
