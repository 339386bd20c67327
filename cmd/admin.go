package cmd

import (
	"errors"
	"fmt"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/pkg/database"
	"quiz_bank_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || len(password) < 6 {
			return errors.New("--email and --password (at least 6 characters) are required")
		}

		cfg, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer logger.Log.Sync()

		if err := database.Migrate(db); err != nil {
			return err
		}

		auth := service.NewAuthService(repository.NewUserRepository(db), cfg)
		user, err := auth.CreateAdmin(name, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin created: %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().String("name", "admin", "Display name")
	createAdminCmd.Flags().String("email", "", "Login email")
	createAdminCmd.Flags().String("password", "", "Login password")
}
