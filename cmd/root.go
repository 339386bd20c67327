package cmd

import (
	"fmt"
	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/pkg/database"
	"quiz_bank_backend/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "quizbank",
	Short:         "Quiz bank backend",
	Long:          "QuizBank 题库服务：题目管理、随机组卷、AI 评分与 PDF 报告。",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "configs", "Directory containing config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
}

func configDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config")
	return dir
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap(cmd *cobra.Command) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig(configDir(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return cfg, db, nil
}
