package app

import (
	"quiz_bank_backend/docs"
	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/middleware"
	"quiz_bank_backend/internal/model"
	"quiz_bank_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	public := router.Group("/api")
	public.Use(middleware.RequestLogger())
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	api := router.Group("/api")
	api.Use(middleware.RequestLogger(), middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		api.GET("/me", c.auth.Me)

		a.registerQuestionRoutes(api, c)
		a.registerQuizRoutes(api, c)
		a.registerCatalogRoutes(api, c)

		reports := api.Group("/reports")
		{
			reports.POST("", c.report.CreateReport)
			reports.GET("/:id", c.report.GetReport)
			reports.DELETE("/:id", c.report.DeleteReport)
		}

		files := api.Group("/files/questions")
		{
			files.POST("/:id/upload", c.file.UploadQuestionPicture)
			files.GET("/:id/picture", c.file.GetQuestionPicture)
		}
	}
}

func (a *App) registerQuestionRoutes(rg *gin.RouterGroup, c *controllers) {
	questions := rg.Group("/questions")
	{
		questions.POST("", c.question.CreateQuestion)
		questions.GET("", c.question.ListQuestions)
		questions.POST("/check", c.question.CheckAnswers)
		questions.GET("/:id/answers", c.question.ListAnswers)
		questions.PUT("/:id", c.question.UpdateQuestion)
		questions.DELETE("/:id", c.question.DeleteQuestion)
	}

	answers := rg.Group("/answers")
	{
		answers.PUT("/:id", c.question.UpdateAnswer)
		answers.DELETE("/:id", c.question.DeleteAnswer)
	}

	aiQuestions := rg.Group("/ai-questions")
	{
		aiQuestions.POST("", c.aiQuestion.CreateAIQuestion)
		aiQuestions.GET("", c.aiQuestion.ListAIQuestions)
		aiQuestions.POST("/check", c.aiQuestion.CheckAIAnswer)
		aiQuestions.PUT("/:id", c.aiQuestion.UpdateAIQuestion)
		aiQuestions.DELETE("/:id", c.aiQuestion.DeleteAIQuestion)
	}
}

func (a *App) registerQuizRoutes(rg *gin.RouterGroup, c *controllers) {
	quiz := rg.Group("/quiz")
	{
		quiz.GET("", c.quiz.GetQuiz)
		quiz.GET("/count", c.quiz.CountQuestions)
		quiz.POST("/submit", c.quiz.SubmitQuiz)
		quiz.GET("/attempts", c.quiz.ListAttempts)
	}
}

func (a *App) registerCatalogRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/chapters", c.topic.ListChapters)
	rg.GET("/topics", c.topic.ListTopics)

	// 章节与知识点的写操作仅管理员可用
	adminOnly := rg.Group("")
	adminOnly.Use(middleware.RoleMiddleware(model.Admin))
	{
		adminOnly.POST("/chapters", c.topic.CreateChapter)
		adminOnly.PUT("/chapters/:id", c.topic.RenameChapter)
		adminOnly.DELETE("/chapters/:id", c.topic.DeleteChapter)
		adminOnly.POST("/topics", c.topic.CreateTopic)
		adminOnly.DELETE("/topics/:id", c.topic.DeleteTopic)
	}
}
