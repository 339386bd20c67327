package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"quiz_bank_backend/internal/config"
	"quiz_bank_backend/internal/controller"
	"quiz_bank_backend/internal/repository"
	"quiz_bank_backend/internal/service"
	"quiz_bank_backend/pkg/configwatcher"
	"quiz_bank_backend/pkg/logger"
	"quiz_bank_backend/pkg/monitoring"
	"quiz_bank_backend/pkg/security"
	"quiz_bank_backend/pkg/tracing"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

const serviceName = "quiz-bank"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	services        *services
	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	topic      *repository.TopicRepository
	question   *repository.QuestionRepository
	aiQuestion *repository.AIQuestionRepository
	attempt    *repository.AttemptRepository
}

type services struct {
	auth     *service.AuthService
	ai       *service.AIService
	storage  *service.StorageService
	topic    *service.TopicService
	question *service.QuestionService
	quiz     *service.QuizService
	report   *service.ReportService
}

type controllers struct {
	health     *controller.HealthController
	auth       *controller.AuthController
	topic      *controller.TopicController
	question   *controller.QuestionController
	aiQuestion *controller.AIQuestionController
	quiz       *controller.QuizController
	report     *controller.ReportController
	file       *controller.FileController
}

// RegisterConfigCallback 注册配置热更新回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 依次执行已注册的回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
	logger.Log.Info("Configuration reloaded", zap.Int("callbacks", len(callbacks)))
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		topic:      repository.NewTopicRepository(db),
		question:   repository.NewQuestionRepository(db),
		aiQuestion: repository.NewAIQuestionRepository(db),
		attempt:    repository.NewAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	storage := service.NewStorageService(cfg)
	ai := service.NewAIService(cfg.AI)

	return &services{
		auth:     service.NewAuthService(repos.user, cfg),
		ai:       ai,
		storage:  storage,
		topic:    service.NewTopicService(repos.topic),
		question: service.NewQuestionService(repos.question, repos.aiQuestion, repos.topic, ai, storage),
		quiz:     service.NewQuizService(repos.question, repos.aiQuestion, repos.topic, repos.attempt, ai, cfg.AI.Concurrency()),
		report:   service.NewReportService(cfg.Report),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		health:     controller.NewHealthController(db),
		auth:       controller.NewAuthController(s.auth),
		topic:      controller.NewTopicController(s.topic),
		question:   controller.NewQuestionController(s.question),
		aiQuestion: controller.NewAIQuestionController(s.question),
		quiz:       controller.NewQuizController(s.quiz),
		report:     controller.NewReportController(s.report),
		file:       controller.NewFileController(s.question),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已打开的数据库装配路由与服务，不做迁移
func New(cfg *config.Config, db *gorm.DB) *App {
	gin.SetMode(cfg.Server.Mode)

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	s := app.initServices(repos, cfg)
	app.services = s
	ctrls := app.initControllers(s, db)

	monitoring.Init()

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
	})

	return app
}

// NewApp 初始化追踪并装配应用
func NewApp(cfg *config.Config, db *gorm.DB) (*App, error) {
	app := New(cfg, db)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(context.Background(), serviceName, cfg.Tracing)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	return app, nil
}

func (a *App) watchConfig(ctx context.Context, configFile string) {
	if _, err := os.Stat(configFile); err != nil {
		logger.Log.Info("Config file not found, hot reload disabled", zap.String("file", configFile))
		return
	}
	go func() {
		if err := configwatcher.WatchConfig(ctx, configFile, a.ApplyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func (a *App) Run(configDir string) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.watchConfig(ctx, filepath.Join(configDir, "config.yaml"))

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
	return nil
}
