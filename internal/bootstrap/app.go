package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/account"
	"sourcing-backend/internal/classifications"
	"sourcing-backend/internal/feasibility"
	"sourcing-backend/internal/knowledge"
	"sourcing-backend/internal/llm"
	openai "sourcing-backend/internal/llm/openai"
	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/requests"
	"sourcing-backend/internal/services/health"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/server"
	"sourcing-backend/internal/shared/storage/db"
	"sourcing-backend/internal/shared/storage/object"
	localstore "sourcing-backend/internal/shared/storage/object/local"
	s3store "sourcing-backend/internal/shared/storage/object/s3"
	"sourcing-backend/internal/shared/telemetry"
	"sourcing-backend/internal/uploads"
	"sourcing-backend/internal/usage"
	"sourcing-backend/internal/visualization"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config                 config.Config
	Router                 *gin.Engine
	DB                     *sql.DB
	Store                  object.ObjectStore
	Queue                  queue.Client
	LLM                    llm.Client
	UsageService           *usage.Service
	ClassificationsService *classifications.Service
	FeasibilityService     *feasibility.Service
	KnowledgeService       *knowledge.Service
	RequestsHandler        *requests.Handler
	VisualizationHandler   *visualization.Handler
	ClassificationsHandler *classifications.Handler
	FeasibilityHandler     *feasibility.Handler
	KnowledgeHandler       *knowledge.Handler
	UsageHandler           *usage.Handler
	UploadsHandler         *uploads.Handler
	AccountHandler         *account.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:                 app.Config,
		RequestsHandler:        app.RequestsHandler,
		VisualizationHandler:   app.VisualizationHandler,
		ClassificationsHandler: app.ClassificationsHandler,
		FeasibilityHandler:     app.FeasibilityHandler,
		KnowledgeHandler:       app.KnowledgeHandler,
		UsageHandler:           app.UsageHandler,
		UploadsHandler:         app.UploadsHandler,
		AccountHandler:         app.AccountHandler,
		Health:                 health.NewService(app.DB),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.DetectProfile())
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "migrations failed", "error": err})
			_ = sqlDB.Close()
			return nil, nil
		}
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		st, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.ReportQueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ReportQueueURL, cfg.AWSRegion)
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" || cfg.OpenAIAPIKey == "" {
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	var classificationRepo classifications.Repo
	var reportRepo feasibility.Repo
	var knowledgeRepo knowledge.Repo
	var usageSvc *usage.Service

	if app.DB != nil {
		classificationRepo = &classifications.PGRepo{DB: app.DB}
		reportRepo = &feasibility.PGRepo{DB: app.DB}
		knowledgeRepo = &knowledge.PGRepo{DB: app.DB}
		usageSvc = usage.NewStoreService(usage.NewPGStore(app.DB, app.Config.ReportQuotaLimit))
	} else {
		classificationRepo = classifications.NewMemoryRepo()
		reportRepo = feasibility.NewMemoryRepo()
		knowledgeRepo = knowledge.NewMemoryRepo()
		usageSvc = usage.NewService(app.Config.ReportQuotaLimit)
	}

	llmClient, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	classificationSvc := classifications.NewService(classificationRepo)
	reportSvc := &feasibility.Service{
		Repo:     reportRepo,
		Usage:    usageSvc,
		LLM:      llmClient,
		Queue:    app.Queue,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
	}
	knowledgeSvc := &knowledge.Service{
		Repo:  knowledgeRepo,
		LLM:   llmClient,
		Store: app.Store,
	}
	if err := knowledgeSvc.Seed(ctx); err != nil {
		return fmt.Errorf("seed knowledge base: %w", err)
	}

	app.LLM = llmClient
	app.UsageService = usageSvc
	app.ClassificationsService = classificationSvc
	app.FeasibilityService = reportSvc
	app.KnowledgeService = knowledgeSvc
	app.RequestsHandler = requests.NewHandler()
	app.VisualizationHandler = visualization.NewHandler()
	app.ClassificationsHandler = classifications.NewHandler(classificationSvc)
	app.FeasibilityHandler = feasibility.NewHandler(reportSvc)
	app.KnowledgeHandler = knowledge.NewHandler(knowledgeSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.AccountHandler = account.NewHandler(account.NewService(classificationRepo, reportRepo))

	if app.Config.ObjectStoreType == "s3" {
		uploadsHandler, err := uploads.NewHandler(ctx, app.Config.AWSRegion, app.Config.S3Bucket, app.Config.S3Prefix)
		if err != nil {
			return fmt.Errorf("uploads presigner: %w", err)
		}
		app.UploadsHandler = uploadsHandler
	}

	if app.ClassificationsHandler == nil || app.FeasibilityHandler == nil || app.UsageHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
