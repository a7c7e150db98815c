package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"

	"cro-backend/internal/account"
	"cro-backend/internal/analyses"
	googleauth "cro-backend/internal/auth"
	"cro-backend/internal/llm"
	"cro-backend/internal/llm/anthropic"
	"cro-backend/internal/queue"
	"cro-backend/internal/reviews"
	"cro-backend/internal/shared/config"
	"cro-backend/internal/shared/server"
	"cro-backend/internal/shared/storage/db"
	"cro-backend/internal/shared/storage/object"
	localstore "cro-backend/internal/shared/storage/object/local"
	s3store "cro-backend/internal/shared/storage/object/s3"
	"cro-backend/internal/shops"
	"cro-backend/internal/usage"
	"cro-backend/internal/users"
)

const (
	uploadsDefaultRegion = "us-east-1"
	uploadsDefaultPrefix = "snapshots/"
)

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Store             object.ObjectStore
	Queue             queue.Client
	UploadsPresign    *s3.PresignClient
	UploadsBucket     string
	UploadsPrefix     string
	ShopsRepo         shops.ShopsRepo
	AnalysesRepo      analyses.Repo
	ReviewsRepo       reviews.Repo
	UsersRepo         users.Repo
	ShopsService      *shops.Service
	UsageService      *usage.Service
	AnalysesService   *analyses.Service
	AnalysisProcessor AnalysisProcessor
	ReviewsService    *reviews.Service
	AccountService    *account.Service
	UsersService      *users.Service
	ShopsHandler      *shops.Handler
	AnalysisHandler   *analyses.Handler
	ReviewsHandler    *reviews.Handler
	AccountHandler    *account.Handler
	UsageHandler      *usage.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
}

// AnalysisProcessor allows callers to override analysis processing for tests.
type AnalysisProcessor interface {
	ProcessAnalysis(ctx context.Context, analysisID string) error
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

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	presign, bucket, prefix, err := buildUploadsPresign(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:         cfg,
		Router:         nil,
		DB:             sqlDB,
		Store:          store,
		Queue:          queueClient,
		UploadsPresign: presign,
		UploadsBucket:  bucket,
		UploadsPrefix:  prefix,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		GoogleAuth:      app.GoogleAuth,
		ShopHandler:     app.ShopsHandler,
		AnalysisHandler: app.AnalysisHandler,
		ReviewHandler:   app.ReviewsHandler,
		UsageHandler:    app.UsageHandler,
		AccountHandler:  app.AccountHandler,
		UserHandler:     app.UsersHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("CRO_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildUploadsPresign(ctx context.Context) (*s3.PresignClient, string, string, error) {
	bucket := strings.TrimSpace(os.Getenv("UPLOADS_S3_BUCKET"))
	if bucket == "" {
		return nil, "", "", nil
	}

	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = uploadsDefaultRegion
	}
	prefix := strings.TrimSpace(os.Getenv("UPLOADS_S3_PREFIX"))
	if prefix == "" {
		prefix = uploadsDefaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, "", "", fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return s3.NewPresignClient(client), bucket, prefix, nil
}

func buildServices(app *App) error {
	var shopsRepo shops.ShopsRepo
	var analysisRepo analyses.Repo
	var reviewsRepo reviews.Repo
	var userRepo users.Repo

	if app.DB != nil {
		shopsRepo = &shops.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		reviewsRepo = &reviews.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		shopsRepo = shops.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
		reviewsRepo = reviews.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	shopsSvc := &shops.Service{
		Store: app.Store,
		Repo:  shopsRepo,
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	useAnthropic := app.Config.LLMProvider == "anthropic"
	if useAnthropic && apiKey == "" {
		if !isDevLike(app.Config.Env) {
			return errors.New("ANTHROPIC_API_KEY is required")
		}
		log.Printf("bootstrap: ANTHROPIC_API_KEY empty; using placeholder llm clients")
		useAnthropic = false
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	replyLLMClient := reviews.LLMClient(promptPlaceholder{})
	if useAnthropic {
		anthropicClient, err := anthropic.NewClient(apiKey, app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = anthropicClient

		promptClient, err := anthropic.NewPromptClient(apiKey, app.Config.LLMModel)
		if err != nil {
			return err
		}
		replyLLMClient = promptClient
	}

	analysisSvc := &analyses.Service{
		Repo:            analysisRepo,
		Usage:           usageSvc,
		Shops:           shopsSvc,
		LLM:             llmClient,
		JobQueue:        app.Queue,
		Provider:        app.Config.LLMProvider,
		Model:           app.Config.LLMModel,
		AnalysisVersion: app.Config.AnalysisVersion,
	}

	reviewsSvc := &reviews.Service{
		Repo:     reviewsRepo,
		Shops:    shopsRepo,
		LLM:      replyLLMClient,
		Provider: app.Config.LLMProvider,
		Model:    app.Config.LLMModel,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.ShopsRepo = shopsRepo
	app.AnalysesRepo = analysisRepo
	app.ReviewsRepo = reviewsRepo
	app.UsersRepo = userRepo
	app.ShopsService = shopsSvc
	app.UsageService = usageSvc
	app.AnalysesService = analysisSvc
	app.AnalysisProcessor = analysisSvc
	app.ReviewsService = reviewsSvc
	app.AccountService = account.NewService(shopsRepo, analysisRepo, reviewsRepo)
	app.UsersService = userSvc
	app.ShopsHandler = shops.NewHandler(shopsSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)
	app.ReviewsHandler = reviews.NewHandler(reviewsSvc)
	app.AccountHandler = account.NewHandler(app.AccountService)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	if app.ShopsHandler == nil || app.AnalysisHandler == nil || app.UsageHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}

type promptPlaceholder struct{}

func (promptPlaceholder) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", errors.New("llm prompt client not configured")
}
