package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/peerlearn/internal/app/auth"
	appControllers "github.com/yigit/peerlearn/internal/app/controllers"
	appMigrations "github.com/yigit/peerlearn/internal/app/migrations"
	appRepos "github.com/yigit/peerlearn/internal/app/repositories"
	appRoutes "github.com/yigit/peerlearn/internal/app/routes"
	appServices "github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/config"
	"github.com/yigit/peerlearn/internal/db"
	appMiddleware "github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/aiclient"
	pkgAuth "github.com/yigit/peerlearn/internal/pkg/auth"
	"github.com/yigit/peerlearn/internal/pkg/filestorage"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
	"github.com/yigit/peerlearn/internal/pkg/logger"
	"github.com/yigit/peerlearn/internal/pkg/websocket"
	"github.com/yigit/peerlearn/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	FileStorage  *filestorage.LocalStorage

	// ChatHub is the in-process room registry; ChatRelay is nil unless Redis is configured
	ChatHub   *websocket.Hub
	ChatRelay *websocket.RedisRelay
	Redis     *redis.Client

	AuthService     appServices.AuthService
	UserService     appServices.UserService
	HubService      appServices.HubService
	ActivityService appServices.ActivityService
	RoadmapService  appServices.RoadmapService
	SessionService  appServices.SessionService
	ChatService     appServices.ChatService
	ResourceService appServices.ResourceService

	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) != "json",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Str("mode", cfg.Server.Mode).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("dir", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(ctx, database.Pool, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.Server.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.User, deps.Repos.Hub)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	// Chat fan-out: local rooms, optionally bridged across instances through Redis
	deps.ChatHub = websocket.NewHub(lgr.With().Str("component", "chat-hub").Logger())
	var broadcaster websocket.Broadcaster = deps.ChatHub
	if cfg.Redis.Addr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.ChatRelay = websocket.NewRedisRelay(deps.Redis, cfg.Redis.Channel, deps.ChatHub, lgr.With().Str("component", "chat-relay").Logger())
		broadcaster = deps.ChatRelay
		lgr.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("Redis chat relay enabled")
	}

	generator := aiclient.NewClient(aiclient.Config{
		APIKey:  cfg.AI.APIKey,
		APIURL:  cfg.AI.APIURL,
		Model:   cfg.AI.Model,
		Timeout: helpers.ParseDuration(cfg.AI.Timeout, 60*time.Second),
	}, nil, lgr.With().Str("component", "ai").Logger())
	if cfg.AI.APIKey == "" {
		lgr.Warn().Msg("GROQ_API_KEY not set, roadmap generation is disabled")
	}

	// Initialize services
	deps.AuthService = appServices.NewAuthService(deps.Repos.User, deps.Repos.Token, deps.JWTService, lgr)
	deps.UserService = appServices.NewUserService(deps.Repos.User, deps.Repos.Session, lgr)
	deps.HubService = appServices.NewHubService(deps.Repos.Hub, database, deps.AuthzService, broadcaster, lgr)
	deps.ActivityService = appServices.NewActivityService(deps.Repos.Activity, deps.Repos.Hub, deps.Repos.User, database, deps.AuthzService, lgr)
	deps.RoadmapService = appServices.NewRoadmapService(deps.Repos.Roadmap, database, generator, lgr)
	deps.SessionService = appServices.NewSessionService(deps.Repos.Session, deps.Repos.User, database, deps.AuthzService, lgr)
	deps.ChatService = appServices.NewChatService(deps.Repos.Chat, deps.AuthzService, broadcaster, lgr)
	deps.ResourceService = appServices.NewResourceService(deps.Repos.Resource, deps.FileStorage, deps.AuthzService, cfg.Upload.MaxBytes, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = appRoutes.Controllers{
		Auth:     appControllers.NewAuthController(deps.AuthService, lgr),
		User:     appControllers.NewUserController(deps.UserService),
		Hub:      appControllers.NewHubController(deps.HubService),
		Activity: appControllers.NewActivityController(deps.ActivityService),
		Roadmap:  appControllers.NewRoadmapController(deps.RoadmapService),
		Session:  appControllers.NewSessionController(deps.SessionService),
		Chat:     appControllers.NewChatController(deps.ChatService),
		Resource: appControllers.NewResourceController(deps.ResourceService),
		ChatWS:   websocket.NewHandler(deps.ChatHub, deps.ChatService, deps.ChatService, lgr.With().Str("component", "chat-ws").Logger()),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if cfg.Server.Mode == "test" {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}
	appMiddleware.ExposeServerDetails(!cfg.IsProduction())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(appMiddleware.CORS(cfg.Server.CORSOrigins))

	// Uploaded hub resources
	router.Static("/uploads", deps.FileStorage.BasePath())

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
