package router

import (
	"fmt"
	"log"
	"log/slog"

	"github.com/anonto42/nano-blog/backend/internal/dataloader"
	"github.com/anonto42/nano-blog/backend/internal/fanout"
	"github.com/anonto42/nano-blog/backend/internal/handlers"
	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/anonto42/nano-blog/backend/internal/repositories/inmemory"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/config"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/anonto42/nano-blog/backend/pkg/media"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Deps are the external resources the routes are built on.
// SQL is nil for in-memory storage; Mongo, Firebase and Health are optional.
type Deps struct {
	Config   *config.Config
	Health   handlers.Pinger
	SQL      *gorm.DB
	Mongo    *mongo.Client
	Firebase *firebase.App
	Media    media.Store
	Logger   *slog.Logger
}

// App is what main needs after the routes are in place
type App struct {
	Engine *fanout.Engine
	Auth   *services.AuthService
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) (*App, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// --- Initialize Repositories ---
	repos, eventLog, err := initRepositories(deps)
	if err != nil {
		return nil, err
	}

	engine := fanout.NewEngine(repos.Notifications,
		fanout.WithWorkers(cfg.FanoutWorkers),
		fanout.WithQueueSize(cfg.FanoutQueueSize),
		fanout.WithChunkSize(cfg.FanoutChunkSize),
		fanout.WithLogger(logger.With("component", "fanout")),
		fanout.WithEventLog(eventLog),
	)

	// --- Services ---
	postService := services.NewPostService(repos, engine, logger)
	subscriptionService := services.NewSubscriptionService(repos, engine, logger)
	notificationService := services.NewNotificationService(repos, logger)
	userService := services.NewUserService(repos, logger)
	adminService := services.NewAdminService(repos, postService, logger)
	authService := services.NewAuthService(repos, logger)

	// Health check - always accessible
	health := handlers.NewHealthHandler(deps.Health, cfg.Storage)
	e.GET("/health", health.HealthCheck)
	e.GET("/api/v1/health", health.HealthCheck)

	var verifier middleware.IDTokenVerifier
	if deps.Firebase != nil {
		verifier = deps.Firebase
	}

	// --- Unprotected routes ---
	public := e.Group("/api/v1")
	authHandler := handlers.NewAuthHandler(authService, verifier, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(public.Group("/auth"))
	log.Println("Auth routes configured.")

	// --- Protected routes (JWT, or a linked Firebase ID token) ---
	authMiddleware := middleware.JWTAuthMiddleware(cfg.JWTSecret, repos.Users)
	if verifier != nil {
		authMiddleware = middleware.FirstOf(authMiddleware, middleware.FirebaseAuthMiddleware(verifier, repos.Users))
	}
	api := e.Group("/api/v1", authMiddleware, dataloader.Middleware(repos.Users))
	admin := api.Group("/admin", middleware.RequireAdmin())
	log.Println("Authentication middleware applied to /api/v1 group.")

	handlers.NewUserHandler(userService).RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	handlers.NewPostHandler(postService).RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	handlers.NewSubscriptionHandler(subscriptionService).RegisterSubscriptionRoutes(api)
	log.Println("Subscription routes configured.")

	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	handlers.NewReportHandler(adminService).RegisterReportRoutes(api)
	log.Println("Report routes configured.")

	handlers.NewAdminHandler(adminService).RegisterAdminRoutes(admin)
	log.Println("Admin routes configured.")

	if deps.Media != nil {
		handlers.NewFileHandler(deps.Media).RegisterFileRoutes(public, api)
		log.Println("File routes configured.")
	}

	log.Println("All routes configured.")
	return &App{Engine: engine, Auth: authService}, nil
}

// initRepositories picks gorm-backed repositories when a SQL handle is present and the in-memory store otherwise.
// The fan-out event log goes to Mongo when configured.
func initRepositories(deps Deps) (services.Repositories, repositories.EventLogRepository, error) {
	var (
		repos    services.Repositories
		eventLog repositories.EventLogRepository
	)

	if deps.SQL != nil {
		if err := Migrate(deps.SQL); err != nil {
			return repos, nil, err
		}
		repos = services.Repositories{
			Users:         repositories.NewPostgresUserRepository(deps.SQL),
			Posts:         repositories.NewPostgresPostRepository(deps.SQL),
			Comments:      repositories.NewPostgresCommentRepository(deps.SQL),
			Likes:         repositories.NewPostgresLikeRepository(deps.SQL),
			Subscriptions: repositories.NewPostgresSubscriptionRepository(deps.SQL),
			Notifications: repositories.NewPostgresNotificationRepository(deps.SQL),
			Reports:       repositories.NewPostgresReportRepository(deps.SQL),
		}
	} else {
		store := inmemory.New()
		repos = services.Repositories{
			Users:         store,
			Posts:         store,
			Comments:      store,
			Likes:         store,
			Subscriptions: store,
			Notifications: store,
			Reports:       store,
		}
		eventLog = store
		log.Println("Using in-memory storage; data is lost on restart.")
	}

	if deps.Mongo != nil {
		eventLog = repositories.NewMongoEventLogRepository(deps.Mongo.Database(deps.Config.MongoDatabase))
		log.Println("Fan-out event log stored in MongoDB.")
	}
	return repos, eventLog, nil
}

// Migrate creates or updates the relational schema
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Subscription{},
		&models.Notification{},
		&models.Report{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate models: %w", err)
	}
	log.Println("Auto-migrations completed for all models.")
	return nil
}
