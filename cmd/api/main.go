package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/techlog-api/docs" // Swagger docs
	"github.com/sjperalta/techlog-api/internal/config"
	"github.com/sjperalta/techlog-api/internal/database"
	"github.com/sjperalta/techlog-api/internal/handlers"
	"github.com/sjperalta/techlog-api/internal/jobs"
	"github.com/sjperalta/techlog-api/internal/middleware"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/services"
	"github.com/sjperalta/techlog-api/internal/storage"
	"github.com/sjperalta/techlog-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Techlog API
// @version 1.0
// @description REST API for the aircraft technical log: entries, sign-offs, checks and deferrals

// @host localhost:8081
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("Database schema migrated")
	}

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized signature storage", "path", cfg.StoragePath)

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, store, cfg)

	scheduleJobs(worker, svcs, cfg.SessionSweepInterval())

	h := handlers.NewHandlers(svcs)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Open dialogs are cancelled so nothing is left half-applied
	if n := svcs.Workflow.CloseAll(ctx); n > 0 {
		logger.Info("Closed workflow sessions", "count", n)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health.Index)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Workflow sessions (every role)
			sessions := protected.Group("/sessions")
			sessions.POST("", h.Session.Create)

			session := sessions.Group("/:id")
			session.Use(h.Session.RequireOwner())
			{
				session.GET("", h.Session.Show)
				session.DELETE("", h.Session.Delete)
				session.POST("/previous", h.Session.Previous)
				session.POST("/next", h.Session.Next)
				session.POST("/reload", h.Session.Reload)

				session.POST("/entries", h.Session.AddEntry)
				session.PATCH("/entries/:seq", h.Session.UpdateEntry)
				session.DELETE("/entries/:seq", h.Session.RemoveEntry)
				session.POST("/entries/:seq/short_sign", h.Session.ShortSign)
				session.POST("/entries/:seq/action_auth", h.Session.ActionAuth)

				session.POST("/checks/:type/authorize", h.Session.AuthorizeCheck)
				session.PUT("/fluids", h.Session.UpdateFluids)
				session.POST("/deicing/authorize", h.Session.AuthorizeDeicing)

				session.PUT("/authorization/signature", h.Session.Signature)
				session.POST("/authorization/confirm", h.Session.Confirm)
				session.POST("/authorization/cancel", h.Session.Cancel)
			}

			// Registry reads (every role)
			protected.GET("/aircraft", h.Registry.ListAircraft)
			protected.GET("/airports", h.Registry.ListAirports)
			protected.GET("/flights", h.Registry.ListFlights)
			protected.GET("/deferrals", h.Registry.ListDeferrals)
			protected.GET("/deferrals/export", h.Report.DeferralsXLSX)
			protected.GET("/logs/:log_id/report", h.Report.LogPagePDF)
			protected.GET("/signatures/*path", h.Report.Signature)

			// Registry writes and oversight (planner + admin)
			planning := protected.Group("")
			planning.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RolePlanner))
			{
				planning.POST("/aircraft", h.Registry.CreateAircraft)
				planning.POST("/airports", h.Registry.CreateAirport)
				planning.POST("/flights", h.Registry.CreateFlight)
				planning.GET("/audits", h.Audit.Index)
				planning.GET("/jobs/status", h.Job.Status)
			}

			// Operator registry (admin only)
			admin := protected.Group("")
			admin.Use(middleware.RequireRole(middleware.RoleAdmin))
			{
				admin.GET("/operators", h.Registry.ListOperators)
				admin.POST("/operators", h.Registry.CreateOperator)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, sweep time.Duration) {
	// Evict idle workflow sessions; pending dialogs are cancelled
	worker.ScheduleEvery("evict-idle-sessions", sweep, func(ctx context.Context) error {
		if n := svcs.Workflow.EvictIdle(ctx); n > 0 {
			logger.Info("[Job] Evicted idle workflow sessions", "count", n)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
