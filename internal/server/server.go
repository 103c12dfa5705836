package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamtasks/internal/auth"
	"teamtasks/internal/config"
	"teamtasks/internal/datefmt"
	"teamtasks/internal/handler"
	"teamtasks/internal/middleware"
	"teamtasks/internal/migrations"
	"teamtasks/internal/model"
	"teamtasks/internal/repository"
	"teamtasks/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
}

// Init connects to the database, applies migrations when enabled and wires
// the routes.
func Init(cfg *config.Config) (*Server, error) {
	db, err := repository.Open(cfg.DBDriver, cfg.DSN(), cfg.DBLogLevel)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Printf("✅ Connected to %s database", cfg.DBDriver)

	if cfg.AutoMigrate {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(sqlDB, cfg.DBDriver); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
		log.Println("✅ Database schema is up to date")
	}

	return New(cfg, db), nil
}

// New builds the HTTP engine over an open database.
func New(cfg *config.Config, db *gorm.DB) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.Default()

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	assigneeRepo := repository.NewAssigneeRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	taskService := service.NewTaskService(taskRepo, assigneeRepo, datefmt.New(cfg.Location()))

	// Initialize handlers
	userHandler := handler.NewUserHandler(profileRepo, tokens)
	taskHandler := handler.NewTaskHandler(taskService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)
	r.POST("/auth/resolve-username", userHandler.ResolveUsername)
	r.GET("/me", middleware.OptionalJWTAuth(tokens), userHandler.Me)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens), middleware.IdentityMiddleware(profileRepo))
	{
		authorized.GET("/members", userHandler.Members)
		authorized.GET("/admin/members", userHandler.AdminMembers)

		// Task reads and completion
		authorized.GET("/tasks", taskHandler.List)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PATCH("/tasks/:id/complete", taskHandler.Complete)
		authorized.DELETE("/tasks/:id/complete", taskHandler.Undo)
		authorized.POST("/tasks/:id/done", taskHandler.MarkDone)

		// Task writes
		managers := authorized.Group("/")
		managers.Use(middleware.RequireRole(model.RoleAdmin, model.RoleCaptain))
		managers.POST("/tasks", taskHandler.Create)
		managers.PUT("/tasks", taskHandler.Update)
		managers.PUT("/tasks/:id", taskHandler.Update)
		managers.DELETE("/tasks", taskHandler.Delete)
		managers.DELETE("/tasks/:id", taskHandler.Delete)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("✅ Server exited properly")
}
