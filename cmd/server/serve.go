package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admin_panel/internal/config"
	"admin_panel/internal/filestore"
	"admin_panel/internal/handler"
	"admin_panel/internal/metrics"
	"admin_panel/internal/middleware"
	"admin_panel/internal/repository"
	"admin_panel/internal/service"
	"admin_panel/internal/session"
	"admin_panel/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

// pinger reports database health
type pinger interface {
	Ping(ctx context.Context) error
}

func serveAction(c *cli.Context) error {
	ctx := c.Context

	// --- Configuration ---
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := config.Migrate(ctx, dbPool); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// --- Storage and Sessions ---
	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	sessions, rdb, err := newSessionStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// --- Initialize Repositories and Services ---
	jwtUtil := utils.NewJWTUtil(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	userRepo := repository.NewUserRepository(dbPool)
	adminRepo := repository.NewAdminRepository(dbPool)

	userService := service.NewUserService(userRepo, files, cfg.Storage.RemoveFilesOnDelete)
	authService := service.NewAuthService(userService, userRepo, adminRepo, sessions, jwtUtil)

	if cfg.Auth.AdminUsername != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		log.Printf("Admin account %q is ready", cfg.Auth.AdminUsername)
	}

	m := metrics.New()
	router := newRouter(dbPool, m, authService, userService,
		handler.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	}
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exiting")
	return nil
}

func newRouter(db pinger, m *metrics.Metrics, authService service.AuthService, userService service.UserService,
	cookie handler.CookieSettings) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.RequestIDMiddleware(), middleware.CORSMiddleware(), middleware.MetricsMiddleware(m))

	sessionMW := middleware.SessionAuthMiddleware(authService, cookie.Name)

	authHandler := handler.NewAuthHandler(authService, cookie, m)
	userHandler := handler.NewUserHandler(userService, m)
	authHandler.RegisterAuthRoutes(&router.RouterGroup, sessionMW)
	userHandler.RegisterUserRoutes(&router.RouterGroup, sessionMW)

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (filestore.Store, error) {
	switch cfg.Backend {
	case config.StorageBackendS3:
		store, err := filestore.NewS3Store(ctx, filestore.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			MaxBytes:  cfg.MaxUploadBytes,
		})
		if err != nil {
			return nil, err
		}
		log.Printf("Uploads will be stored in bucket: %s", cfg.S3Bucket)
		return store, nil
	default:
		store, err := filestore.NewLocalStore(cfg.UploadsDir, cfg.MaxUploadBytes)
		if err != nil {
			return nil, err
		}
		log.Printf("Uploads will be stored in: %s", cfg.UploadsDir)
		return store, nil
	}
}

// newSessionStore returns the configured store and, for Redis, the client
// the caller must close.
func newSessionStore(ctx context.Context, cfg config.SessionStoreConfig) (session.Store, *redis.Client, error) {
	if cfg.Backend != config.SessionBackendRedis {
		log.Println("WARN: sessions are kept in memory and end on restart")
		return session.NewMemoryStore(), nil, nil
	}
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(rdb), rdb, nil
}
