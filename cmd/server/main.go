package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cervicare-server/internal/auth"
	"cervicare-server/internal/config"
	apphttp "cervicare-server/internal/http"
	"cervicare-server/internal/repository"
	"cervicare-server/internal/repository/jsonfile"
	"cervicare-server/internal/repository/sqlite"
	"cervicare-server/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// refusing to start without a secret beats signing tokens with a
	// well-known default
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, cleanup, err := buildRepository(cfg, logger)
	if err != nil {
		logger.Fatalf("setup user store: %v", err)
	}
	defer cleanup()

	if err := users.Init(ctx); err != nil {
		logger.Fatalf("init user store: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	userService := service.NewUserService(users, tokens)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apphttp.RequestLogger(logger))
	handler := apphttp.NewHandler(userService, tokens)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildRepository selects the persistence backend once at startup. "auto"
// prefers sqlite and falls back to the snapshot file if the database cannot
// be opened.
func buildRepository(cfg config.Config, logger *logrus.Logger) (repository.UserRepository, func(), error) {
	noop := func() {}

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, noop, err
		}
		logger.Infof("using sqlite store at %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), func() { _ = db.Close() }, nil

	case "jsonfile":
		logger.Infof("using snapshot store at %s", cfg.Database.SnapshotPath)
		return jsonfile.NewUserRepository(cfg.Database.SnapshotPath), noop, nil

	case "auto":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			logger.Warnf("sqlite unavailable, using snapshot store: %v", err)
			return jsonfile.NewUserRepository(cfg.Database.SnapshotPath), noop, nil
		}
		logger.Infof("using sqlite store at %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), func() { _ = db.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
