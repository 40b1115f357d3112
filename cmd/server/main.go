package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/config"
	"github.com/d60-Lab/tubedigest/internal/api"
	"github.com/d60-Lab/tubedigest/internal/api/handler"
	"github.com/d60-Lab/tubedigest/internal/app"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

// @title TubeDigest API
// @version 1.0
// @description YouTube channel subscriptions with history suppression.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	h := handler.NewHandler(a.SubService, a.ListService, a.Plans)
	router := api.NewRouter(h, api.RouterOptions{
		JWTSecret:   cfg.JWT.Secret,
		ServiceName: cfg.Tracing.ServiceName,
		Swagger:     cfg.Server.Mode != gin.ReleaseMode,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopScanner := a.NewScanner().Start()

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopScanner(shutdownCtx); err != nil {
		logger.Error("scanner shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		log.Printf("close: %v", err)
	}
}
