package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/tubedigest/config"
	"github.com/d60-Lab/tubedigest/internal/app"
	"github.com/d60-Lab/tubedigest/pkg/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer func() { _ = a.Close(context.Background()) }()

	scanner := a.NewScanner()
	if *once {
		stats, err := scanner.ScanOnce(ctx)
		if err != nil {
			logger.Error("scan failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("scan finished",
			zap.Int("channels", stats.Channels),
			zap.Int("new_videos", stats.NewVideos),
			zap.Int64("deliveries", stats.Deliveries),
			zap.Int("failures", stats.Failures),
		)
		return
	}

	stopScanner := scanner.Start()
	logger.Info("scanner started", zap.Duration("interval", cfg.Scanner.Interval))
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stopScanner(shutdownCtx); err != nil {
		logger.Error("scanner shutdown", zap.Error(err))
	}
}
