package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmint/textmint/config"
	"github.com/textmint/textmint/internal/api"
	"github.com/textmint/textmint/internal/app"
	"github.com/textmint/textmint/internal/reconcile"
	"github.com/textmint/textmint/internal/storage"
	"github.com/textmint/textmint/internal/wasender"
	"github.com/textmint/textmint/internal/webserver"
	"go.uber.org/zap"
)

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "/etc/textmint.yml", "config file")
	initdb   = flag.Bool("initdb", false, "drop and recreate database tables")
)

var version = "dev"

func main() {
	flag.Parse()
	if *h {
		flag.Usage()
		os.Exit(0)
	}
	if *showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		os.Exit(0)
	}

	gateway := wasender.NewClient(cfg.Wasender.BaseURL, cfg.Wasender.ApiKey)

	media, err := storage.NewMediaStore(cfg.Storage)
	if err != nil {
		zap.S().Fatalf("media store init failed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := media.EnsureBucket(ctx); err != nil {
		zap.S().Warnf("media bucket check failed: %v", err)
	}
	cancel()

	sessions := reconcile.NewService(
		reconcile.NewGormSessionRepository(application.DB()),
		gateway,
		reconcile.NewPlanQuotaResolver(application.DB()),
	)

	ws := webserver.NewWebServer(cfg)
	api.NewServer(cfg, application.DB(), sessions, gateway, media).RegisterRoutes(ws.Echo())

	go func() {
		if err := ws.Start(); err != nil {
			zap.S().Errorf("http server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := ws.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorf("http server shutdown: %v", err)
	}
}
