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
	_ "time/tzdata"

	"securereport/cli"
	"securereport/config"
	"securereport/core/appbootstrap"
	"securereport/core/utils"
)

func main() {
	if cli.Run(os.Args[1:]) {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	logger := utils.NewLoggerWithConfig(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	rt, err := appbootstrap.InitRuntime(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}
	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := rt.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
}
