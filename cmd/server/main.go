package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spyglass/internal/agent"
	"spyglass/internal/app"
	"spyglass/internal/backtest"
	"spyglass/internal/config"
	"spyglass/internal/health"
	"spyglass/internal/logger"
)

func main() {
	cfgPath := flag.String("config", "", "TOML 配置路径（留空用默认配置）")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cache, err := app.BuildService(cfg)
	if err != nil {
		logger.Errorf("[main] %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	bot := agent.NewBot()
	checker := health.NewChecker(agent.Version,
		health.Probe{Name: "kline_store", Check: cache.Ping},
		health.Probe{Name: "bot", Check: func(context.Context) error {
			if !bot.Running() {
				return fmt.Errorf("bot not running")
			}
			return nil
		}},
	)

	srv, err := backtest.NewHTTPServer(backtest.HTTPConfig{
		Addr:    cfg.Server.Addr,
		Svc:     svc,
		Checker: checker,
	})
	if err != nil {
		logger.Errorf("[main] %v", err)
		os.Exit(1)
	}

	if err := bot.Start(); err != nil {
		logger.Errorf("[main] %v", err)
		os.Exit(1)
	}
	checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Infof("[main] shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Errorf("[main] server: %v", err)
		}
	}

	checker.SetReady(false)
	bot.Stop()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("[main] shutdown: %v", err)
	}
	svc.Wait()
	logger.Infof("[main] bye")
}
