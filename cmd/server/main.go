package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/card-preview/app/api"
	"github.com/lysyi3m/card-preview/app/authwall"
	"github.com/lysyi3m/card-preview/app/cache"
	"github.com/lysyi3m/card-preview/app/cfg"
	"github.com/lysyi3m/card-preview/app/database"
	"github.com/lysyi3m/card-preview/app/docservice"
	"github.com/lysyi3m/card-preview/app/extraction"
	"github.com/lysyi3m/card-preview/app/fetcher"
	"github.com/lysyi3m/card-preview/app/parser"
	"github.com/lysyi3m/card-preview/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := run(appCfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting Card Preview server", "version", appCfg.Version)

	if err := os.MkdirAll(filepath.Dir(appCfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := os.MkdirAll(appCfg.ScreenshotDir, 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	userAgents := fetcher.DefaultUserAgents
	if appCfg.UserAgentsFile != "" {
		userAgents, err = fetcher.LoadUserAgents(appCfg.UserAgentsFile)
		if err != nil {
			return err
		}
		slog.Info("User agent pool loaded", "file", appCfg.UserAgentsFile, "count", len(userAgents))
	}

	browser := fetcher.NewRodBrowser(fetcher.BrowserConfig{
		RemoteURL: appCfg.BrowserURL,
		Bin:       appCfg.BrowserBin,
		Stealth:   appCfg.Stealth,
	})
	defer func() {
		if err := browser.Close(); err != nil {
			slog.Warn("Failed to close browser", "error", err)
		}
	}()

	pageFetcher := fetcher.New(fetcher.Config{
		UserAgents:    userAgents,
		Timeout:       appCfg.FetchTimeout,
		RenderTimeout: appCfg.RenderTimeout,
		ScreenshotDir: appCfg.ScreenshotDir,
	}, nil, browser)

	contentParser := parser.NewParser()

	var docs extraction.DocumentService
	if appCfg.DocServiceToken != "" {
		docs = docservice.NewClient(docservice.Config{
			Endpoint: appCfg.DocServiceURL,
			Token:    appCfg.DocServiceToken,
		}, nil)
	} else {
		slog.Warn("Document service disabled (DOCSERVICE_TOKEN not set); last-resort attempts will fail")
	}

	orchestrator := extraction.NewOrchestrator(extraction.Config{RenderTimeout: appCfg.RenderTimeout}, pageFetcher, contentParser, docs)
	var liveFetcher authwall.Fetcher = pageFetcher
	if appCfg.RedisAddr != "" {
		pageCache, err := cache.NewCache(appCfg.RedisAddr)
		if err != nil {
			return err
		}
		defer pageCache.Close()
		liveFetcher = cache.NewPageFetcher(pageFetcher, pageCache, appCfg.PageCacheTTL)
	}

	detector := authwall.NewDetector(liveFetcher, contentParser)
	websiteRepo := database.NewWebsiteRepository(db)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(websiteRepo, orchestrator, tasks.Options{
		Interval:    time.Duration(appCfg.SchedulerInterval) * time.Second,
		WorkerCount: appCfg.WorkerCount,
		BatchSize:   appCfg.BatchSize,
	})
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(websiteRepo, detector, appCfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}
