package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediarack/mediarack/app/api"
	"github.com/mediarack/mediarack/app/catalog"
	"github.com/mediarack/mediarack/app/cfg"
	"github.com/mediarack/mediarack/app/database"
	"github.com/mediarack/mediarack/app/downloads"
	"github.com/mediarack/mediarack/app/scheduler"
	"github.com/mediarack/mediarack/app/source"
	"github.com/mediarack/mediarack/app/source/rss"
	"github.com/mediarack/mediarack/app/subscriptions"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if c == nil {
		// Help output requested.
		return
	}

	logLevel := slog.LevelInfo
	if c.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting mediarack", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		log.Fatal("Failed to open catalog database: ", err)
	}
	defer db.Close()

	version, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to migrate catalog database: ", err)
	}
	slog.Info("Catalog database ready", "path", c.DBPath, "schema_version", version)

	channelRepo := database.NewChannelRepository(db)
	mediaRepo := database.NewMediaRepository(db)

	registry := source.NewRegistry()
	registry.Register(rss.New(&http.Client{}))

	fetchOpts := source.Options{
		UserAgent: c.UserAgent,
		Timeout:   time.Duration(c.FetchTimeout) * time.Second,
	}
	cat := catalog.New(channelRepo, mediaRepo, registry, fetchOpts)

	engine := downloads.NewEngine(registry, cat, c.DownloadDir, c.DownloadWorkers)
	cat.SetDownloader(engine)
	engine.Start()
	defer engine.Stop()

	if err := cat.LoadAll(); err != nil {
		log.Fatal("Failed to load catalog: ", err)
	}

	subs, err := subscriptions.NewLoader(c.SubsDir).LoadAll()
	if err != nil {
		log.Fatal("Failed to load subscriptions: ", err)
	}
	if res := subscriptions.Sync(context.Background(), cat, subs); res.Failed > 0 {
		slog.Warn("Subscription sync incomplete", "result", res.String())
	}

	sched := scheduler.New(cat, time.Duration(c.PollInterval)*time.Second, c.PollWorkers)

	if c.Batch {
		runBatch(cat, sched, engine)
		return
	}

	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(cat, c.Version)
	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler, c.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", c.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runBatch polls every enabled channel once, waits for the download queue
// to drain, and exits.
func runBatch(cat *catalog.Catalog, sched *scheduler.Scheduler, engine *downloads.Engine) {
	slog.Info("Batch mode: polling all channels once")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	sched.PollAll(ctx)

	slog.Info("Waiting for downloads to finish", "outstanding", engine.Outstanding())
	engine.WaitIdle()

	slog.Info("Batch run complete", "channels", len(cat.Channels()))
}
