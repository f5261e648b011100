// Command taskboard runs the task platform's notification service: the
// reminder/digest pipeline and its HTTP surfaces.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nhle/taskboard/internal/digest"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
	"github.com/nhle/taskboard/internal/pipeline"
	"github.com/nhle/taskboard/internal/push"
	"github.com/nhle/taskboard/internal/server"
	"github.com/nhle/taskboard/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("taskboard exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	var transport push.Transport
	if cfg.Push.Enabled {
		client, err := push.NewClient(cfg.Push)
		if err != nil {
			// Fail fast on misconfiguration; silently-disabled push
			// would drop notifications without a trace.
			return err
		}
		transport = client
	} else {
		slog.Warn("push delivery disabled; reminders fall back to in-app only")
	}

	apiKey := os.Getenv(cfg.AI.APIKeyEnv)
	if apiKey == "" {
		slog.Warn("summarization API key not set; digest generation will fail",
			"env", cfg.AI.APIKeyEnv)
	}
	summarizer := digest.NewClaudeSummarizer(apiKey, cfg.AI.Model, cfg.AI.MaxTokens)

	dispatcher := notify.NewDispatcher(st, transport, loc)
	assembler := digest.NewAssembler(st, summarizer, loc, cfg.Digest.ActivityLimit)
	digests := digest.NewService(st, assembler, cfg.Digest, loc)
	pipe := pipeline.New(st, dispatcher, digests, transport, cfg.Dispatch)

	srv := server.New(cfg.Server, st, pipe, digests)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("taskboard listening", "addr", cfg.Server.Addr, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Let in-flight dispatches and generations finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("taskboard stopped")
	return nil
}
