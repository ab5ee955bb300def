package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"chat-relay/internal/api"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/llm"
	"chat-relay/internal/relay"
	"chat-relay/internal/scheduler"
	"chat-relay/internal/store"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), config.New())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logMgr, err := openLogs(cfg)
	if err != nil {
		return err
	}
	defer logMgr.Close()
	logger := *logMgr.Logger()

	st, err := store.New(cfg.DataDir)
	if err != nil {
		logger.Error().Err(err).Str("dir", cfg.DataDir).Msg("Failed to open data store")
		return err
	}

	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), cfg.OpenAIModel)
	if err != nil {
		logger.Warn().Err(err).Str("provider", string(cfg.LLMProvider)).Msg("LLM client unavailable, chat requests will fail")
		client = llm.Unavailable{Err: err}
	}

	rl := relay.New(st, client, logger, relay.Options{
		SystemPrompt: readSystemPrompt(logger, cfg.SystemPromptPath),
		HistoryLimit: cfg.HistoryLimit,
	})

	sched := scheduler.New(logMgr, cfg.LogSweepSchedule, cfg.LogRetentionDays, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start log sweep: %w", err)
	}
	defer sched.Stop()

	handler := api.NewHandler(st, rl, auth.New(cfg.AdminPassword), logMgr, sched, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Int("port", cfg.Port).
			Str("provider", string(cfg.LLMProvider)).
			Str("model", cfg.OpenAIModel).
			Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	logger.Info().Msg("Server stopped")
	return nil
}

func readSystemPrompt(logger zerolog.Logger, path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("System prompt file not found or unreadable")
		return ""
	}
	return strings.TrimSpace(string(data))
}
