package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdigest/internal/bot"
	"newsdigest/internal/config"
	"newsdigest/internal/feed"
	"newsdigest/internal/llm"
	"newsdigest/internal/news"
	"newsdigest/internal/ranker"
	"newsdigest/internal/scheduler"
	"newsdigest/internal/storage"
	"newsdigest/internal/tasks"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	sources, err := config.LoadFeeds(cfg.FeedsPath)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load feed sources",
			"error", err,
			"feedsPath", cfg.FeedsPath)

		return
	}
	log.InfoContext(ctx, "Feed sources are loaded",
		"feedsPath", cfg.FeedsPath,
		"sourceCount", len(sources))

	store, err := storage.New(cfg.DataDir, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize storage",
			"error", err,
			"dataDir", cfg.DataDir)

		return
	}
	log.InfoContext(ctx, "Storage is initialized",
		"dataDir", cfg.DataDir)

	completer, model := initCompleter(ctx, cfg, log)

	fetcher := feed.NewFetcher(log)
	processor := news.NewProcessor(completer, log)
	rk := ranker.New(completer, log)

	ts := tasks.New(fetcher, processor, rk, store, sources, cfg.SummaryMaxLength, model, log)

	sched := scheduler.New(scheduler.SystemClock(), log)
	sched.Schedule(tasks.PipelineTaskID, ts.ScrapeAndProcess, cfg.ScrapeInterval)
	sched.Schedule(tasks.CleanupTaskID, ts.CleanupOldData, tasks.CleanupInterval)

	botInst, err := bot.New(
		cfg.Token,
		store,
		ts,
		rk,
		sched,
		cfg.AdminUserIDs,
		cfg.MaxArticlesPerUser,
		log,
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"adminCount", len(cfg.AdminUserIDs))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"adminCount", len(cfg.AdminUserIDs))

	sched.Start(ctx)
	defer sched.Stop()

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	botInst.Stop()
	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())
}

// initCompleter builds the OpenAI completer, or returns nil when no API key
// is configured so every caller falls back to its deterministic path.
func initCompleter(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Completer, string) {
	if cfg.OpenAIAPIKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallbacks will be used",
			"envVar", "OPENAI_API_KEY")

		return nil, ""
	}

	completer := llm.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	log.InfoContext(ctx, "OpenAI completer is initialized",
		"model", completer.Model())

	return completer, completer.Model()
}
