package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/fotokruzhok/star-cabinet-bot/internal/config"
	"github.com/fotokruzhok/star-cabinet-bot/internal/handlers"
	"github.com/fotokruzhok/star-cabinet-bot/internal/middleware"
	"github.com/fotokruzhok/star-cabinet-bot/internal/scheduler"
	"github.com/fotokruzhok/star-cabinet-bot/internal/web"
	"github.com/fotokruzhok/star-cabinet-bot/pkg/logger"
	"github.com/fotokruzhok/star-cabinet-bot/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rdb, err := store.NewRedisClient(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, "star_cabinet")
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	stateStore := store.NewRedisStateStore(rdb, 24)

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	if cfg.BotToken == "" {
		logger.Fatalf("BOT_TOKEN is not set")
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		logger.Fatalf("Failed to create bot: %v", err)
	}

	postScheduler := scheduler.NewScheduler(pgStore, b, scheduler.Config{
		Workers:   2,
		ChannelID: cfg.ChannelID,
	})

	h := handlers.NewHandlers(pgStore, pgStore, stateStore, pgStore, cfg)
	middlewares := middleware.NewMiddlewares(pgStore)

	handlerChain := middlewares.EnsureUserMiddleware(
		middlewares.AnalyzeMessageMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	webServer := web.NewServer(cfg, pgStore, pgStore, pgStore)

	postScheduler.Start()
	defer postScheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Bot started. Press Ctrl+C to stop.")
		b.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return webServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return webServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("shutdown: %v", err)
	}
}
