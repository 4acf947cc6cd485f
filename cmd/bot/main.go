package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Fi44er/shop_bot/config"
	"github.com/Fi44er/shop_bot/db"
	"github.com/Fi44er/shop_bot/internal/bot"
	"github.com/Fi44er/shop_bot/internal/cache"
	"github.com/Fi44er/shop_bot/internal/httpserver"
	"github.com/Fi44er/shop_bot/internal/metrics"
	"github.com/Fi44er/shop_bot/internal/repository"
	"github.com/Fi44er/shop_bot/internal/service"
	"github.com/Fi44er/shop_bot/internal/state"
	"github.com/Fi44er/shop_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := utils.InitLogger(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}
	logger = utils.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.ConnectDb(cfg.DBDriver, cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, true, logger); err != nil {
		logger.Fatal(err)
	}

	repo := repository.NewRepository(database, logger)
	catalogCache := newCatalogCache(ctx, &cfg, logger)
	defer catalogCache.Close()

	m := metrics.Registry(cfg.MetricsNamespace)
	svc := service.NewService(repo, catalogCache, m, &cfg, logger)
	if err := svc.SeedPaymentMethod(ctx); err != nil {
		logger.Fatal("Failed to seed payment method: ", err)
	}

	telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}
	logger.Infof("Authorized as @%s", telegramBot.Self.UserName)

	shopBot := bot.NewBot(telegramBot, svc, state.NewStore(), m, logger, &cfg)

	var webhook *httpserver.Webhook
	if cfg.WebhookURL != "" {
		webhook = &httpserver.Webhook{Decode: telegramBot.HandleUpdate, Handler: shopBot}
		if err := registerWebhook(telegramBot, cfg.WebhookURL); err != nil {
			logger.Fatal("Failed to register webhook: ", err)
		}
	}

	server := httpserver.New(cfg.HTTPAddr, logger, webhook)
	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	}()

	if webhook == nil {
		if _, err := telegramBot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warnf("Failed to delete webhook before polling: %v", err)
		}
		shopBot.Start(ctx)
	} else {
		logger.Infof("Receiving updates via webhook at %s", cfg.WebhookURL)
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server shutdown: %v", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("Goodbye")
}

// newCatalogCache prefers redis and falls back to process memory.
func newCatalogCache(ctx context.Context, cfg *config.Config, logger *utils.Logger) cache.Cache {
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			logger.Infof("Catalog cache: redis at %s", cfg.RedisAddr)
			return redisCache
		}
		logger.Warnf("Redis unavailable, using in-memory catalog cache: %v", err)
	}
	return cache.NewMemoryCache(time.Minute)
}

func registerWebhook(api *tgbotapi.BotAPI, baseURL string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + httpserver.WebhookPath)
	if err != nil {
		return err
	}
	_, err = api.Request(wh)
	return err
}
