package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-kino-bot/internal/adapters/bot"
	"tg-kino-bot/internal/adapters/repo"
	"tg-kino-bot/internal/adapters/telegram"
	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/cache"
	"tg-kino-bot/internal/infra/config"
	"tg-kino-bot/internal/infra/db"
	"tg-kino-bot/internal/infra/log"
	"tg-kino-bot/internal/infra/metrics"
	"tg-kino-bot/internal/infra/queue"
	"tg-kino-bot/internal/usecase/access"
	"tg-kino-bot/internal/usecase/broadcast"
	"tg-kino-bot/internal/usecase/catalog"
	"tg-kino-bot/internal/usecase/workflow"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cacheAdapter := cache.NewRedis(redisClient)

	var jobs domain.BroadcastQueue
	if cfg.AMQPURL != "" {
		amqpQueue, err := queue.NewAMQPBroadcastQueue(cfg.AMQPURL, cfg.Broadcast.Queue)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
		}
		defer amqpQueue.Close()
		jobs = amqpQueue
	} else {
		jobs = queue.NewRedisBroadcastQueue(redisClient, cfg.Broadcast.Queue)
	}

	repoAdapter := repo.NewPostgres(pool)
	if err := repoAdapter.EnsurePrimaryAdmin(ctx, cfg.PrimaryAdminID); err != nil {
		logger.Fatal().Err(err).Msg("не удалось засеять главного администратора")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("некорректный webhook URL")
		}
		if _, err := botAPI.Request(wh); err != nil {
			logger.Fatal().Err(err).Msg("не удалось установить вебхук")
		}
	}

	sender := telegram.NewSender(botAPI)
	gate := access.NewGate(repoAdapter, repoAdapter, sender, cacheAdapter, cfg.GateCacheTTL, logger)
	broadcastService := broadcast.NewService(jobs)
	engine := workflow.NewEngine(repoAdapter, repoAdapter, repoAdapter, repoAdapter, sender, broadcastService, cfg.PrimaryAdminID, logger)
	catalogService := catalog.NewService(repoAdapter, repoAdapter, repoAdapter, gate, logger)

	h := bot.NewHandler(botAPI, logger, repoAdapter, repoAdapter, repoAdapter, repoAdapter, repoAdapter, repoAdapter, gate, engine, catalogService)

	r := chi.NewRouter()
	r.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: r}
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("бот-гейтвей запущен")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	logger.Info().Msg("остановка бота")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

var _ domain.UserRepo = (*repo.Postgres)(nil)
var _ domain.ChannelRepo = (*repo.Postgres)(nil)
var _ domain.ContentRepo = (*repo.Postgres)(nil)
var _ domain.StatsRepo = (*repo.Postgres)(nil)
