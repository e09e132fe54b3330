package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"tg-kino-bot/internal/adapters/repo"
	"tg-kino-bot/internal/adapters/telegram"
	"tg-kino-bot/internal/domain"
	"tg-kino-bot/internal/infra/cache"
	"tg-kino-bot/internal/infra/config"
	"tg-kino-bot/internal/infra/db"
	"tg-kino-bot/internal/infra/log"
	"tg-kino-bot/internal/infra/metrics"
	"tg-kino-bot/internal/infra/queue"
	"tg-kino-bot/internal/usecase/broadcast"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
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

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	sender := telegram.NewSender(botAPI)
	repoAdapter := repo.NewPostgres(pool)

	runner := broadcast.NewRunner(jobs, repoAdapter, sender, sender, cacheAdapter, cfg.Broadcast.RPS, logger)
	logger.Info().Int("rps", cfg.Broadcast.RPS).Msg("рассыльщик запущен")
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("рассыльщик остановлен с ошибкой")
	}
	logger.Info().Msg("рассыльщик остановлен")
}
