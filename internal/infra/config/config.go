package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		Token      string `envconfig:"TG_BOT_TOKEN"`
		WebhookURL string `envconfig:"TG_WEBHOOK_URL"`
	} `envconfig:""`

	// PrimaryAdminID — главный администратор: сидируется при старте
	// и не может быть удалён.
	PrimaryAdminID int64 `envconfig:"PRIMARY_ADMIN_ID"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`

	Broadcast struct {
		Queue string `envconfig:"BROADCAST_QUEUE_KEY" default:"broadcast_jobs"`
		RPS   int    `envconfig:"BROADCAST_RPS" default:"20"`
	} `envconfig:""`

	// GateCacheTTL — срок кэширования положительных ответов о подписке.
	// Ноль отключает кэш.
	GateCacheTTL time.Duration `envconfig:"GATE_CACHE_TTL" default:"0s"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
