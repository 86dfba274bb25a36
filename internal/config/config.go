package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16   `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envDefault:"*"    envSeparator:","`

	WsReadLimit       int64   `env:"WS_READ_LIMIT"        envDefault:"65536" validate:"min=1024"`
	WsSendBuffer      int     `env:"WS_SEND_BUFFER"       envDefault:"64"    validate:"min=1"`
	WsEventsPerSecond float64 `env:"WS_EVENTS_PER_SECOND" envDefault:"20"    validate:"min=0"`
	WsEventBurst      int     `env:"WS_EVENT_BURST"       envDefault:"40"    validate:"min=1"`

	ArchiveEnabled bool `env:"ARCHIVE_ENABLED" envDefault:"false"`

	RedisHost     string `env:"REDIS_HOST"     envDefault:"localhost"`
	RedisPort     uint16 `env:"REDIS_PORT"     envDefault:"6379" validate:"min=1000,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDb       int    `env:"REDIS_DB"       envDefault:"0"    validate:"min=0,max=15"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"poker_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"poker_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"poker_db"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
