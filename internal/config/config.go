package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN             string
	Environment       string
	MigrationsPath    string
	TelegramToken     string
	HeartbeatInterval time.Duration
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:             os.Getenv("DB_DSN"),
		Environment:       os.Getenv("ENV"),
		MigrationsPath:    os.Getenv("MIGRATIONS_PATH"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		HeartbeatInterval: 30 * time.Second,
	}

	// Дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	if raw := os.Getenv("HEARTBEAT_INTERVAL"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid HEARTBEAT_INTERVAL: %q", raw)
		}
		cfg.HeartbeatInterval = time.Duration(seconds) * time.Second
	}

	// Обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
