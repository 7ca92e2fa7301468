package worker

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
)

// defaultRedisURL — Redis для локальной разработки.
const defaultRedisURL = "redis://localhost:6379/0"

// RedisURL возвращает строку подключения к Redis из окружения.
func RedisURL() string {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return url
	}
	return defaultRedisURL
}

// NewRedisClient создаёт go-redis клиент по REDIS_URL.
func NewRedisClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(RedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
