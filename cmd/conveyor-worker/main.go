// Conveyor Worker — выполняет фоновые задачи.
//
// Worker:
//   - Получает envelopes из RabbitMQ (default, payment_queue, notification_queue)
//   - Выполняет задачи в зависимости от типа (платежи, уведомления, maintenance)
//   - Реализует retry с exponential backoff через hold-очереди
//   - Складывает результаты в Redis
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ
	mqConn, err := mq.NewConnection(mq.URL(), logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию. Конфликт с существующими объектами брокера —
	// фатальная ошибка конфигурации, а не повод для retry.
	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Redis: результаты задач и дедупликация redelivery.
	// Без Redis worker работает, но без них.
	var results worker.ResultStore
	var guard *worker.Guard
	rdb, err := worker.NewRedisClient()
	if err != nil {
		logger.Warn("Redis not configured, results and dedupe disabled", "error", err)
	} else {
		defer rdb.Close()
		results = worker.NewRedisResults(rdb)
		guard = worker.NewGuard(worker.RedisKV{R: rdb})
	}

	// Создаём worker
	w := worker.New(worker.Config{
		Payments:      repo.NewPaymentRepo(pool),
		Notifications: repo.NewNotificationRepo(pool),
		Records:       repo.NewRecordRepo(pool),
		Users:         repo.NewUserRepo(pool),
		Dispatcher:    mq.NewDispatcher(mqConn, logger),
		Conn:          mqConn,
		Results:       results,
		Guard:         guard,
		DB:            pool,
		Concurrency:   envInt("WORKER_CONCURRENCY"),
		Prefetch:      envInt("WORKER_PREFETCH"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		Logger:        logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("conveyor-worker stopped")
}

// envInt читает целочисленную переменную окружения, 0 если не задана.
func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
