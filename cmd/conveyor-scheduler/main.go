// Conveyor Scheduler — ставит служебные задачи по расписанию.
//
// Один лидер на кластер: лидерство берётся через pg_try_advisory_lock,
// остальные инстансы простаивают и подхватывают лидерство при падении
// текущего. Тики только у лидера.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

const schedLockKey int64 = 737373

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool — нужен только для advisory lock лидерства.
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

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	sched, err := scheduler.New(scheduler.Config{
		Dispatcher: mq.NewDispatcher(mqConn, logger),
		Logger:     logger,
	})
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop
	go func() {
		tk := time.NewTicker(time.Minute)
		defer tk.Stop()

		// Advisory lock привязан к сессии, поэтому лидер закрепляет за
		// собой выделенное соединение на всё время лидерства: пул не
		// может переиспользовать его и тем самым молча снять лок.
		var lockConn *pgxpool.Conn
		releaseLock := func() {
			if lockConn == nil {
				return
			}
			_, _ = lockConn.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			lockConn.Release()
			lockConn = nil
		}
		defer releaseLock()

		for {
			select {
			case t := <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				if lockConn == nil {
					conn, err := pool.Acquire(ctx)
					if err != nil {
						logger.Warn("leader lock error", "error", err)
						continue
					}
					var ok bool
					if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						conn.Release()
						logger.Warn("leader lock error", "error", err)
						continue
					}
					if !ok {
						// не лидер — соединение возвращается в пул
						conn.Release()
						continue
					}
					lockConn = conn
					logger.Info("became scheduler leader")
				} else if err := lockConn.Ping(ctx); err != nil {
					// Сессия умерла, лок снят сервером. Лидерство
					// разыгрывается заново на следующем тике.
					logger.Warn("leader session lost", "error", err)
					lockConn.Release()
					lockConn = nil
					continue
				}

				sched.Tick(ctx, t)

			case <-ctx.Done():
				return
			}
		}
	}()

	// serve
	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	logger.Info("listening", "addr", port)
	if err := http.ListenAndServe(port, mux); err != nil {
		logger.Error("http server error", "error", err)
		cancel()
	}
}
