package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/worker"
)

// Deps — ленивые подключения CLI к инфраструктуре.
// Каждое подключение создаётся при первом обращении, чтобы команды
// вроде schedule list работали без брокера и БД.
type Deps struct {
	logger *slog.Logger

	pool *pgxpool.Pool
	conn *mq.Connection
	disp *mq.Dispatcher
	rdb  *redis.Client
}

// NewDeps создаёт контейнер подключений. Сами подключения ленивые.
func NewDeps() *Deps {
	// CLI шумит только предупреждениями: данные идут через Output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	return &Deps{logger: logger}
}

// Pool возвращает пул соединений с PostgreSQL (DB_URL).
func (d *Deps) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if d.pool != nil {
		return d.pool, nil
	}
	pool, err := repo.NewPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	d.pool = pool
	return pool, nil
}

// Conn возвращает подключение к RabbitMQ (AMQP_URL).
func (d *Deps) Conn() (*mq.Connection, error) {
	if d.conn != nil {
		return d.conn, nil
	}
	conn, err := mq.NewConnection(mq.URL(), d.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	d.conn = conn
	return conn, nil
}

// Dispatcher возвращает публикатор задач поверх Conn.
func (d *Deps) Dispatcher() (*mq.Dispatcher, error) {
	if d.disp != nil {
		return d.disp, nil
	}
	conn, err := d.Conn()
	if err != nil {
		return nil, err
	}
	d.disp = mq.NewDispatcher(conn, d.logger)
	return d.disp, nil
}

// Redis возвращает клиент Redis (REDIS_URL).
func (d *Deps) Redis() (*redis.Client, error) {
	if d.rdb != nil {
		return d.rdb, nil
	}
	rdb, err := worker.NewRedisClient()
	if err != nil {
		return nil, err
	}
	d.rdb = rdb
	return rdb, nil
}

// Close закрывает все открытые подключения.
func (d *Deps) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.conn != nil {
		d.conn.Close()
	}
	if d.rdb != nil {
		d.rdb.Close()
	}
}
