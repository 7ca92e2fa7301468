package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

// Default configuration values.
const (
	defaultConcurrency = 2
	defaultPrefetch    = 5

	defaultSweepWindow = time.Minute
	defaultCleanupAge  = 30 * 24 * time.Hour
	defaultAdminEmail  = "admin@example.com"
)

// Worker — пул потребителей задач.
type Worker struct {
	// Stores
	payments      PaymentStore
	notifications NotificationStore
	records       RecordStore
	users         UserStore

	// MQ
	dispatcher Dispatcher
	conn       *mq.Connection

	// Внешние коллабораторы
	settler Settler
	mailer  Mailer
	results ResultStore
	guard   *Guard
	db      Pinger

	// Configuration
	concurrency int
	prefetch    int
	sweepWindow time.Duration
	cleanupAge  time.Duration
	adminEmail  string

	// Lifecycle
	logger     *slog.Logger
	consumers  []*mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Stores
	Payments      PaymentStore
	Notifications NotificationStore
	Records       RecordStore
	Users         UserStore

	// MQ
	Dispatcher Dispatcher
	Conn       *mq.Connection

	// Внешние коллабораторы (опциональны: nil → разумный дефолт)
	Settler Settler     // nil → расчёт всегда успешен
	Mailer  Mailer      // nil → письма только логируются
	Results ResultStore // nil → результаты не сохраняются
	Guard   *Guard      // nil → без дедупликации redelivery
	DB      Pinger      // nil → heartbeat не проверяет БД

	// Concurrency configuration
	Concurrency int // consumer'ов на очередь (default: 2)
	Prefetch    int // prefetch limit на consumer (default: 5)

	// Maintenance configuration
	SweepWindow time.Duration // окно минутного дайджеста (default: 1m)
	CleanupAge  time.Duration // возраст записей для чистки (default: 30d)
	AdminEmail  string        // получатель отчётов и дайджестов

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	sweepWindow := cfg.SweepWindow
	if sweepWindow <= 0 {
		sweepWindow = defaultSweepWindow
	}

	cleanupAge := cfg.CleanupAge
	if cleanupAge <= 0 {
		cleanupAge = defaultCleanupAge
	}

	adminEmail := cfg.AdminEmail
	if adminEmail == "" {
		adminEmail = defaultAdminEmail
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	settler := cfg.Settler
	if settler == nil {
		settler = SettlerFunc(func(context.Context, *domain.Payment) error { return nil })
	}

	mailer := cfg.Mailer
	if mailer == nil {
		mailer = &LogMailer{Logger: logger}
	}

	return &Worker{
		payments:      cfg.Payments,
		notifications: cfg.Notifications,
		records:       cfg.Records,
		users:         cfg.Users,
		dispatcher:    cfg.Dispatcher,
		conn:          cfg.Conn,
		settler:       settler,
		mailer:        mailer,
		results:       cfg.Results,
		guard:         cfg.Guard,
		db:            cfg.DB,
		concurrency:   concurrency,
		prefetch:      prefetch,
		sweepWindow:   sweepWindow,
		cleanupAge:    cleanupAge,
		adminEmail:    adminEmail,
		logger:        logger,
	}
}

// Start поднимает consumer'ов на все рабочие очереди.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"concurrency", w.concurrency,
		"prefetch", w.prefetch,
		"queues", mq.WorkQueues,
	)

	for _, queue := range mq.WorkQueues {
		for i := 0; i < w.concurrency; i++ {
			consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
				Queue:    queue,
				Handler:  w.handleDelivery,
				Prefetch: w.prefetch,
			})
			w.consumers = append(w.consumers, consumer)

			w.wg.Add(1)
			go func(c *mq.Consumer, q mq.Queue) {
				defer w.wg.Done()
				if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					w.logger.Error("consumer error", "queue", q, "error", err)
				}
			}(consumer, queue)
		}
	}

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и дожидается завершения consumer'ов.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	for _, c := range w.consumers {
		c.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}
