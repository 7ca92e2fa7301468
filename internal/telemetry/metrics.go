package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркеров и планировщика.
//
// Лейблы:
//   - kind    — тип задачи (process_payment_task, send_notification_task, ...)
//   - outcome — результат обработки (success, permanent, retried, dead, dropped)
var (
	// TasksConsumed — количество обработанных envelope по типу и результату.
	TasksConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "tasks_consumed_total",
		Help:      "Envelopes pulled from queues, by task kind and outcome.",
	}, []string{"kind", "outcome"})

	// TaskRetries — количество повторных публикаций (retry) по типу задачи.
	TaskRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "task_retries_total",
		Help:      "Envelopes republished for retry, by task kind.",
	}, []string{"kind"})

	// TasksDeadLettered — количество envelope, отправленных в dead-letter очередь.
	TasksDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "tasks_dead_lettered_total",
		Help:      "Envelopes routed to the dead-letter queue, by task kind.",
	}, []string{"kind"})

	// PublishFailures — неудачные публикации в брокер.
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "publish_failures_total",
		Help:      "Failed publishes to the broker.",
	})

	// HandlerDuration — длительность выполнения обработчиков.
	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "conveyor",
		Name:      "handler_duration_seconds",
		Help:      "Task handler execution time, by task kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// SchedulerFires — срабатывания записей расписания.
	SchedulerFires = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "conveyor",
		Name:      "scheduler_fires_total",
		Help:      "Schedule entries fired, by entry name.",
	}, []string{"entry"})

	// SystemHealthy — результат последнего heartbeat check (1 — ок, 0 — нет).
	SystemHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "conveyor",
		Name:      "system_healthy",
		Help:      "Result of the last heartbeat check (1 healthy, 0 unhealthy).",
	})
)
