package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/tasks"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Исходы обработки (лейбл outcome в метриках).
const (
	outcomeSuccess   = "success"
	outcomePermanent = "permanent"
	outcomeRetried   = "retried"
	outcomeDead      = "dead"
	outcomeDropped   = "dropped"
	outcomeDuplicate = "duplicate"
)

// handleDelivery — точка входа consumer'а: разбор, дедупликация,
// выполнение, классификация исхода.
//
// Возврат nil означает, что сообщение можно подтвердить (ack);
// ошибка возвращается ТОЛЬКО когда замена сообщения (retry/DLQ
// публикация) не удалась — тогда consumer вернёт оригинал в очередь,
// и дубликата в полёте не возникает.
func (w *Worker) handleDelivery(ctx context.Context, d *mq.Delivery) error {
	env := d.Envelope
	log := telemetry.WithQueue(telemetry.WithTaskID(w.logger, env.ID), string(d.Queue))

	task, err := tasks.Decode(env)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownTask) {
			// UnknownTask: drop без requeue — ретраить бессмысленно,
			// обработчика не появится.
			log.Error("unknown task, dropping", "task", env.Task)
			telemetry.TasksConsumed.WithLabelValues(env.Task, outcomeDropped).Inc()
			return nil
		}
		// Аргументы не соответствуют сигнатуре — немедленно в DLQ.
		return w.deadLetter(ctx, d, err.Error())
	}

	kind := task.Kind()
	log = telemetry.WithKind(log, string(kind))

	// Дедупликация redelivery для неидемпотентных по природе
	// обработчиков. Платёжный обработчик идемпотентен сам по себе
	// (conditional update), его не прикрываем.
	if w.guard != nil && needsGuard(kind) {
		first, gerr := w.guard.First(ctx, env.ID, env.Retry)
		if gerr != nil {
			// Redis недоступен — fail open: at-least-once допускает
			// дубликаты, недоставка хуже.
			log.Warn("dedupe guard unavailable", "error", gerr)
		} else if !first {
			log.Info("duplicate delivery suppressed", "retry", env.Retry)
			telemetry.TasksConsumed.WithLabelValues(env.Task, outcomeDuplicate).Inc()
			return nil
		}
	}

	start := time.Now()
	execErr := w.execute(ctx, task)
	telemetry.HandlerDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	switch {
	case execErr == nil:
		telemetry.TasksConsumed.WithLabelValues(env.Task, outcomeSuccess).Inc()
		w.storeResult(ctx, env, "success", "")
		return nil

	case isPermanent(execErr):
		// Permanent-условие: результат фиксируется, retry нет.
		log.Warn("task failed permanently", "error", execErr)
		telemetry.TasksConsumed.WithLabelValues(env.Task, outcomePermanent).Inc()
		w.storeResult(ctx, env, permanentStatus(execErr), execErr.Error())
		return nil

	case !env.Exhausted():
		// Transient: новый envelope с retry+1 в holding-очередь.
		next := env.WithRetry()
		delay := Backoff(next.Retry)

		if err := w.dispatcher.PublishRetry(ctx, d.Queue, next, delay); err != nil {
			telemetry.PublishFailures.Inc()
			return fmt.Errorf("publish retry: %w", err)
		}

		log.Warn("task failed, retry scheduled",
			"retry", next.Retry,
			"max_retries", env.MaxRetries,
			"delay", delay,
			"error", execErr,
		)
		telemetry.TasksConsumed.WithLabelValues(env.Task, outcomeRetried).Inc()
		telemetry.TaskRetries.WithLabelValues(env.Task).Inc()
		return nil

	default:
		// Retry исчерпаны — envelope без изменений в DLQ.
		return w.deadLetter(ctx, d, execErr.Error())
	}
}

// deadLetter отправляет envelope в DLQ и разрешает ack оригинала.
func (w *Worker) deadLetter(ctx context.Context, d *mq.Delivery, reason string) error {
	if err := w.dispatcher.PublishDead(ctx, d.Queue, d.Envelope, reason); err != nil {
		telemetry.PublishFailures.Inc()
		return fmt.Errorf("publish dead-letter: %w", err)
	}

	telemetry.TasksConsumed.WithLabelValues(d.Envelope.Task, outcomeDead).Inc()
	telemetry.TasksDeadLettered.WithLabelValues(d.Envelope.Task).Inc()
	w.storeResult(ctx, d.Envelope, "failed", reason)
	return nil
}

// execute — исчерпывающая диспетчеризация по закрытому набору задач.
func (w *Worker) execute(ctx context.Context, task tasks.Task) error {
	switch t := task.(type) {
	case tasks.ProcessPayment:
		return w.processPayment(ctx, t)
	case tasks.RefundPayment:
		return w.refundPayment(ctx, t)
	case tasks.SendNotification:
		return w.sendNotification(ctx, t)
	case tasks.SendEmail:
		return w.sendEmail(ctx, t)
	case tasks.SweepNotifications:
		return w.sweepNotifications(ctx)
	case tasks.CleanupOldRecords:
		return w.cleanupOldRecords(ctx)
	case tasks.GenerateDailyReport:
		return w.generateDailyReport(ctx)
	case tasks.HeartbeatCheck:
		return w.heartbeatCheck(ctx)
	default:
		// Недостижимо: Decode возвращает только перечисленные варианты.
		return fmt.Errorf("%w: %T", tasks.ErrUnknownTask, task)
	}
}

// needsGuard отмечает задачи, чьи обработчики не идемпотентны сами
// по себе (создают строку / шлют письмо на каждое выполнение).
func needsGuard(kind tasks.Kind) bool {
	switch kind {
	case tasks.KindSendNotification, tasks.KindSendEmail:
		return true
	default:
		return false
	}
}

// isPermanent классифицирует ошибку обработчика.
// Всё, что не permanent — transient и подлежит retry.
func isPermanent(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrPaymentNotRefundable) ||
		errors.Is(err, mq.ErrMalformedEnvelope)
}

// permanentStatus — статус результата для permanent-ошибок
// (в терминах, которые видит вызывающий триггер).
func permanentStatus(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrPaymentNotFound):
		return "payment_not_found"
	case errors.Is(err, ErrPaymentNotRefundable):
		return "payment_not_refundable"
	default:
		return "error"
	}
}

// storeResult сохраняет итог задачи в result backend (best-effort).
func (w *Worker) storeResult(ctx context.Context, env *mq.Envelope, status, detail string) {
	if w.results == nil {
		return
	}

	res := &TaskResult{
		TaskID:     env.ID,
		Task:       env.Task,
		Status:     status,
		Detail:     detail,
		Retry:      env.Retry,
		FinishedAt: time.Now().UTC(),
	}
	if err := w.results.Store(ctx, res); err != nil {
		w.logger.Warn("failed to store task result", "task_id", env.ID, "error", err)
	}
}
