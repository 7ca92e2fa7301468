package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Заголовки сообщений.
const (
	// HeaderOriginQueue — очередь, из которой envelope ушёл на
	// retry/dead-letter. Нужен CLI для requeue из DLQ.
	HeaderOriginQueue = "x-origin-queue"

	// HeaderDeadReason — причина попадания в DLQ.
	HeaderDeadReason = "x-dead-reason"
)

// Dispatcher публикует Task Envelope в брокер.
//
// Enqueue — fire-and-forget с точки зрения вызывающего: публикация
// синхронна относительно приёма сообщения брокером (persistent), но
// выполнение задачи асинхронно. Dispatcher конструируется явно и
// передаётся в Worker Pool и Scheduler — глобального клиента нет.
type Dispatcher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewDispatcher создаёт новый Dispatcher.
func NewDispatcher(conn *Connection, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		conn:   conn,
		logger: logger,
	}
}

// Enqueue публикует envelope в обменник, владеющий очередью, с её
// routing key. При недоступности брокера возвращает ErrBrokerUnavailable:
// вызывающий, которому требуется side effect, обязан считать это
// hard failure.
func (d *Dispatcher) Enqueue(ctx context.Context, queue Queue, env *Envelope) error {
	exchange, key, ok := RouteFor(queue)
	if !ok {
		return fmt.Errorf("no route for queue %q", queue)
	}

	if err := d.publish(ctx, string(exchange), string(key), env, nil, 0); err != nil {
		return err
	}

	d.logger.Debug("enqueued envelope",
		"queue", queue,
		"task", env.Task,
		"task_id", env.ID,
		"retry", env.Retry,
	)
	return nil
}

// PublishRetry публикует retry-копию envelope в holding-очередь исходной
// очереди с per-message TTL. По истечении TTL брокер вернёт сообщение
// в исходную очередь (см. topology.go).
func (d *Dispatcher) PublishRetry(ctx context.Context, origin Queue, env *Envelope, delay time.Duration) error {
	hold := HoldQueueFor(origin)
	headers := amqp.Table{HeaderOriginQueue: string(origin)}

	// Публикация напрямую в holding-очередь через default exchange AMQP.
	if err := d.publish(ctx, "", string(hold), env, headers, delay); err != nil {
		return err
	}

	d.logger.Debug("published retry",
		"queue", origin,
		"task", env.Task,
		"task_id", env.ID,
		"retry", env.Retry,
		"delay", delay,
	)
	return nil
}

// PublishDead отправляет envelope в dead-letter очередь без изменений.
// Дальнейших retry нет — разбор вручную через CLI.
func (d *Dispatcher) PublishDead(ctx context.Context, origin Queue, env *Envelope, reason string) error {
	headers := amqp.Table{
		HeaderOriginQueue: string(origin),
		HeaderDeadReason:  reason,
	}

	if err := d.publish(ctx, string(ExchangeDLX), string(KeyDead), env, headers, 0); err != nil {
		return err
	}

	d.logger.Warn("dead-lettered envelope",
		"queue", origin,
		"task", env.Task,
		"task_id", env.ID,
		"retry", env.Retry,
		"reason", reason,
	)
	return nil
}

// NotificationEvent — fan-out событие о созданном уведомлении.
// Публикуется в обменник notifications для downstream-потребителей.
type NotificationEvent struct {
	ID             string    `json:"id"`
	NotificationID uuid.UUID `json:"notification_id"`
	UserID         uuid.UUID `json:"user_id"`
	Message        string    `json:"message"`
	SentAt         time.Time `json:"sent_at"`
}

// PublishEvent публикует fan-out событие уведомления.
// Best-effort: персистентная строка Notification — источник истины,
// ошибка публикации события не отменяет успех задачи.
func (d *Dispatcher) PublishEvent(ctx context.Context, event *NotificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return d.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(ExchangeEvents),
			string(KeyFanout),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    event.ID,
				Timestamp:    event.SentAt,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("%w: publish event: %v", ErrBrokerUnavailable, err)
		}
		return nil
	})
}

// publish — общий путь публикации envelope.
func (d *Dispatcher) publish(ctx context.Context, exchange, key string, env *Envelope, headers amqp.Table, ttl time.Duration) error {
	body, err := env.Encode()
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт брокера
		MessageId:    env.ID,
		Timestamp:    env.EnqueuedAt,
		Headers:      headers,
		Body:         body,
	}
	if ttl > 0 {
		pub.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
	}

	err = d.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return ch.PublishWithContext(ctx, exchange, key, false, false, pub)
	})
	if err != nil {
		return fmt.Errorf("%w: publish to %s/%s: %v", ErrBrokerUnavailable, exchange, key, err)
	}
	return nil
}
