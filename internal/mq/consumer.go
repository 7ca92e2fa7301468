package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler — функция обработки envelope.
//
// Контракт ack: nil — сообщение подтверждается (ack); ошибка означает,
// что обработчик НЕ смог безопасно заменить сообщение (retry/DLQ
// публикация не удалась) — сообщение возвращается в очередь (nack с
// requeue). Решение retry/dead-letter принимает сам обработчик, чтобы
// оригинал подтверждался ровно в момент безопасной замены.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — доставленный envelope с методами подтверждения.
type Delivery struct {
	// Envelope — разобранная единица работы.
	Envelope *Envelope

	// Queue — очередь, из которой пришло сообщение.
	Queue Queue

	// Raw — сырое AMQP сообщение.
	Raw amqp.Delivery
}

// Ack подтверждает успешную обработку сообщения.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет сообщение.
// requeue=true — вернуть в очередь, false — уйдёт в DLQ через DLX очереди.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// Consumer потребляет envelope из одной очереди RabbitMQ.
//
// Каждый consumer владеет выделенным AMQP каналом: prefetch и ack не
// разделяются между потребителями и публикациями Dispatcher. Канал
// живёт один цикл подписки и переоткрывается после reconnect.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    Queue
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	// Queue — имя очереди.
	Queue Queue

	// Handler — обработчик envelope.
	Handler Handler

	// Prefetch — предел неподтверждённых сообщений на consumer
	// (fair dispatch + back-pressure на брокер).
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	return &Consumer{
		conn:     conn,
		logger:   logger,
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: prefetch,
	}
}

// Start запускает потребление сообщений.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	return c.consume(ctx)
}

// consume — основной цикл: подписка, обработка, рестарт после reconnect.
func (c *Consumer) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ch, deliveries, err := c.setupConsume()
		if err != nil {
			c.logger.Error("failed to setup consume", "queue", c.queue, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				c.logger.Info("reconnected, restarting consumer", "queue", c.queue)
				continue
			}
		}

		c.logger.Info("consumer started", "queue", c.queue, "prefetch", c.prefetch)

		err = c.processDeliveries(ctx, deliveries)
		// Канал живёт один цикл подписки: после разрыва или остановки
		// он закрывается, новый цикл откроет свой.
		_ = ch.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("deliveries channel closed, reconnecting", "queue", c.queue)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// setupConsume открывает выделенный канал и начинает потребление.
func (c *Consumer) setupConsume() (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := c.conn.NewChannel()
	if err != nil {
		return nil, nil, err
	}

	// Prefetch limit
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		string(c.queue), // queue
		"",              // consumer tag (auto-generated)
		false,           // auto-ack (ack вручную)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("consume: %w", err)
	}

	return ch, deliveries, nil
}

// processDeliveries обрабатывает сообщения из канала.
func (c *Consumer) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			c.handleDelivery(ctx, raw)
		}
	}
}

// handleDelivery обрабатывает одно сообщение.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	env, err := DecodeEnvelope(raw.Body)
	if err != nil {
		// MalformedEnvelope: немедленно в DLQ (через DLX очереди),
		// retry нет, worker loop не падает.
		c.logger.Error("malformed envelope",
			"queue", c.queue,
			"error", err,
			"body", string(raw.Body),
		)
		if nackErr := raw.Nack(false, false); nackErr != nil {
			c.logger.Error("nack failed", "queue", c.queue, "error", nackErr)
		}
		return
	}

	delivery := &Delivery{
		Envelope: env,
		Queue:    c.queue,
		Raw:      raw,
	}

	c.logger.Debug("received envelope",
		"queue", c.queue,
		"task", env.Task,
		"task_id", env.ID,
		"retry", env.Retry,
	)

	if err := c.handler(ctx, delivery); err != nil {
		// Обработчик не смог безопасно заменить сообщение —
		// возвращаем в очередь для повторной доставки.
		c.logger.Error("handler failed, requeueing",
			"queue", c.queue,
			"task", env.Task,
			"task_id", env.ID,
			"error", err,
		)
		if nackErr := raw.Nack(false, true); nackErr != nil && !errors.Is(nackErr, amqp.ErrClosed) {
			c.logger.Error("nack failed", "queue", c.queue, "error", nackErr)
		}
		return
	}

	if ackErr := raw.Ack(false); ackErr != nil && !errors.Is(ackErr, amqp.ErrClosed) {
		c.logger.Error("ack failed", "queue", c.queue, "error", ackErr)
	}
}

// Stop останавливает consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}
