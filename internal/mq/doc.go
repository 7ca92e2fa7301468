// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - envelope.go   — сериализованная единица работы (Task Envelope)
//   - dispatcher.go — публикация envelope в очереди (enqueue, retry, DLQ)
//   - consumer.go   — потребление envelope из очередей
//
// Exchanges:
//   - default               (direct) — maintenance-задачи
//   - payment_exchange      (direct) — платёжные задачи
//   - notification_exchange (fanout) — задачи уведомлений
//   - notifications         (fanout) — события для downstream-потребителей
//   - dlx_exchange          (direct) — dead-letter маршрутизация
//
// Retry реализован через holding-очереди retry.<queue> с per-message TTL:
// по истечении TTL сообщение dead-letter'ится в default exchange AMQP
// с routing key, равным имени исходной очереди.
package mq
