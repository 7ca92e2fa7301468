package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
// Фиксированная конфигурация: имена и типы не выводятся в runtime.
const (
	ExchangeDefault       Exchange = "default"
	ExchangePayments      Exchange = "payment_exchange"
	ExchangeNotifications Exchange = "notification_exchange"
	ExchangeEvents        Exchange = "notifications"
	ExchangeDLX           Exchange = "dlx_exchange"
)

// Queues — имена очередей.
const (
	QueueDefault            Queue = "default"
	QueuePayments           Queue = "payment_queue"
	QueueNotifications      Queue = "notification_queue"
	QueueNotificationEvents Queue = "notification_events"
	QueueDeadLetter         Queue = "dead_letter"
)

// Routing keys.
const (
	KeyDefault RoutingKey = "default"
	KeyPayment RoutingKey = "payment"
	KeyFanout  RoutingKey = "" // fanout игнорирует ключ
	KeyDead    RoutingKey = "dead"
)

// Типы обменников.
const (
	kindDirect = "direct"
	kindFanout = "fanout"
)

// ExchangeDef — декларация обменника.
type ExchangeDef struct {
	Name Exchange
	Kind string
}

// Binding — привязка очереди к обменнику.
type Binding struct {
	Queue    Queue
	Exchange Exchange
	Key      RoutingKey
}

// ExchangeDefs — полный набор обменников.
var ExchangeDefs = []ExchangeDef{
	{ExchangeDefault, kindDirect},
	{ExchangePayments, kindDirect},
	{ExchangeNotifications, kindFanout},
	{ExchangeEvents, kindFanout},
	{ExchangeDLX, kindDirect},
}

// Bindings — полный набор привязок.
var Bindings = []Binding{
	{QueueDefault, ExchangeDefault, KeyDefault},
	{QueuePayments, ExchangePayments, KeyPayment},
	{QueueNotifications, ExchangeNotifications, KeyFanout},
	{QueueNotificationEvents, ExchangeEvents, KeyFanout},
	{QueueDeadLetter, ExchangeDLX, KeyDead},
}

// routes — очередь → (обменник, ключ) для публикации.
// Dispatcher.Enqueue принимает имя очереди и публикует в её обменник.
var routes = map[Queue]struct {
	Exchange Exchange
	Key      RoutingKey
}{
	QueueDefault:       {ExchangeDefault, KeyDefault},
	QueuePayments:      {ExchangePayments, KeyPayment},
	QueueNotifications: {ExchangeNotifications, KeyFanout},
}

// RouteFor возвращает обменник и routing key, владеющие очередью.
func RouteFor(q Queue) (Exchange, RoutingKey, bool) {
	r, ok := routes[q]
	return r.Exchange, r.Key, ok
}

// WorkQueues — очереди, которые слушает worker pool.
var WorkQueues = []Queue{QueueDefault, QueuePayments, QueueNotifications}

// HoldQueueFor возвращает имя holding-очереди retry для исходной очереди.
func HoldQueueFor(q Queue) Queue {
	return Queue("retry." + string(q))
}

// DeliverTo возвращает очереди, в которые брокер доставит сообщение,
// опубликованное в exchange с данным routing key.
//
// Инвариант маршрутизации: fanout игнорирует ключ и доставляет во все
// привязанные очереди; direct — только при точном совпадении ключа.
func DeliverTo(ex Exchange, key RoutingKey) []Queue {
	var kind string
	for _, def := range ExchangeDefs {
		if def.Name == ex {
			kind = def.Kind
			break
		}
	}

	var queues []Queue
	for _, b := range Bindings {
		if b.Exchange != ex {
			continue
		}
		if kind == kindFanout || b.Key == key {
			queues = append(queues, b.Queue)
		}
	}
	return queues
}

// SetupTopology объявляет полную топологию брокера.
//
// Идемпотентно: повторное объявление с теми же параметрами — no-op на
// стороне брокера. Конфликт параметров брокер отвечает ошибкой 406
// (PRECONDITION_FAILED), которая мапится в ErrTopologyConflict —
// фатальная ошибка старта.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		if err := bindQueues(ch); err != nil {
			return err
		}
		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, ex := range ExchangeDefs {
		err := ch.ExchangeDeclare(
			string(ex.Name), // name
			ex.Kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return asTopologyErr(fmt.Errorf("declare exchange %s: %w", ex.Name, err))
		}
	}
	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Рабочие очереди: nack(requeue=false) уводит сообщение в DLQ.
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLX),
		"x-dead-letter-routing-key": string(KeyDead),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueDefault, dlqArgs},
		{QueuePayments, dlqArgs},
		{QueueNotifications, dlqArgs},

		// notification_events — срез fan-out событий для downstream.
		{QueueNotificationEvents, nil},

		// dead_letter — сама DLQ очередь, разбирается вручную через CLI.
		{QueueDeadLetter, nil},
	}

	// Holding-очереди retry: per-message TTL, по истечении
	// dead-letter в default exchange AMQP ("") с ключом, равным
	// имени исходной очереди — сообщение возвращается в неё.
	for _, q := range WorkQueues {
		queues = append(queues, struct {
			name Queue
			args amqp.Table
		}{
			HoldQueueFor(q),
			amqp.Table{
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": string(q),
			},
		})
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return asTopologyErr(fmt.Errorf("declare queue %s: %w", q.name, err))
		}
	}
	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	for _, b := range Bindings {
		err := ch.QueueBind(
			string(b.Queue),    // queue name
			string(b.Key),      // routing key
			string(b.Exchange), // exchange
			false,              // no-wait
			nil,                // arguments
		)
		if err != nil {
			return asTopologyErr(fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err))
		}
	}
	return nil
}

// asTopologyErr мапит AMQP 406 (конфликт параметров объявления)
// в ErrTopologyConflict.
func asTopologyErr(err error) error {
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) && amqpErr.Code == amqp.PreconditionFailed {
		return fmt.Errorf("%w: %v", ErrTopologyConflict, err)
	}
	return err
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Conveyor RabbitMQ Topology:

    default (direct)
    └── default [routing: default]
            Consumer: Worker (maintenance tasks)

    payment_exchange (direct)
    └── payment_queue [routing: payment]
            Consumer: Worker (process_payment_task, refund_payment)

    notification_exchange (fanout)
    └── notification_queue
            Consumer: Worker (send_notification_task)

    notifications (fanout)
    └── notification_events
            Downstream consumers

    dlx_exchange (direct)
    └── dead_letter [routing: dead]
            Manual inspection via conveyor-cli

    retry.<queue> (per-message TTL → back to <queue>)
  `
}
