package mq

import (
	"strings"
	"testing"
)

func TestDeliverTo_FanoutIgnoresKey(t *testing.T) {
	// Ключ любой — fanout доставляет во все привязанные очереди
	for _, key := range []RoutingKey{"", "whatever", KeyPayment} {
		queues := DeliverTo(ExchangeNotifications, key)
		if len(queues) != 1 || queues[0] != QueueNotifications {
			t.Errorf("fanout with key %q delivered to %v, want [%s]", key, queues, QueueNotifications)
		}
	}
}

func TestDeliverTo_DirectMatchesExactKey(t *testing.T) {
	queues := DeliverTo(ExchangePayments, KeyPayment)
	if len(queues) != 1 || queues[0] != QueuePayments {
		t.Fatalf("expected [%s], got %v", QueuePayments, queues)
	}

	// Несовпадающий ключ — сообщение никуда не доставляется
	if queues := DeliverTo(ExchangePayments, "wrong"); len(queues) != 0 {
		t.Errorf("direct with wrong key delivered to %v", queues)
	}
}

func TestDeliverTo_UnknownExchange(t *testing.T) {
	if queues := DeliverTo("nonexistent", "k"); len(queues) != 0 {
		t.Errorf("unknown exchange delivered to %v", queues)
	}
}

func TestRouteFor_CoversWorkQueues(t *testing.T) {
	// Каждая рабочая очередь должна быть достижима через Enqueue
	for _, q := range WorkQueues {
		ex, key, ok := RouteFor(q)
		if !ok {
			t.Errorf("no route for work queue %s", q)
			continue
		}

		delivered := DeliverTo(ex, key)
		var found bool
		for _, dq := range delivered {
			if dq == q {
				found = true
			}
		}
		if !found {
			t.Errorf("route (%s, %s) for queue %s does not deliver back to it: %v", ex, key, q, delivered)
		}
	}
}

func TestRouteFor_NoRouteForDeadLetter(t *testing.T) {
	// В DLQ публикует только worker через PublishDead, не Enqueue
	if _, _, ok := RouteFor(QueueDeadLetter); ok {
		t.Error("dead letter queue must not be a direct enqueue target")
	}
}

func TestHoldQueueFor(t *testing.T) {
	if got := HoldQueueFor(QueuePayments); got != "retry.payment_queue" {
		t.Errorf("expected retry.payment_queue, got %s", got)
	}
}

func TestTopologyInfo_ListsAllObjects(t *testing.T) {
	info := TopologyInfo()

	for _, def := range ExchangeDefs {
		if !strings.Contains(info, string(def.Name)) {
			t.Errorf("topology info missing exchange %s", def.Name)
		}
	}
	for _, b := range Bindings {
		if !strings.Contains(info, string(b.Queue)) {
			t.Errorf("topology info missing queue %s", b.Queue)
		}
	}
}
