package cli

import (
	"context"
	"errors"
	"sort"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/mq"
)

// fakeDLQChannel эмулирует basic.get: неподтверждённое сообщение не
// выдаётся повторно, nack с requeue возвращает его в очередь.
type fakeDLQChannel struct {
	ready   []amqp.Delivery
	unacked map[uint64]amqp.Delivery
	nextTag uint64

	gets  int
	acked []uint64
}

func newFakeDLQChannel(msgs ...amqp.Delivery) *fakeDLQChannel {
	return &fakeDLQChannel{
		ready:   msgs,
		unacked: make(map[uint64]amqp.Delivery),
	}
}

func (f *fakeDLQChannel) Get(_ string, _ bool) (amqp.Delivery, bool, error) {
	f.gets++
	if len(f.ready) == 0 {
		return amqp.Delivery{}, false, nil
	}
	msg := f.ready[0]
	f.ready = f.ready[1:]
	f.nextTag++
	msg.DeliveryTag = f.nextTag
	f.unacked[msg.DeliveryTag] = msg
	return msg, true, nil
}

func (f *fakeDLQChannel) Ack(tag uint64, _ bool) error {
	if _, ok := f.unacked[tag]; !ok {
		return errors.New("ack of unknown delivery tag")
	}
	delete(f.unacked, tag)
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeDLQChannel) Nack(tag uint64, multiple, requeue bool) error {
	var tags []uint64
	for t := range f.unacked {
		if t == tag || (multiple && t < tag) {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return errors.New("nack of unknown delivery tag")
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, t := range tags {
		msg := f.unacked[t]
		delete(f.unacked, t)
		if requeue {
			f.ready = append(f.ready, msg)
		}
	}
	return nil
}

type dlqEnqueue struct {
	queue mq.Queue
	env   *mq.Envelope
}

type fakeDLQDispatcher struct {
	calls []dlqEnqueue
	err   error
}

func (f *fakeDLQDispatcher) Enqueue(_ context.Context, queue mq.Queue, env *mq.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, dlqEnqueue{queue: queue, env: env})
	return nil
}

func deadMessage(t *testing.T, id string, origin mq.Queue) amqp.Delivery {
	t.Helper()
	env := &mq.Envelope{
		ID:         id,
		Task:       "send_notification_task",
		Args:       []any{"u1", "hi"},
		Retry:      3,
		MaxRetries: 3,
	}
	body, err := env.Encode()
	if err != nil {
		t.Fatalf("encode envelope: %v", err)
	}
	msg := amqp.Delivery{Body: body}
	if origin != "" {
		msg.Headers = amqp.Table{mq.HeaderOriginQueue: string(origin)}
	}
	return msg
}

// Цель не в голове очереди: несовпавшие сообщения придерживаются без
// ack, поэтому Get продвигается по очереди и проход завершается.
func TestRequeueDeadLetters_TargetBehindOtherMessages(t *testing.T) {
	ch := newFakeDLQChannel(
		deadMessage(t, "task-a", mq.QueueNotifications),
		deadMessage(t, "task-b", mq.QueueNotifications),
	)
	disp := &fakeDLQDispatcher{}

	requeued, err := requeueDeadLetters(context.Background(), ch, disp, "task-b", false)
	if err != nil {
		t.Fatalf("requeueDeadLetters: %v", err)
	}
	if requeued != 1 {
		t.Fatalf("requeued = %d, want 1", requeued)
	}

	if len(disp.calls) != 1 {
		t.Fatalf("enqueue calls = %d, want 1", len(disp.calls))
	}
	call := disp.calls[0]
	if call.env.ID != "task-b" {
		t.Errorf("enqueued task %q, want task-b", call.env.ID)
	}
	if call.queue != mq.QueueNotifications {
		t.Errorf("enqueued to %q, want %q", call.queue, mq.QueueNotifications)
	}
	if call.env.Retry != 0 {
		t.Errorf("retry = %d, want 0 (fresh budget)", call.env.Retry)
	}

	// Несовпавшее сообщение вернулось в очередь, ничего не зависло
	if len(ch.unacked) != 0 {
		t.Errorf("unacked deliveries left: %d", len(ch.unacked))
	}
	if len(ch.ready) != 1 {
		t.Fatalf("ready after pass = %d, want 1", len(ch.ready))
	}
	if env, err := mq.DecodeEnvelope(ch.ready[0].Body); err != nil || env.ID != "task-a" {
		t.Errorf("returned message = %v (%v), want task-a", env, err)
	}
}

// Отсутствующий ID: проход заканчивается на пустой очереди,
// всё просмотренное возвращается одним nack.
func TestRequeueDeadLetters_MissingIDTerminates(t *testing.T) {
	ch := newFakeDLQChannel(
		deadMessage(t, "task-a", mq.QueueNotifications),
		deadMessage(t, "task-b", mq.QueueNotifications),
	)
	disp := &fakeDLQDispatcher{}

	requeued, err := requeueDeadLetters(context.Background(), ch, disp, "no-such-task", false)
	if err != nil {
		t.Fatalf("requeueDeadLetters: %v", err)
	}
	if requeued != 0 {
		t.Fatalf("requeued = %d, want 0", requeued)
	}
	if len(disp.calls) != 0 {
		t.Errorf("enqueue calls = %d, want 0", len(disp.calls))
	}
	if len(ch.unacked) != 0 {
		t.Errorf("unacked deliveries left: %d", len(ch.unacked))
	}
	if len(ch.ready) != 2 {
		t.Errorf("ready after pass = %d, want 2", len(ch.ready))
	}
	// 2 сообщения + пустой Get: без придержки проход бы не завершился
	if ch.gets != 3 {
		t.Errorf("gets = %d, want 3", ch.gets)
	}
}

func TestRequeueDeadLetters_All(t *testing.T) {
	ch := newFakeDLQChannel(
		deadMessage(t, "task-a", mq.QueuePayments),
		deadMessage(t, "task-b", ""),
		amqp.Delivery{Body: []byte("not json")},
	)
	disp := &fakeDLQDispatcher{}

	requeued, err := requeueDeadLetters(context.Background(), ch, disp, "", true)
	if err != nil {
		t.Fatalf("requeueDeadLetters: %v", err)
	}
	if requeued != 2 {
		t.Fatalf("requeued = %d, want 2", requeued)
	}

	if disp.calls[0].queue != mq.QueuePayments {
		t.Errorf("task-a queue = %q, want %q", disp.calls[0].queue, mq.QueuePayments)
	}
	// Без заголовка происхождения возврат идёт в default
	if disp.calls[1].queue != mq.QueueDefault {
		t.Errorf("task-b queue = %q, want %q", disp.calls[1].queue, mq.QueueDefault)
	}

	// Повреждённое сообщение осталось в DLQ
	if len(ch.ready) != 1 {
		t.Fatalf("ready after pass = %d, want 1", len(ch.ready))
	}
	if string(ch.ready[0].Body) != "not json" {
		t.Errorf("kept message body = %q, want the malformed one", ch.ready[0].Body)
	}
	if len(ch.unacked) != 0 {
		t.Errorf("unacked deliveries left: %d", len(ch.unacked))
	}
}

// Ошибка публикации: текущее сообщение возвращается в очередь вместе
// с придержанными, ничего не теряется и не подтверждается.
func TestRequeueDeadLetters_PublishFailure(t *testing.T) {
	ch := newFakeDLQChannel(
		deadMessage(t, "task-a", mq.QueueNotifications),
		deadMessage(t, "task-b", mq.QueueNotifications),
	)
	disp := &fakeDLQDispatcher{err: errors.New("broker gone")}

	requeued, err := requeueDeadLetters(context.Background(), ch, disp, "task-b", false)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if requeued != 0 {
		t.Errorf("requeued = %d, want 0", requeued)
	}
	if len(ch.unacked) != 0 {
		t.Errorf("unacked deliveries left: %d", len(ch.unacked))
	}
	if len(ch.acked) != 0 {
		t.Errorf("acked = %v, want none", ch.acked)
	}
	if len(ch.ready) != 2 {
		t.Errorf("ready after failure = %d, want 2", len(ch.ready))
	}
}
