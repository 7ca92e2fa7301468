package tasks

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/mq"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	userID := uuid.New()
	paymentID := uuid.New()

	cases := []struct {
		name string
		task Task
	}{
		{"process_payment", ProcessPayment{PaymentID: paymentID}},
		{"refund_payment", RefundPayment{PaymentID: paymentID, Amount: 42.5}},
		{"send_notification", SendNotification{UserID: userID, Message: "hello"}},
		{"send_email", SendEmail{Email: "a@b.c", Subject: "s", Body: "b"}},
		{"sweep", SweepNotifications{}},
		{"cleanup", CleanupOldRecords{}},
		{"report", GenerateDailyReport{}},
		{"heartbeat", HeartbeatCheck{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Encode(tc.task)
			if env.Task != string(tc.task.Kind()) {
				t.Errorf("envelope task %q != kind %q", env.Task, tc.task.Kind())
			}

			// Через wire-формат: как увидит задачу consumer
			body, err := env.Encode()
			if err != nil {
				t.Fatalf("encode envelope: %v", err)
			}
			decoded, err := mq.DecodeEnvelope(body)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}

			got, err := Decode(decoded)
			if err != nil {
				t.Fatalf("decode task: %v", err)
			}
			if got != tc.task {
				t.Errorf("round trip mismatch: got %#v, want %#v", got, tc.task)
			}
		})
	}
}

func TestDecode_UnknownTask(t *testing.T) {
	env := mq.NewEnvelope("no_such_task", nil)

	_, err := Decode(env)
	if !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestDecode_MalformedArgs(t *testing.T) {
	cases := []struct {
		name string
		env  *mq.Envelope
	}{
		{"payment missing id", mq.NewEnvelope(string(KindProcessPayment), nil)},
		{"payment bad uuid", mq.NewEnvelope(string(KindProcessPayment), []any{"not-a-uuid"})},
		{"payment id wrong type", mq.NewEnvelope(string(KindProcessPayment), []any{42})},
		{"refund missing amount", mq.NewEnvelope(string(KindRefundPayment), []any{uuid.NewString()})},
		{"refund amount wrong type", mq.NewEnvelope(string(KindRefundPayment), []any{uuid.NewString(), "a lot"})},
		{"notification missing message", mq.NewEnvelope(string(KindSendNotification), []any{uuid.NewString()})},
		{"email missing body", mq.NewEnvelope(string(KindSendEmail), []any{"a@b.c", "subject"})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.env)
			if !errors.Is(err, mq.ErrMalformedEnvelope) {
				t.Errorf("expected ErrMalformedEnvelope, got %v", err)
			}
		})
	}
}

func TestDecode_RefundAmountAsInt(t *testing.T) {
	// Чужой продюсер может прислать целое число
	env := mq.NewEnvelope(string(KindRefundPayment), []any{uuid.NewString(), 100})

	task, err := Decode(env)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	refund, ok := task.(RefundPayment)
	if !ok {
		t.Fatalf("expected RefundPayment, got %T", task)
	}
	if refund.Amount != 100 {
		t.Errorf("expected amount 100, got %v", refund.Amount)
	}
}

func TestQueueFor_EveryKindHasAQueue(t *testing.T) {
	kinds := []Kind{
		KindProcessPayment, KindRefundPayment,
		KindSendNotification,
		KindSendEmail, KindSweepNotifications, KindCleanupOldRecords,
		KindGenerateDailyReport, KindHeartbeatCheck,
	}

	for _, k := range kinds {
		queue, ok := QueueFor(k)
		if !ok {
			t.Errorf("kind %s has no queue", k)
			continue
		}
		// Очередь должна быть рабочей: иначе задачу никто не заберёт
		var isWork bool
		for _, wq := range mq.WorkQueues {
			if wq == queue {
				isWork = true
			}
		}
		if !isWork {
			t.Errorf("kind %s routed to non-work queue %s", k, queue)
		}
	}
}

func TestQueueFor_PaymentKindsShareQueue(t *testing.T) {
	// Платёжные задачи сериализуются одной очередью
	q1, _ := QueueFor(KindProcessPayment)
	q2, _ := QueueFor(KindRefundPayment)
	if q1 != mq.QueuePayments || q2 != mq.QueuePayments {
		t.Errorf("payment kinds must share %s, got %s and %s", mq.QueuePayments, q1, q2)
	}
}

func TestQueueFor_Unknown(t *testing.T) {
	if _, ok := QueueFor("mystery"); ok {
		t.Error("unknown kind must have no queue")
	}
}
