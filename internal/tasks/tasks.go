package tasks

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/mq"
)

// ErrUnknownTask — envelope называет задачу, которой нет в реестре.
// Не ретраится: сообщение отбрасывается с логированием.
var ErrUnknownTask = errors.New("unknown task")

// Kind — имя типа задачи на проводе.
type Kind string

// Закрытый набор типов задач.
const (
	KindProcessPayment      Kind = "process_payment_task"
	KindRefundPayment       Kind = "refund_payment"
	KindSendNotification    Kind = "send_notification_task"
	KindSendEmail           Kind = "send_email_task"
	KindSweepNotifications  Kind = "sweep_notifications"
	KindCleanupOldRecords   Kind = "cleanup_old_records"
	KindGenerateDailyReport Kind = "generate_daily_report"
	KindHeartbeatCheck      Kind = "heartbeat_check"
)

// Task — один из закрытого набора вариантов задачи.
// Неэкспортируемый метод args запечатывает интерфейс внутри пакета.
type Task interface {
	Kind() Kind
	args() []any
}

// ProcessPayment — обработка платежа (payment_queue).
type ProcessPayment struct {
	PaymentID uuid.UUID
}

func (t ProcessPayment) Kind() Kind  { return KindProcessPayment }
func (t ProcessPayment) args() []any { return []any{t.PaymentID.String()} }

// RefundPayment — возврат платежа (payment_queue).
// Не мутирует Payment.status: фиксирует refund-запись для биллинга.
type RefundPayment struct {
	PaymentID uuid.UUID
	Amount    float64
}

func (t RefundPayment) Kind() Kind  { return KindRefundPayment }
func (t RefundPayment) args() []any { return []any{t.PaymentID.String(), t.Amount} }

// SendNotification — доставка уведомления (notification_queue, fanout).
type SendNotification struct {
	UserID  uuid.UUID
	Message string
}

func (t SendNotification) Kind() Kind  { return KindSendNotification }
func (t SendNotification) args() []any { return []any{t.UserID.String(), t.Message} }

// SendEmail — отправка письма через внешний Mailer (default).
type SendEmail struct {
	Email   string
	Subject string
	Body    string
}

func (t SendEmail) Kind() Kind  { return KindSendEmail }
func (t SendEmail) args() []any { return []any{t.Email, t.Subject, t.Body} }

// SweepNotifications — минутный дайджест уведомлений (default).
type SweepNotifications struct{}

func (t SweepNotifications) Kind() Kind  { return KindSweepNotifications }
func (t SweepNotifications) args() []any { return nil }

// CleanupOldRecords — чистка старых записей (default).
type CleanupOldRecords struct{}

func (t CleanupOldRecords) Kind() Kind  { return KindCleanupOldRecords }
func (t CleanupOldRecords) args() []any { return nil }

// GenerateDailyReport — ежедневный отчёт (default).
type GenerateDailyReport struct{}

func (t GenerateDailyReport) Kind() Kind  { return KindGenerateDailyReport }
func (t GenerateDailyReport) args() []any { return nil }

// HeartbeatCheck — проверка здоровья системы (default).
type HeartbeatCheck struct{}

func (t HeartbeatCheck) Kind() Kind  { return KindHeartbeatCheck }
func (t HeartbeatCheck) args() []any { return nil }

// Encode упаковывает задачу в envelope первой попытки.
func Encode(t Task) *mq.Envelope {
	return mq.NewEnvelope(string(t.Kind()), t.args())
}

// QueueFor возвращает очередь, владеющую данным типом задачи.
// Исчерпывающий switch по закрытому набору.
func QueueFor(k Kind) (mq.Queue, bool) {
	switch k {
	case KindProcessPayment, KindRefundPayment:
		return mq.QueuePayments, true
	case KindSendNotification:
		return mq.QueueNotifications, true
	case KindSendEmail, KindSweepNotifications, KindCleanupOldRecords,
		KindGenerateDailyReport, KindHeartbeatCheck:
		return mq.QueueDefault, true
	default:
		return "", false
	}
}

// Decode разбирает envelope в типизированную задачу.
//
// Ошибки:
//   - ErrUnknownTask — имя вне реестра (drop, без retry)
//   - mq.ErrMalformedEnvelope — аргументы не соответствуют сигнатуре
//     (dead-letter, без retry)
func Decode(env *mq.Envelope) (Task, error) {
	switch Kind(env.Task) {
	case KindProcessPayment:
		id, err := argUUID(env, 0)
		if err != nil {
			return nil, err
		}
		return ProcessPayment{PaymentID: id}, nil

	case KindRefundPayment:
		id, err := argUUID(env, 0)
		if err != nil {
			return nil, err
		}
		amount, err := argFloat(env, 1)
		if err != nil {
			return nil, err
		}
		return RefundPayment{PaymentID: id, Amount: amount}, nil

	case KindSendNotification:
		id, err := argUUID(env, 0)
		if err != nil {
			return nil, err
		}
		msg, err := argString(env, 1)
		if err != nil {
			return nil, err
		}
		return SendNotification{UserID: id, Message: msg}, nil

	case KindSendEmail:
		email, err := argString(env, 0)
		if err != nil {
			return nil, err
		}
		subject, err := argString(env, 1)
		if err != nil {
			return nil, err
		}
		body, err := argString(env, 2)
		if err != nil {
			return nil, err
		}
		return SendEmail{Email: email, Subject: subject, Body: body}, nil

	case KindSweepNotifications:
		return SweepNotifications{}, nil

	case KindCleanupOldRecords:
		return CleanupOldRecords{}, nil

	case KindGenerateDailyReport:
		return GenerateDailyReport{}, nil

	case KindHeartbeatCheck:
		return HeartbeatCheck{}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, env.Task)
	}
}

// --- разбор позиционных аргументов ---

func argAt(env *mq.Envelope, i int) (any, error) {
	if i >= len(env.Args) {
		return nil, fmt.Errorf("%w: task %s: missing argument %d", mq.ErrMalformedEnvelope, env.Task, i)
	}
	return env.Args[i], nil
}

func argString(env *mq.Envelope, i int) (string, error) {
	v, err := argAt(env, i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: task %s: argument %d is not a string", mq.ErrMalformedEnvelope, env.Task, i)
	}
	return s, nil
}

func argUUID(env *mq.Envelope, i int) (uuid.UUID, error) {
	s, err := argString(env, i)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: task %s: argument %d is not a uuid: %v", mq.ErrMalformedEnvelope, env.Task, i, err)
	}
	return id, nil
}

func argFloat(env *mq.Envelope, i int) (float64, error) {
	v, err := argAt(env, i)
	if err != nil {
		return 0, err
	}
	// JSON-числа декодируются как float64; целые из других продюсеров
	// могут прийти как int.
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: task %s: argument %d is not a number", mq.ErrMalformedEnvelope, env.Task, i)
	}
}
