package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

// Узкие контракты зависимостей воркера. Продакшен-реализации —
// репозитории на pgxpool и Dispatcher на AMQP; в тестах — фейки.

// PaymentStore — доступ к платежам.
type PaymentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	TransitionFromPending(ctx context.Context, id uuid.UUID, to domain.PaymentStatus, completedAt time.Time) (bool, error)
	CountByStatusSince(ctx context.Context, since time.Time) (map[domain.PaymentStatus]int64, error)
}

// NotificationStore — доступ к журналу уведомлений.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecordStore — доступ к операционным записям.
type RecordStore interface {
	Create(ctx context.Context, rec *domain.Record) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountByKindSince(ctx context.Context, since time.Time) (map[domain.RecordKind]int64, error)
}

// UserStore — lookup пользователей.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Dispatcher — публикация envelope: retry, dead-letter, fan-out события.
type Dispatcher interface {
	PublishRetry(ctx context.Context, origin mq.Queue, env *mq.Envelope, delay time.Duration) error
	PublishDead(ctx context.Context, origin mq.Queue, env *mq.Envelope, reason string) error
	PublishEvent(ctx context.Context, event *mq.NotificationEvent) error
}

// Settler — внешний платёжный шлюз. Механика расчётов вне scope —
// потребляется через этот узкий контракт. Ошибка Settle терминальна
// для платежа (FAILED), повторный прогон расчёта небезопасен.
type Settler interface {
	Settle(ctx context.Context, p *domain.Payment) error
}

// SettlerFunc адаптирует функцию к интерфейсу Settler.
type SettlerFunc func(ctx context.Context, p *domain.Payment) error

func (f SettlerFunc) Settle(ctx context.Context, p *domain.Payment) error { return f(ctx, p) }

// Mailer — внешний SMTP-транспорт (узкий контракт).
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Pinger — проверка живости БД для heartbeat check.
type Pinger interface {
	Ping(ctx context.Context) error
}
