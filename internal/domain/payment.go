package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ошибки доменной модели платежа.
var (
	// ErrInvalidAmount — сумма платежа должна быть строго положительной.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrAlreadyTerminal — платёж уже в терминальном статусе,
	// повторный переход невозможен.
	ErrAlreadyTerminal = errors.New("payment already in terminal status")
)

// Payment — платёж пользователя.
//
// Создаётся на стороне триггера (CLI / API-слой), мутируется ТОЛЬКО
// воркером, исполняющим process_payment_task для данного payment id.
// Переход статуса сериализуется условным UPDATE в репозитории:
// два конкурентных воркера не могут применить переход дважды.
type Payment struct {
	// ID — уникальный идентификатор платежа.
	ID uuid.UUID `json:"id"`

	// UserID — владелец платежа.
	UserID uuid.UUID `json:"user_id"`

	// Amount — сумма, строго > 0.
	Amount float64 `json:"amount"`

	// Status — текущий статус платежа.
	Status PaymentStatus `json:"status"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt — время перехода в терминальный статус.
	// Заполнен тогда и только тогда, когда Status терминальный.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewPayment создаёт платёж в статусе PENDING.
func NewPayment(userID uuid.UUID, amount float64) (*Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsTerminal возвращает true, если платёж обработан.
func (p *Payment) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// MarkCompleted переводит платёж в COMPLETED.
// Возвращает ErrAlreadyTerminal, если переход уже был применён.
func (p *Payment) MarkCompleted(now time.Time) error {
	return p.transition(PaymentStatusCompleted, now)
}

// MarkFailed переводит платёж в FAILED.
// Возвращает ErrAlreadyTerminal, если переход уже был применён.
func (p *Payment) MarkFailed(now time.Time) error {
	return p.transition(PaymentStatusFailed, now)
}

// transition применяет единственно допустимый переход PENDING → terminal.
func (p *Payment) transition(to PaymentStatus, now time.Time) error {
	if p.Status.IsTerminal() {
		return ErrAlreadyTerminal
	}
	t := now.UTC()
	p.Status = to
	p.CompletedAt = &t
	return nil
}
