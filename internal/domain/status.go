package domain

// PaymentStatus — статус платежа.
//
// Жизненный цикл:
//
//	PENDING → COMPLETED
//	        ↘ FAILED
//
// Оба конечных статуса терминальны: обратных переходов нет.
type PaymentStatus string

const (
	// PaymentStatusPending — платёж создан, обработка ещё не началась.
	PaymentStatusPending PaymentStatus = "PENDING"

	// PaymentStatusCompleted — платёж успешно проведён.
	PaymentStatusCompleted PaymentStatus = "COMPLETED"

	// PaymentStatusFailed — обработка платежа завершилась ошибкой.
	PaymentStatusFailed PaymentStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// Valid возвращает true, если значение входит в закрытый набор статусов.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}
