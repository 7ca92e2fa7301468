package worker

import "errors"

// Ошибки обработчиков. Permanent-ошибки не ретраятся.
var (
	// ErrUserNotFound — получатель уведомления не существует.
	// Permanent: запись не создаётся, retry нет.
	ErrUserNotFound = errors.New("user not found")

	// ErrPaymentNotFound — платёж не найден в БД.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrPaymentNotRefundable — возврат возможен только для
	// платежа в статусе COMPLETED.
	ErrPaymentNotRefundable = errors.New("payment is not refundable")
)
