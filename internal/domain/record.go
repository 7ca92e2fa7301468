package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind — тип операционной записи.
type RecordKind string

const (
	// RecordKindRefund — запись о возврате платежа для биллинга.
	RecordKindRefund RecordKind = "refund"

	// RecordKindCleanup — итог периодической чистки старых записей.
	RecordKindCleanup RecordKind = "cleanup"

	// RecordKindReport — сгенерированный ежедневный отчёт.
	RecordKindReport RecordKind = "report"

	// RecordKindHeartbeat — зафиксированный сбой heartbeat check.
	RecordKindHeartbeat RecordKind = "heartbeat"
)

// Record — операционная запись в журнале системы.
//
// Используется maintenance-задачами и refund_payment: возвраты не мутируют
// Payment.status, а фиксируются здесь для сверки биллинг-подсистемой.
type Record struct {
	// ID — уникальный идентификатор записи.
	ID uuid.UUID `json:"id"`

	// Kind — тип записи.
	Kind RecordKind `json:"kind"`

	// Data — содержимое записи (свободный текст / JSON).
	Data string `json:"data,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// NewRecord создаёт операционную запись.
func NewRecord(kind RecordKind, data string) *Record {
	return &Record{
		ID:        uuid.New(),
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}
