package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification — запись о доставленном уведомлении.
//
// Создаётся целиком обработчиком send_notification_task и после этого
// не изменяется (append-only журнал). Персистентная строка — источник
// истины; fan-out событие для downstream-потребителей — best-effort.
type Notification struct {
	// ID — уникальный идентификатор уведомления.
	ID uuid.UUID `json:"id"`

	// UserID — получатель.
	UserID uuid.UUID `json:"user_id"`

	// Message — текст уведомления.
	Message string `json:"message"`

	// SentAt — время создания записи.
	SentAt time.Time `json:"sent_at"`
}

// NewNotification создаёт запись уведомления.
func NewNotification(userID uuid.UUID, message string) *Notification {
	return &Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Message: message,
		SentAt:  time.Now().UTC(),
	}
}
