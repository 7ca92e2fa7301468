package domain

import (
	"time"

	"github.com/google/uuid"
)

// User — пользователь системы.
//
// Управление пользователями (регистрация, аутентификация) — зона
// API-слоя; здесь пользователь нужен только для lookup в обработчиках
// уведомлений и как владелец платежей.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
