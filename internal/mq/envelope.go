package mq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries — количество retry по умолчанию для transient-ошибок.
const DefaultMaxRetries = 3

// Envelope — каноническая сериализованная единица работы.
//
// Wire-формат: JSON-объект {task, args, kwargs, retry} плюс служебные
// поля id, max_retries, enqueued_at. Envelope неизменяем после
// публикации: retry порождает НОВЫЙ envelope с retry+1 и тем же
// task/payload (см. WithRetry).
type Envelope struct {
	// ID — идентификатор задачи. Сохраняется при retry: по нему
	// ключуются результаты и дедупликация.
	ID string `json:"id"`

	// Task — имя задачи из закрытого реестра.
	Task string `json:"task"`

	// Args — позиционные аргументы.
	Args []any `json:"args"`

	// Kwargs — именованные аргументы.
	Kwargs map[string]any `json:"kwargs,omitempty"`

	// Retry — номер попытки, начиная с 0.
	Retry int `json:"retry"`

	// MaxRetries — предел retry для transient-ошибок.
	MaxRetries int `json:"max_retries"`

	// EnqueuedAt — время первичной публикации.
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewEnvelope создаёт envelope первой попытки.
func NewEnvelope(task string, args []any) *Envelope {
	return &Envelope{
		ID:         uuid.New().String(),
		Task:       task,
		Args:       args,
		Retry:      0,
		MaxRetries: DefaultMaxRetries,
		EnqueuedAt: time.Now().UTC(),
	}
}

// WithRetry возвращает копию envelope для следующей попытки:
// retry+1, тот же id и payload.
func (e *Envelope) WithRetry() *Envelope {
	next := *e
	next.Retry = e.Retry + 1
	return &next
}

// Exhausted возвращает true, если retry исчерпаны и envelope
// подлежит dead-letter'у.
func (e *Envelope) Exhausted() bool {
	return e.Retry >= e.MaxRetries
}

// Encode сериализует envelope в wire-формат.
func (e *Envelope) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return body, nil
}

// DecodeEnvelope разбирает тело сообщения.
// Любое отклонение от wire-формата — ErrMalformedEnvelope:
// такой payload не должен ронять worker loop, он уходит в DLQ.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Task == "" {
		return nil, fmt.Errorf("%w: empty task name", ErrMalformedEnvelope)
	}
	if env.Retry < 0 {
		return nil, fmt.Errorf("%w: negative retry count", ErrMalformedEnvelope)
	}
	if env.ID == "" {
		// Чужие продюсеры могут не проставлять id — генерируем,
		// чтобы результат и дедупликация имели ключ.
		env.ID = uuid.New().String()
	}
	if env.MaxRetries <= 0 {
		env.MaxRetries = DefaultMaxRetries
	}
	return &env, nil
}
