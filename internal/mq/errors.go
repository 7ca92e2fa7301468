package mq

import "errors"

// Ошибки брокерного слоя.
var (
	// ErrBrokerUnavailable — соединение с брокером недоступно или публикация
	// не принята. Возвращается вызывающему Dispatcher.Enqueue: триггеры,
	// которым нужен side effect (инициация платежа), обязаны трактовать
	// это как hard failure запроса.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrTopologyConflict — exchange/queue уже объявлены с другими
	// параметрами. Фатальная ошибка старта.
	ErrTopologyConflict = errors.New("topology conflict")

	// ErrMalformedEnvelope — тело сообщения не соответствует wire-формату
	// envelope. Сообщение уходит в DLQ без retry.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
