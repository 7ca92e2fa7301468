package worker

import (
	"context"
	"log/slog"
)

// LogMailer пишет письма в лог вместо отправки. Используется как
// значение по умолчанию, когда SMTP не настроен.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Logger.Info("email sent",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
