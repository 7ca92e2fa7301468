package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/tasks"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// sendNotification — персистентная запись уведомления + fan-out событие.
//
// Два независимых side effect'а:
//  1. строка Notification (источник истины) — ошибка здесь transient,
//     задача ретраится, событие не публикуется;
//  2. fan-out событие для downstream — best-effort: ошибка публикации
//     ПОСЛЕ коммита строки не отменяет успех задачи.
func (w *Worker) sendNotification(ctx context.Context, t tasks.SendNotification) error {
	user, err := w.users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Permanent: запись не создаётся, retry нет.
			return fmt.Errorf("%w: %s", ErrUserNotFound, t.UserID)
		}
		return fmt.Errorf("load user: %w", err)
	}

	n := domain.NewNotification(user.ID, t.Message)
	if err := w.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	event := &mq.NotificationEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Message:        n.Message,
		SentAt:         n.SentAt,
	}
	if err := w.dispatcher.PublishEvent(ctx, event); err != nil {
		// Строка уже закоммичена — событие best-effort.
		telemetry.PublishFailures.Inc()
		w.logger.Warn("failed to publish notification event",
			"notification_id", n.ID,
			"user_id", n.UserID,
			"error", err,
		)
	}

	w.logger.Info("notification sent",
		"notification_id", n.ID,
		"user_id", n.UserID,
	)
	return nil
}

// sendEmail — отправка письма через внешний Mailer.
// Ошибка транспорта transient: письмо ретраится.
func (w *Worker) sendEmail(ctx context.Context, t tasks.SendEmail) error {
	if err := w.mailer.Send(ctx, t.Email, t.Subject, t.Body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	w.logger.Info("email sent", "to", t.Email, "subject", t.Subject)
	return nil
}
