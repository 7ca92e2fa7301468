package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// sweepNotifications — минутный дайджест: сколько уведомлений создано
// за окно. Пустое окно — no-op.
func (w *Worker) sweepNotifications(ctx context.Context) error {
	since := time.Now().UTC().Add(-w.sweepWindow)

	count, err := w.notifications.CountSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}

	if count == 0 {
		return nil
	}

	body := fmt.Sprintf("%d notification(s) delivered since %s", count, since.Format(time.RFC3339))
	if err := w.mailer.Send(ctx, w.adminEmail, "Notification digest", body); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	w.logger.Info("notification sweep completed", "count", count)
	return nil
}

// cleanupOldRecords удаляет записи старше cleanupAge и фиксирует итог.
func (w *Worker) cleanupOldRecords(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.cleanupAge)

	recordsDeleted, err := w.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old records: %w", err)
	}

	notificationsDeleted, err := w.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old notifications: %w", err)
	}

	summary := fmt.Sprintf("deleted %d records, %d notifications older than %s",
		recordsDeleted, notificationsDeleted, cutoff.Format(time.RFC3339))
	if err := w.records.Create(ctx, domain.NewRecord(domain.RecordKindCleanup, summary)); err != nil {
		return fmt.Errorf("create cleanup record: %w", err)
	}

	w.logger.Info("cleanup completed",
		"records_deleted", recordsDeleted,
		"notifications_deleted", notificationsDeleted,
	)
	return nil
}

// generateDailyReport строит суточную сводку по платежам и
// уведомлениям, фиксирует её записью и отправляет администратору.
func (w *Worker) generateDailyReport(ctx context.Context) error {
	since := time.Now().UTC().Add(-24 * time.Hour)

	paymentCounts, err := w.payments.CountByStatusSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count payments: %w", err)
	}

	notificationCount, err := w.notifications.CountSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}

	recordCounts, err := w.records.CountByKindSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}

	report := fmt.Sprintf(
		"payments: %d pending, %d completed, %d failed; notifications: %d; refunds: %d",
		paymentCounts[domain.PaymentStatusPending],
		paymentCounts[domain.PaymentStatusCompleted],
		paymentCounts[domain.PaymentStatusFailed],
		notificationCount,
		recordCounts[domain.RecordKindRefund],
	)

	if err := w.records.Create(ctx, domain.NewRecord(domain.RecordKindReport, report)); err != nil {
		return fmt.Errorf("create report record: %w", err)
	}

	// Письмо — best-effort: отчёт уже зафиксирован записью.
	if err := w.mailer.Send(ctx, w.adminEmail, "Daily report", report); err != nil {
		w.logger.Warn("failed to email daily report", "error", err)
	}

	w.logger.Info("daily report generated", "report", report)
	return nil
}

// heartbeatCheck проверяет БД и брокер, выставляет gauge здоровья.
// Сбой фиксируется операционной записью.
func (w *Worker) heartbeatCheck(ctx context.Context) error {
	var problems []string

	if w.db != nil {
		if err := w.db.Ping(ctx); err != nil {
			problems = append(problems, fmt.Sprintf("db: %v", err))
		}
	}

	if w.conn != nil && !w.conn.IsConnected() {
		problems = append(problems, "broker: not connected")
	}

	if len(problems) == 0 {
		telemetry.SystemHealthy.Set(1)
		w.logger.Info("heartbeat check passed")
		return nil
	}

	telemetry.SystemHealthy.Set(0)
	w.logger.Warn("heartbeat check failed", "problems", problems)

	detail := fmt.Sprintf("unhealthy: %v", problems)
	if err := w.records.Create(ctx, domain.NewRecord(domain.RecordKindHeartbeat, detail)); err != nil {
		return fmt.Errorf("create heartbeat record: %w", err)
	}
	return nil
}
