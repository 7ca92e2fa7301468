package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// NotificationRepo — репозиторий уведомлений (append-only журнал).
type NotificationRepo struct {
	pool *pgxpool.Pool
}

// NewNotificationRepo создаёт новый NotificationRepo.
func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create создаёт запись уведомления. Записи не обновляются и не
// удаляются обработчиками — только периодической чисткой.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message, sent_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, n.ID, n.UserID, n.Message, n.SentAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// CountSince возвращает количество уведомлений, созданных начиная
// с указанного времени. Используется минутным sweep и ежедневным отчётом.
func (r *NotificationRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT count(*) FROM notifications WHERE sent_at >= $1`

	var n int64
	if err := r.pool.QueryRow(ctx, query, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// DeleteOlderThan удаляет уведомления старше cutoff.
// Возвращает количество удалённых строк.
func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE sent_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return result.RowsAffected(), nil
}
