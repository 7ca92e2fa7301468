package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// PaymentRepo — репозиторий платежей.
type PaymentRepo struct {
	pool *pgxpool.Pool
}

// NewPaymentRepo создаёт новый PaymentRepo.
func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create создаёт платёж.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, amount, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.Amount,
		p.Status,
		p.CreatedAt,
		p.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID возвращает платёж по ID.
func (r *PaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, amount, status, created_at, completed_at
		FROM payments
		WHERE id = $1
	`
	var p domain.Payment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.Status,
		&p.CreatedAt,
		&p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// TransitionFromPending применяет переход PENDING → terminal условным
// UPDATE. Это точка сериализации конкурентных доставок одного
// process_payment_task: из двух воркеров переход применит ровно один,
// второй получит applied=false и выйдет идемпотентно.
func (r *PaymentRepo) TransitionFromPending(ctx context.Context, id uuid.UUID, to domain.PaymentStatus, completedAt time.Time) (bool, error) {
	if !to.IsTerminal() {
		return false, fmt.Errorf("transition target %q is not terminal", to)
	}

	query := `
		UPDATE payments
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = 'PENDING'
	`
	result, err := r.pool.Exec(ctx, query, id, to, completedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("transition payment: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// CountByStatusSince возвращает количество платежей по статусам,
// созданных начиная с указанного времени. Используется ежедневным отчётом.
func (r *PaymentRepo) CountByStatusSince(ctx context.Context, since time.Time) (map[domain.PaymentStatus]int64, error) {
	query := `
		SELECT status, count(*)
		FROM payments
		WHERE created_at >= $1
		GROUP BY status
	`
	rows, err := r.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PaymentStatus]int64)
	for rows.Next() {
		var status domain.PaymentStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan payment count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
