package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Conveyor/internal/domain"
)

// RecordRepo — репозиторий операционных записей.
type RecordRepo struct {
	pool *pgxpool.Pool
}

// NewRecordRepo создаёт новый RecordRepo.
func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

// Create создаёт операционную запись.
func (r *RecordRepo) Create(ctx context.Context, rec *domain.Record) error {
	query := `
		INSERT INTO records (id, kind, data, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query, rec.ID, rec.Kind, rec.Data, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// DeleteOlderThan удаляет записи старше cutoff.
// Возвращает количество удалённых строк.
func (r *RecordRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM records WHERE created_at < $1`

	result, err := r.pool.Exec(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old records: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountByKindSince возвращает количество записей по типам,
// созданных начиная с указанного времени.
func (r *RecordRepo) CountByKindSince(ctx context.Context, since time.Time) (map[domain.RecordKind]int64, error) {
	query := `
		SELECT kind, count(*)
		FROM records
		WHERE created_at >= $1
		GROUP BY kind
	`
	rows, err := r.pool.Query(ctx, query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.RecordKind]int64)
	for rows.Next() {
		var kind domain.RecordKind
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan record count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
