package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultTTL — срок хранения результата задачи.
const resultTTL = time.Hour

// resultKeyPrefix — префикс ключей результатов в Redis.
const resultKeyPrefix = "conveyor:result:"

// TaskResult — итог выполнения задачи.
//
// Триггер-эндпоинты возвращают task id сразу, не дожидаясь выполнения;
// результат доступен по этому id в течение часа (conveyor-cli result).
type TaskResult struct {
	TaskID     string    `json:"task_id"`
	Task       string    `json:"task"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
	Retry      int       `json:"retry"`
	FinishedAt time.Time `json:"finished_at"`
}

// ResultStore — backend результатов задач.
type ResultStore interface {
	Store(ctx context.Context, res *TaskResult) error
}

// RedisResults хранит результаты задач в Redis с TTL.
type RedisResults struct {
	rdb *redis.Client
}

// NewRedisResults создаёт backend результатов на go-redis клиенте.
func NewRedisResults(rdb *redis.Client) *RedisResults {
	return &RedisResults{rdb: rdb}
}

// Store сохраняет результат под ключом conveyor:result:<task_id>.
func (r *RedisResults) Store(ctx context.Context, res *TaskResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := r.rdb.Set(ctx, resultKeyPrefix+res.TaskID, body, resultTTL).Err(); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// Get возвращает результат по task id. Используется CLI.
func (r *RedisResults) Get(ctx context.Context, taskID string) (*TaskResult, error) {
	body, err := r.rdb.Get(ctx, resultKeyPrefix+taskID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("result not found (expired or task still running)")
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	var res TaskResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, nil
}
