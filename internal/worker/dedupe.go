package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV — минимальный key-value интерфейс для дедупликации,
// удобен для инъекции фейка в тестах.
type KV interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// RedisKV адаптирует go-redis клиент к интерфейсу KV.
type RedisKV struct {
	R *redis.Client
}

func (r RedisKV) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return r.R.SetNX(ctx, key, value, ttl).Result()
}

// dedupeTTL — окно дедупликации повторных доставок.
const dedupeTTL = time.Hour

// Guard — дедупликация повторных доставок одного envelope.
//
// Ключ включает номер попытки: retry-копия — легитимная повторная
// обработка, подавляется только повторная доставка той же попытки
// (redelivery после падения между обработкой и ack).
type Guard struct {
	kv KV
}

// NewGuard создаёт дедупликатор поверх KV.
func NewGuard(kv KV) *Guard {
	return &Guard{kv: kv}
}

// First возвращает true, если данная попытка envelope видится впервые.
//
// Ключ захватывается ДО выполнения обработчика: падение воркера между
// захватом и завершением обработки теряет эту попытку на окно
// dedupeTTL. Для уведомлений и писем это осознанный размен
// at-least-once на at-most-once в пределах одной попытки; retry-копия
// имеет другой ключ и пройдёт.
func (g *Guard) First(ctx context.Context, taskID string, retry int) (bool, error) {
	key := fmt.Sprintf("conveyor:dedupe:%s:%d", taskID, retry)
	return g.kv.SetNX(ctx, key, "1", dedupeTTL)
}
