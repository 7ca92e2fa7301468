package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/tasks"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Dispatcher — публикация задач в брокер.
type Dispatcher interface {
	Enqueue(ctx context.Context, queue mq.Queue, env *mq.Envelope) error
}

// Scheduler — планировщик, ставящий служебные задачи по расписанию.
type Scheduler struct {
	entries []entryState
	disp    Dispatcher
	logger  *slog.Logger
}

// entryState — запись расписания со следующим временем срабатывания.
type entryState struct {
	Entry
	nextDue time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Dispatcher Dispatcher
	Logger     *slog.Logger
	Entries    []Entry // nil → Entries()
}

// New создаёт Scheduler и валидирует cron-выражения записей.
// Первое срабатывание каждой записи считается от текущего момента.
func New(cfg Config) (*Scheduler, error) {
	entries := cfg.Entries
	if entries == nil {
		entries = Entries()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := time.Now()
	states := make([]entryState, 0, len(entries))
	for _, e := range entries {
		next, err := nextAfter(e.Cron, now)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %q: %w", e.Name, err)
		}
		states = append(states, entryState{Entry: e, nextDue: next})
	}

	return &Scheduler{
		entries: states,
		disp:    cfg.Dispatcher,
		logger:  logger,
	}, nil
}

// Tick выполняет один тик планировщика.
//
// Для каждой записи с истекшим nextDue ставится ровно одна задача,
// после чего следующее срабатывание считается от now — пропущенные
// за время простоя срабатывания не навёрстываются.
//
// Ошибка публикации одной записи не блокирует остальные; nextDue
// при этом не сдвигается, запись повторит попытку на следующем тике.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	var fired int
	for i := range s.entries {
		e := &s.entries[i]
		if now.Before(e.nextDue) {
			continue
		}

		env := tasks.Encode(e.Task)
		queue, ok := tasks.QueueFor(e.Task.Kind())
		if !ok {
			s.logger.Error("schedule entry has no queue", "entry", e.Name)
			continue
		}

		if err := s.disp.Enqueue(ctx, queue, env); err != nil {
			s.logger.Error("failed to enqueue scheduled task",
				"entry", e.Name,
				"error", err,
			)
			continue
		}

		next, err := nextAfter(e.Cron, now)
		if err != nil {
			// Выражение валидировалось в New, сюда попасть нельзя.
			s.logger.Error("failed to calculate next due", "entry", e.Name, "error", err)
			continue
		}
		e.nextDue = next

		telemetry.SchedulerFires.WithLabelValues(e.Name).Inc()
		s.logger.Info("scheduled task enqueued",
			"entry", e.Name,
			"task_id", env.ID,
			"next_due", next,
		)
		fired++
	}

	if fired > 0 {
		s.logger.Debug("scheduler tick completed", "fired", fired)
	}
}

// Run крутит тики раз в минуту до отмены контекста.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "entries", len(s.entries))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}
