package scheduler

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Conveyor/internal/tasks"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Entry — одна запись расписания: имя, каденс и порождаемая задача.
type Entry struct {
	Name string
	Cron string
	Task tasks.Task
}

// defaultEntries — встроенное расписание служебных задач.
var defaultEntries = []Entry{
	{Name: "sweep_notifications", Cron: "* * * * *", Task: tasks.SweepNotifications{}},
	{Name: "cleanup_old_records", Cron: "0 * * * *", Task: tasks.CleanupOldRecords{}},
	{Name: "generate_daily_report", Cron: "0 0 * * *", Task: tasks.GenerateDailyReport{}},
	{Name: "heartbeat_check", Cron: "*/5 * * * *", Task: tasks.HeartbeatCheck{}},
}

// Entries возвращает расписание с учётом переопределений из окружения.
// Каденс записи sweep_notifications переопределяется переменной
// SCHEDULE_SWEEP_NOTIFICATIONS_CRON и так далее.
func Entries() []Entry {
	entries := make([]Entry, len(defaultEntries))
	copy(entries, defaultEntries)

	for i := range entries {
		envKey := "SCHEDULE_" + strings.ToUpper(entries[i].Name) + "_CRON"
		if expr := os.Getenv(envKey); expr != "" {
			entries[i].Cron = expr
		}
	}
	return entries
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// nextAfter вычисляет следующее срабатывание строго после from.
func nextAfter(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from).UTC(), nil
}
