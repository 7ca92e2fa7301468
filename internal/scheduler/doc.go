// Package scheduler реализует периодическую постановку служебных задач.
//
// Расписание статическое: таблица записей с cron-каденсами, каденс
// каждой записи можно переопределить переменной окружения
// SCHEDULE_<NAME>_CRON.
//
// Структура:
//   - schedule.go  — таблица записей и парсинг cron-выражений
//   - scheduler.go — основная логика Scheduler (Tick)
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Dispatcher: dispatcher,
//	    Logger:     logger,
//	})
//
//	// Вызывается каждый тик (раз в минуту)
//	sched.Tick(ctx, time.Now())
//
// Семантика пропусков: следующее время срабатывания всегда считается
// от текущего момента. Если процесс был остановлен и пропустил
// несколько срабатываний, они не навёрстываются — запись просто
// сработает в следующий подходящий момент.
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// Это делается в main.go через pg_try_advisory_lock.
// Метод Tick() вызывается только лидером.
package scheduler
