// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI — операторская утилита: ставит задачи в очереди, читает
// результаты из Redis и разбирает dead letter queue. В отличие от
// worker и scheduler подключается к инфраструктуре лениво — только
// к тому, что нужно конкретной команде.
//
// # Ключевые компоненты
//
// ## Deps
//
// Ленивые подключения к PostgreSQL, RabbitMQ и Redis. Команда
// schedule list не трогает ни одно из них, enqueue pay — все, кроме
// Redis.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conveyor-cli result ID --json | jq .
//
// ## Commands
//
//   - enqueue: pay, refund, notify, email
//   - result: показать итог задачи по task id
//   - dlq: list, requeue
//   - schedule: list
//   - topology: показать схему обменников и очередей
//
// Каждая группа создаётся через фабричную функцию (NewEnqueueCmd
// и т.д.), принимающую depsFn и outputFn — замыкания для ленивого
// создания Deps и Output после парсинга PersistentFlags.
package cli
