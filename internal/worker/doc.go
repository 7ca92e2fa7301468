// Package worker реализует пул потребителей задач.
//
// Worker — stateless компонент, который:
//   - Поднимает N конкурентных consumer'ов на каждую рабочую очередь
//   - Разбирает envelope в типизированную задачу (реестр tasks)
//   - Выполняет обработчик и классифицирует исход:
//     success / permanent / transient / unknown / malformed
//   - transient-ошибки ретраит с exponential backoff через
//     holding-очередь, после max_retries — dead-letter
//   - Складывает результат каждой задачи в Redis (TTL 1 час)
//
// Доставка at-least-once: обработчики обязаны быть идемпотентными.
// Платёжный обработчик проверяет текущий статус перед переходом;
// неидемпотентные по природе обработчики прикрыты дедупликацией
// по id envelope (Redis SetNX).
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одних очередей.
package worker
