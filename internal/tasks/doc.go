// Package tasks определяет закрытый реестр типов задач.
//
// Вместо динамической диспетчеризации по строке имени — запечатанный
// (sealed) набор вариантов Task, каждый со своей строго типизированной
// структурой аргументов. Имя задачи остаётся на проводе (wire-формат
// envelope), но разбирается ровно в одной точке — Decode, с
// исчерпывающим switch. Неизвестное имя — ErrUnknownTask: envelope
// отбрасывается с логированием, без retry.
package tasks
