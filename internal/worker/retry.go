package worker

import "time"

// Параметры exponential backoff для transient-ошибок.
const (
	backoffBase = time.Second
	backoffMax  = 30 * time.Second
)

// Backoff вычисляет задержку перед попыткой с данным номером retry
// (1 — первый retry): base * 2^(retry-1), с потолком backoffMax.
func Backoff(retry int) time.Duration {
	if retry < 1 {
		return backoffBase
	}

	delay := backoffBase
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= backoffMax {
			return backoffMax
		}
	}
	if delay > backoffMax {
		return backoffMax
	}
	return delay
}
