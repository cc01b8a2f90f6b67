// Package clock абстрагирует время, чтобы планировщик и задачи можно было
// тестировать детерминированно. В продакшене используется Real(), в тестах Fake().
package clock

import "time"

// Clock - источник текущего времени и таймеров.
type Clock interface {
	// Now возвращает текущее время.
	Now() time.Time

	// After возвращает канал, который получит время через d.
	// При d <= 0 канал получает значение сразу.
	After(d time.Duration) <-chan time.Time
}

// Real возвращает Clock на основе пакета time.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
