// Package progression содержит чистую логику движка прогресса: проверку доступа к дню,
// заморозку уровня, проверку ежедневного теста и право на сертификат.
// Все функции принимают запись доступа по значению и текущее время и не имеют побочных эффектов.
package progression

import "time"

// Day длительность одного дня при расчётах сроков.
const Day = 24 * time.Hour

// Clock источник текущего времени.
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает текущее время в UTC с точностью до микросекунды, как его хранит Postgres.
type SystemClock struct{}

// Now реализует Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// FixedClock всегда возвращает одно и то же время. Используется в тестах и CLI.
type FixedClock struct {
	T time.Time
}

// Now реализует Clock.
func (c FixedClock) Now() time.Time { return c.T }

func days(n int) time.Duration {
	return time.Duration(n) * Day
}

// ceilDays округляет длительность вверх до целых дней. Отрицательные значения дают 0.
func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / Day)
	if d%Day != 0 {
		n++
	}
	return n
}
