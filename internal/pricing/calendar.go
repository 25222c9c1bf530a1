package pricing

import "time"

// holidays содержит фиксированные праздничные даты (MM-DD), одинаковые для любого года.
var holidays = map[string]struct{}{
	"01-01": {}, // Новый год
	"01-06": {}, // Крещение
	"05-01": {}, // День труда
	"05-03": {}, // День конституции
	"08-15": {}, // Успение
	"11-01": {}, // День всех святых
	"11-11": {}, // День независимости
	"12-25": {}, // Рождество
	"12-26": {}, // День подарков
}

// IsWeekend сообщает, попадает ли ночь на пятницу, субботу или воскресенье.
func IsWeekend(t time.Time) bool {
	switch t.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// IsPeakSeason сообщает, попадает ли дата на высокий сезон (июнь–август).
func IsPeakSeason(t time.Time) bool {
	m := t.Month()
	return m >= time.June && m <= time.August
}

// IsHoliday сообщает, является ли дата праздником из фиксированного списка.
func IsHoliday(t time.Time) bool {
	_, ok := holidays[t.Format("01-02")]
	return ok
}
