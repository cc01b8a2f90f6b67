package domain

import (
	"fmt"
	"time"
)

// DefaultLeadOffsets - отступы напоминаний в минутах, если в конфиге не указаны свои.
var DefaultLeadOffsets = []int{60, 15, 5}

// Session представляет еженедельное занятие курса.
type Session struct {
	DayOfWeek          time.Weekday
	Hour               int
	Minute             int
	DurationMinutes    int
	Topic              string
	LeadOffsetsMinutes []int
}

// SpecialEvent представляет разовое событие в конкретную дату.
type SpecialEvent struct {
	Year               int
	Month              time.Month
	Day                int
	Hour               int
	Minute             int
	DurationMinutes    int
	Topic              string
	LeadOffsetsMinutes []int
}

// Occurrence - конкретное проведение занятия или события в определенный день.
type Occurrence struct {
	Key                string
	Topic              string
	Start              time.Time
	DurationMinutes    int
	LeadOffsetsMinutes []int
}

// OccursOn возвращает проведение занятия в день day (в локации day), если день совпадает.
func (s Session) OccursOn(day time.Time) (Occurrence, bool) {
	if day.Weekday() != s.DayOfWeek {
		return Occurrence{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
	return Occurrence{
		Key:                fmt.Sprintf("weekly:%s:%02d:%02d:%s", s.DayOfWeek, s.Hour, s.Minute, s.Topic),
		Topic:              s.Topic,
		Start:              start,
		DurationMinutes:    s.DurationMinutes,
		LeadOffsetsMinutes: leadOffsets(s.LeadOffsetsMinutes),
	}, true
}

// OccursOn возвращает проведение события в день day, если дата совпадает.
func (e SpecialEvent) OccursOn(day time.Time) (Occurrence, bool) {
	if day.Year() != e.Year || day.Month() != e.Month || day.Day() != e.Day {
		return Occurrence{}, false
	}
	start := time.Date(e.Year, e.Month, e.Day, e.Hour, e.Minute, 0, 0, day.Location())
	return Occurrence{
		Key:                fmt.Sprintf("event:%04d-%02d-%02d:%02d:%02d:%s", e.Year, e.Month, e.Day, e.Hour, e.Minute, e.Topic),
		Topic:              e.Topic,
		Start:              start,
		DurationMinutes:    e.DurationMinutes,
		LeadOffsetsMinutes: leadOffsets(e.LeadOffsetsMinutes),
	}, true
}

func leadOffsets(offsets []int) []int {
	if len(offsets) == 0 {
		return DefaultLeadOffsets
	}
	return offsets
}
