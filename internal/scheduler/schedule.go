package scheduler

import "time"

// Schedule вычисляет следующий момент запуска строго после after.
type Schedule interface {
	Next(after time.Time) time.Time
}

type interval time.Duration

// Every запускает задачу каждые d, начиная с момента старта планировщика.
func Every(d time.Duration) Schedule { return interval(d) }

func (i interval) Next(after time.Time) time.Time {
	return after.Add(time.Duration(i))
}

type everyMinute struct{}

// EveryMinute запускает задачу на границе каждой минуты.
func EveryMinute() Schedule { return everyMinute{} }

func (everyMinute) Next(after time.Time) time.Time {
	return after.Truncate(time.Minute).Add(time.Minute)
}

type daily struct {
	hour, minute int
	loc          *time.Location
}

// DailyAt запускает задачу каждый день в hour:minute по времени loc.
func DailyAt(hour, minute int, loc *time.Location) Schedule {
	return daily{hour: hour, minute: minute, loc: loc}
}

func (d daily) Next(after time.Time) time.Time {
	local := after.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	for !next.After(after) {
		next = time.Date(next.Year(), next.Month(), next.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

type weekly struct {
	weekday      time.Weekday
	hour, minute int
	loc          *time.Location
}

// WeeklyAt запускает задачу раз в неделю в день weekday в hour:minute по времени loc.
func WeeklyAt(weekday time.Weekday, hour, minute int, loc *time.Location) Schedule {
	return weekly{weekday: weekday, hour: hour, minute: minute, loc: loc}
}

func (w weekly) Next(after time.Time) time.Time {
	next := DailyAt(w.hour, w.minute, w.loc).Next(after)
	for next.Weekday() != w.weekday {
		next = time.Date(next.Year(), next.Month(), next.Day()+1, w.hour, w.minute, 0, 0, w.loc)
	}
	return next
}
