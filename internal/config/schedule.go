package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"course-notify-bot/internal/domain"
)

// SessionConfig - еженедельное занятие в YAML-файле расписания.
type SessionConfig struct {
	DayOfWeek          string `yaml:"day_of_week" validate:"required,weekday"`
	Time               string `yaml:"time" validate:"required,datetime=15:04"`
	DurationMinutes    int    `yaml:"duration_minutes" validate:"gte=0"`
	Topic              string `yaml:"topic" validate:"required"`
	LeadOffsetsMinutes []int  `yaml:"lead_offsets_minutes" validate:"dive,gt=0"`
}

// SpecialEventConfig - разовое событие в YAML-файле расписания.
type SpecialEventConfig struct {
	Date               string `yaml:"date" validate:"required,datetime=2006-01-02"`
	Time               string `yaml:"time" validate:"required,datetime=15:04"`
	DurationMinutes    int    `yaml:"duration_minutes" validate:"gte=0"`
	Topic              string `yaml:"topic" validate:"required"`
	LeadOffsetsMinutes []int  `yaml:"lead_offsets_minutes" validate:"dive,gt=0"`
}

// ScheduleFile - содержимое файла расписания.
type ScheduleFile struct {
	Sessions      []SessionConfig      `yaml:"sessions" validate:"dive"`
	SpecialEvents []SpecialEventConfig `yaml:"special_events" validate:"dive"`
}

// Schedule - расписание, преобразованное в доменные типы.
type Schedule struct {
	Sessions      []domain.Session
	SpecialEvents []domain.SpecialEvent
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// LoadSchedule читает и валидирует файл расписания.
// Отсутствующий файл означает пустое расписание.
func LoadSchedule(path string) (Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Schedule{}, nil
		}
		return Schedule{}, fmt.Errorf("read schedule file: %w", err)
	}
	return ParseSchedule(data)
}

// ParseSchedule разбирает YAML расписания.
func ParseSchedule(data []byte) (Schedule, error) {
	var file ScheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Schedule{}, fmt.Errorf("parse schedule: %w", err)
	}
	if err := newValidator().Struct(file); err != nil {
		return Schedule{}, fmt.Errorf("invalid schedule: %w", err)
	}

	var schedule Schedule
	for _, s := range file.Sessions {
		hour, minute, err := ParseClock(s.Time)
		if err != nil {
			return Schedule{}, err
		}
		day, _ := ParseWeekday(s.DayOfWeek)
		schedule.Sessions = append(schedule.Sessions, domain.Session{
			DayOfWeek:          day,
			Hour:               hour,
			Minute:             minute,
			DurationMinutes:    s.DurationMinutes,
			Topic:              s.Topic,
			LeadOffsetsMinutes: s.LeadOffsetsMinutes,
		})
	}
	for _, e := range file.SpecialEvents {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse event date %q: %w", e.Date, err)
		}
		hour, minute, err := ParseClock(e.Time)
		if err != nil {
			return Schedule{}, err
		}
		schedule.SpecialEvents = append(schedule.SpecialEvents, domain.SpecialEvent{
			Year:               date.Year(),
			Month:              date.Month(),
			Day:                date.Day(),
			Hour:               hour,
			Minute:             minute,
			DurationMinutes:    e.DurationMinutes,
			Topic:              e.Topic,
			LeadOffsetsMinutes: e.LeadOffsetsMinutes,
		})
	}
	return schedule, nil
}

// ParseClock разбирает время в формате HH:MM.
func ParseClock(value string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, 0, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

// ParseWeekday разбирает английское название дня недели.
func ParseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdays[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return time.Sunday, fmt.Errorf("unknown weekday %q", value)
	}
	return day, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := ParseWeekday(fl.Field().String())
		return err == nil
	})
	return v
}
