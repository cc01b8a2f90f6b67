package domain

import (
	"context"
	"time"
)

// Типы событий активности.
const (
	ActivityMessage      = "message"
	ActivityRegistration = "registration"
)

// ActivityRecord представляет одно событие активности пользователя.
type ActivityRecord struct {
	UserID    string
	Kind      string
	CreatedAt time.Time
}

// WeeklyStats представляет агрегаты за скользящее окно в 7 дней.
type WeeklyStats struct {
	From           time.Time
	To             time.Time
	TotalUsers     int
	NewUsers       int
	ActiveUsers    int
	ActivityVolume int
	ActivityRate   int
}

// ActivityRepository определяет контракт для журнала активности.
type ActivityRepository interface {
	Record(ctx context.Context, record ActivityRecord) error
	CountSince(ctx context.Context, since time.Time) (int, error)
	PruneBefore(ctx context.Context, before time.Time) (int64, error)
}
