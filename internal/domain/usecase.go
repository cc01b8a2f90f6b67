package domain

import (
	"context"
	"time"
)

// WarningResult - итог выдачи или снятия предупреждения.
type WarningResult struct {
	UserID            string
	WarningID         string
	WarningCount      int
	RemainingWarnings int
	Muted             bool
	MuteUntil         *time.Time
}

// MuteResult - итог ручного мьюта.
type MuteResult struct {
	UserID    string
	MuteUntil time.Time
}

// RegisterInput - данные первого контакта пользователя с ботом.
type RegisterInput struct {
	UserID              string
	Username            string
	PendingVerification bool
}

// ModerationUseCase определяет машину состояний модерации.
type ModerationUseCase interface {
	IssueWarning(ctx context.Context, userID, reason, actorID string) (*WarningResult, error)
	Mute(ctx context.Context, userID string, durationMinutes int, reason, actorID string) (*MuteResult, error)
	Unmute(ctx context.Context, userID, actorID string) (*User, error)
	IsActive(ctx context.Context, userID string) (bool, error)
	IsUserActive(ctx context.Context, user *User) bool
	RemoveWarning(ctx context.Context, userID, warningID, actorID string) (*WarningResult, error)
}

// UserUseCase определяет бизнес-логику для работы с пользователями.
type UserUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*User, bool, error)
	Touch(ctx context.Context, userID, username string) (*User, error)
	SetReminders(ctx context.Context, userID string, enabled bool) (*User, error)
	Verify(ctx context.Context, userID string) (*User, error)
}

// AssignmentUseCase определяет операции участника над заданиями.
type AssignmentUseCase interface {
	Complete(ctx context.Context, assignmentID, userID string) error
}

// StatsUseCase определяет бизнес-логику для работы со статистикой.
type StatsUseCase interface {
	WeeklyStats(ctx context.Context, now time.Time) (*WeeklyStats, error)
}

// AnnouncementUseCase рассылает объявление всем активным участникам.
type AnnouncementUseCase interface {
	Broadcast(ctx context.Context, text string) (DispatchResult, error)
}
