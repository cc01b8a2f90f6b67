package domain

import (
	"context"
	"time"
)

// AssignmentStatus вычисляется из дедлайна и не хранится.
type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "active"
	AssignmentExpired AssignmentStatus = "expired"
)

// Assignment представляет задание курса с дедлайном.
type Assignment struct {
	ID          string
	Title       string
	Type        string
	Deadline    time.Time
	CompletedBy map[string]struct{}
	CreatedBy   string
}

// Status возвращает статус задания на момент now.
func (a *Assignment) Status(now time.Time) AssignmentStatus {
	if a.Deadline.After(now) {
		return AssignmentActive
	}
	return AssignmentExpired
}

// IsCompletedBy проверяет, отметил ли пользователь задание выполненным.
func (a *Assignment) IsCompletedBy(userID string) bool {
	_, ok := a.CompletedBy[userID]
	return ok
}

// AssignmentRepository определяет контракт для чтения заданий.
// Создание и удаление заданий выполняет внешний админ-модуль.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *Assignment) error
	GetByID(ctx context.Context, assignmentID string) (*Assignment, error)
	ListActive(ctx context.Context, now time.Time) ([]*Assignment, error)
	MarkCompleted(ctx context.Context, assignmentID, userID string, at time.Time) error
}
