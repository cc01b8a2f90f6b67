package usecase

import (
	"context"
	"strings"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"
)

// AssignmentUseCase реализует действия участника над заданиями.
type AssignmentUseCase struct {
	assignmentRepo domain.AssignmentRepository
	userRepo       domain.UserRepository
	clock          clock.Clock
}

// NewAssignmentUseCase создает новый экземпляр AssignmentUseCase.
func NewAssignmentUseCase(assignmentRepo domain.AssignmentRepository, userRepo domain.UserRepository, clk clock.Clock) domain.AssignmentUseCase {
	return &AssignmentUseCase{
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		clock:          clk,
	}
}

// Complete отмечает задание выполненным. Истекшее задание отметить нельзя.
func (uc *AssignmentUseCase) Complete(ctx context.Context, assignmentID, userID string) error {
	if strings.TrimSpace(assignmentID) == "" {
		return domain.NewValidationError("assignment_id", "must not be empty")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("user_id", "must not be empty")
	}

	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return domain.NewPersistenceError("get user", err)
	}

	if err := uc.assignmentRepo.MarkCompleted(ctx, assignmentID, userID, uc.clock.Now()); err != nil {
		return domain.NewPersistenceError("mark completed", err)
	}
	return nil
}
