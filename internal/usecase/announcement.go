package usecase

import (
	"context"
	"strings"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// AnnouncementUseCase рассылает объявления всем активным участникам.
type AnnouncementUseCase struct {
	userRepo   domain.UserRepository
	moderation domain.ModerationUseCase
	dispatcher domain.Dispatcher
	logger     *logrus.Logger
}

// NewAnnouncementUseCase создает новый экземпляр AnnouncementUseCase.
func NewAnnouncementUseCase(
	userRepo domain.UserRepository,
	moderation domain.ModerationUseCase,
	dispatcher domain.Dispatcher,
	logger *logrus.Logger,
) domain.AnnouncementUseCase {
	return &AnnouncementUseCase{
		userRepo:   userRepo,
		moderation: moderation,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (uc *AnnouncementUseCase) Broadcast(ctx context.Context, text string) (domain.DispatchResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.DispatchResult{}, domain.NewValidationError("text", "must not be empty")
	}

	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return domain.DispatchResult{}, domain.NewPersistenceError("list users", err)
	}

	recipients := make([]string, 0, len(users))
	for _, u := range users {
		if uc.moderation.IsUserActive(ctx, u) {
			recipients = append(recipients, u.ID)
		}
	}

	result := uc.dispatcher.Dispatch(ctx, domain.Message{Text: text}, recipients)
	uc.logger.WithFields(logrus.Fields{
		"operation": "announcement",
		"sent":      result.SentCount,
		"failed":    result.FailedCount,
	}).Info("Announcement dispatched")

	return result, nil
}
