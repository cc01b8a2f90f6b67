package usecase

import (
	"context"
	"errors"
	"strings"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// UserUseCase реализует бизнес-логику для работы с пользователями.
type UserUseCase struct {
	userRepo            domain.UserRepository
	activityRepo        domain.ActivityRepository
	clock               clock.Clock
	requireVerification bool
	logger              *logrus.Logger
}

// NewUserUseCase создает новый экземпляр UserUseCase.
func NewUserUseCase(
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	clk clock.Clock,
	requireVerification bool,
	logger *logrus.Logger,
) domain.UserUseCase {
	return &UserUseCase{
		userRepo:            userRepo,
		activityRepo:        activityRepo,
		clock:               clk,
		requireVerification: requireVerification,
		logger:              logger,
	}
}

// Register создает запись при первом контакте. Для уже известного пользователя
// возвращает существующую запись и created == false.
func (uc *UserUseCase) Register(ctx context.Context, input domain.RegisterInput) (*domain.User, bool, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, false, domain.NewValidationError("user_id", "must not be empty")
	}

	now := uc.clock.Now()
	status := domain.StatusActive
	if input.PendingVerification {
		status = domain.StatusPendingVerification
	}

	user := &domain.User{
		ID:               input.UserID,
		Username:         input.Username,
		Status:           status,
		Warnings:         []domain.Warning{},
		RemindersEnabled: true,
		LastActivity:     now,
		JoinedAt:         now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			existing, err := uc.userRepo.GetByID(ctx, input.UserID)
			if err != nil {
				return nil, false, domain.NewPersistenceError("get user", err)
			}
			return existing, false, nil
		}
		return nil, false, domain.NewPersistenceError("create user", err)
	}

	uc.record(ctx, user.ID, domain.ActivityRegistration)
	uc.logger.WithFields(logrus.Fields{
		"operation": "register",
		"user_id":   user.ID,
		"status":    user.Status,
	}).Info("User registered")

	return user, true, nil
}

// Touch фиксирует активность пользователя; неизвестный пользователь регистрируется.
func (uc *UserUseCase) Touch(ctx context.Context, userID, username string) (*domain.User, error) {
	now := uc.clock.Now()
	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if username != "" {
			u.Username = username
		}
		u.LastActivity = now
		return nil
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		user, _, err = uc.Register(ctx, domain.RegisterInput{
			UserID:              userID,
			Username:            username,
			PendingVerification: uc.requireVerification,
		})
		if err != nil {
			return nil, err
		}
		// первое сообщение тоже считается сообщением
		uc.record(ctx, userID, domain.ActivityMessage)
		return user, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("touch user", err)
	}

	uc.record(ctx, userID, domain.ActivityMessage)
	return user, nil
}

// SetReminders включает или выключает напоминания для пользователя.
func (uc *UserUseCase) SetReminders(ctx context.Context, userID string, enabled bool) (*domain.User, error) {
	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if u.RemindersEnabled == enabled {
			return domain.ErrNoChanges
		}
		u.RemindersEnabled = enabled
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("set reminders", err)
	}
	return user, nil
}

// Verify переводит пользователя из pending_verification в active.
func (uc *UserUseCase) Verify(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if u.Status != domain.StatusPendingVerification {
			return domain.ErrNotPending
		}
		u.Status = domain.StatusActive
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("verify user", err)
	}

	uc.logger.WithFields(logrus.Fields{
		"operation": "verify",
		"user_id":   userID,
	}).Info("User verified")
	return user, nil
}

// record пишет событие активности. Сбой журнала не влияет на основную операцию.
func (uc *UserUseCase) record(ctx context.Context, userID, kind string) {
	err := uc.activityRepo.Record(ctx, domain.ActivityRecord{
		UserID:    userID,
		Kind:      kind,
		CreatedAt: uc.clock.Now(),
	})
	if err != nil {
		uc.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"kind":    kind,
		}).WithError(err).Warn("Failed to record activity")
	}
}
