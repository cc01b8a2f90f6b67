package usecase

import (
	"context"
	"strings"
	"time"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ModerationConfig - пороги машины состояний модерации.
type ModerationConfig struct {
	MaxWarnings  int
	MuteDuration time.Duration
}

// ModerationUseCase реализует переходы warning → mute → active.
// Все изменения выполняются через UserRepository.Update и применяются целиком или не применяются вовсе.
type ModerationUseCase struct {
	userRepo domain.UserRepository
	clock    clock.Clock
	cfg      ModerationConfig
	logger   *logrus.Logger
}

// NewModerationUseCase создает новый экземпляр ModerationUseCase.
func NewModerationUseCase(userRepo domain.UserRepository, clk clock.Clock, cfg ModerationConfig, logger *logrus.Logger) domain.ModerationUseCase {
	return &ModerationUseCase{
		userRepo: userRepo,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

// IssueWarning добавляет активное предупреждение и при достижении лимита мьютит пользователя.
// Уже действующий мьют не продлевается.
func (uc *ModerationUseCase) IssueWarning(ctx context.Context, userID, reason, actorID string) (*domain.WarningResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}

	now := uc.clock.Now()
	warning := domain.Warning{
		ID:       uuid.NewString(),
		Reason:   reason,
		IssuedBy: actorID,
		IssuedAt: now,
		Active:   true,
	}

	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if u.Status == domain.StatusBanned {
			return domain.ErrUserBanned
		}
		if domain.EffectiveStatus(u, now) != u.Status {
			u.ClearMute()
		}

		u.Warnings = append(u.Warnings, warning)

		if u.Status == domain.StatusActive && u.ActiveWarningCount() >= uc.cfg.MaxWarnings {
			until := now.Add(uc.cfg.MuteDuration)
			u.Status = domain.StatusMuted
			u.MuteUntil = &until
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("issue warning", err)
	}

	result := uc.warningResult(user, warning.ID)
	uc.logAction("issue_warning", userID, actorID).WithFields(logrus.Fields{
		"warning_id":    warning.ID,
		"warning_count": result.WarningCount,
		"muted":         result.Muted,
	}).Info("Warning issued")

	return result, nil
}

// Mute выставляет мьют на durationMinutes, заменяя текущее окно мьюта.
func (uc *ModerationUseCase) Mute(ctx context.Context, userID string, durationMinutes int, reason, actorID string) (*domain.MuteResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("user_id", "must not be empty")
	}
	if durationMinutes <= 0 {
		return nil, domain.NewValidationError("duration_minutes", "must be positive")
	}

	until := uc.clock.Now().Add(time.Duration(durationMinutes) * time.Minute)

	_, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		switch u.Status {
		case domain.StatusBanned:
			return domain.ErrUserBanned
		case domain.StatusPendingVerification:
			// из pending в active ведет только верификация
			return domain.ErrUserNotVerified
		}
		u.Status = domain.StatusMuted
		u.MuteUntil = &until
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("mute", err)
	}

	uc.logAction("mute", userID, actorID).WithFields(logrus.Fields{
		"mute_until": until,
		"reason":     reason,
	}).Info("User muted")

	return &domain.MuteResult{UserID: userID, MuteUntil: until}, nil
}

// Unmute снимает мьют. Для немьюченного пользователя ничего не меняет.
func (uc *ModerationUseCase) Unmute(ctx context.Context, userID, actorID string) (*domain.User, error) {
	changed := false
	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if u.Status == domain.StatusBanned {
			return domain.ErrUserBanned
		}
		if u.Status != domain.StatusMuted {
			return domain.ErrNoChanges
		}
		u.ClearMute()
		changed = true
		return nil
	})
	if err != nil {
		return nil, domain.NewPersistenceError("unmute", err)
	}

	if changed {
		uc.logAction("unmute", userID, actorID).Info("User unmuted")
	}
	return user, nil
}

// IsActive загружает пользователя и проверяет, может ли он участвовать в чате.
func (uc *ModerationUseCase) IsActive(ctx context.Context, userID string) (bool, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, domain.NewPersistenceError("get user", err)
	}
	return uc.IsUserActive(ctx, user), nil
}

// IsUserActive вычисляет эффективный статус и, если мьют истек, записывает active.
// Ошибка записи не влияет на ответ: следующий проход sweeper'а повторит переход.
func (uc *ModerationUseCase) IsUserActive(ctx context.Context, user *domain.User) bool {
	now := uc.clock.Now()
	status := domain.EffectiveStatus(user, now)

	if status != user.Status {
		if err := uc.expireMute(ctx, user.ID, now); err != nil {
			uc.logger.WithFields(logrus.Fields{
				"operation": "lazy_unmute",
				"user_id":   user.ID,
			}).WithError(err).Warn("Failed to persist expired mute")
		}
	}

	return status == domain.StatusActive
}

func (uc *ModerationUseCase) expireMute(ctx context.Context, userID string, now time.Time) error {
	_, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		if u.Status != domain.StatusMuted || (u.MuteUntil != nil && u.MuteUntil.After(now)) {
			return domain.ErrNoChanges
		}
		u.ClearMute()
		return nil
	})
	return err
}

// RemoveWarning помечает предупреждение неактивным. Действующий мьют не снимается.
func (uc *ModerationUseCase) RemoveWarning(ctx context.Context, userID, warningID, actorID string) (*domain.WarningResult, error) {
	user, err := uc.userRepo.Update(ctx, userID, func(u *domain.User) error {
		for i := range u.Warnings {
			if u.Warnings[i].ID != warningID {
				continue
			}
			if !u.Warnings[i].Active {
				return domain.ErrNoChanges
			}
			u.Warnings[i].Active = false
			return nil
		}
		return domain.ErrWarningNotFound
	})
	if err != nil {
		return nil, domain.NewPersistenceError("remove warning", err)
	}

	result := uc.warningResult(user, warningID)
	uc.logAction("remove_warning", userID, actorID).WithFields(logrus.Fields{
		"warning_id":    warningID,
		"warning_count": result.WarningCount,
	}).Info("Warning removed")

	return result, nil
}

func (uc *ModerationUseCase) warningResult(user *domain.User, warningID string) *domain.WarningResult {
	count := user.ActiveWarningCount()
	result := &domain.WarningResult{
		UserID:            user.ID,
		WarningID:         warningID,
		WarningCount:      count,
		RemainingWarnings: max(0, uc.cfg.MaxWarnings-count),
		Muted:             user.Status == domain.StatusMuted,
	}
	if user.MuteUntil != nil {
		t := *user.MuteUntil
		result.MuteUntil = &t
	}
	return result
}

func (uc *ModerationUseCase) logAction(operation, userID, actorID string) *logrus.Entry {
	return uc.logger.WithFields(logrus.Fields{
		"operation": operation,
		"user_id":   userID,
		"actor_id":  actorID,
	})
}
