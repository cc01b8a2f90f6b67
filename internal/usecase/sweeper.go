package usecase

import (
	"context"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// MuteSweeper периодически снимает истекшие мьюты.
type MuteSweeper struct {
	userRepo domain.UserRepository
	logger   *logrus.Logger
}

// NewMuteSweeper создает новый экземпляр MuteSweeper.
func NewMuteSweeper(userRepo domain.UserRepository, logger *logrus.Logger) *MuteSweeper {
	return &MuteSweeper{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Run переводит в active всех пользователей с MuteUntil <= now одним вызовом хранилища.
func (s *MuteSweeper) Run(ctx context.Context, now time.Time) error {
	ids, err := s.userRepo.ExpireMutes(ctx, now)
	if err != nil {
		return domain.NewPersistenceError("expire mutes", err)
	}

	if len(ids) > 0 {
		s.logger.WithFields(logrus.Fields{
			"job":      "mute_sweeper",
			"unmuted":  len(ids),
			"user_ids": ids,
		}).Info("Expired mutes cleared")
	}
	return nil
}
