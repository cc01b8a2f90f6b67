package usecase

import (
	"context"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// WelcomeJob приветствует недавно зарегистрированных участников, которым еще не писали.
type WelcomeJob struct {
	userRepo   domain.UserRepository
	dispatcher domain.Dispatcher
	courseName string
	lookback   time.Duration
	logger     *logrus.Logger
}

// NewWelcomeJob создает новый экземпляр WelcomeJob.
func NewWelcomeJob(userRepo domain.UserRepository, dispatcher domain.Dispatcher, courseName string, lookback time.Duration, logger *logrus.Logger) *WelcomeJob {
	return &WelcomeJob{
		userRepo:   userRepo,
		dispatcher: dispatcher,
		courseName: courseName,
		lookback:   lookback,
		logger:     logger,
	}
}

// Run отправляет приветствие и помечает WelcomeSent только после успешной доставки.
func (j *WelcomeJob) Run(ctx context.Context, now time.Time) error {
	users, err := j.userRepo.List(ctx)
	if err != nil {
		return domain.NewPersistenceError("list users", err)
	}

	since := now.Add(-j.lookback)
	welcomed := 0
	for _, u := range users {
		if u.WelcomeSent || u.JoinedAt.Before(since) || u.Status != domain.StatusActive {
			continue
		}

		result := j.dispatcher.Dispatch(ctx, domain.Message{Text: welcomeText(j.courseName, u.Username)}, []string{u.ID})
		if result.SentCount == 0 {
			continue
		}

		_, err := j.userRepo.Update(ctx, u.ID, func(user *domain.User) error {
			if user.WelcomeSent {
				return domain.ErrNoChanges
			}
			user.WelcomeSent = true
			return nil
		})
		if err != nil {
			j.logger.WithFields(logrus.Fields{
				"job":     "welcome",
				"user_id": u.ID,
			}).WithError(err).Error("Failed to mark welcome as sent")
			continue
		}
		welcomed++
	}

	if welcomed > 0 {
		j.logger.WithFields(logrus.Fields{
			"job":      "welcome",
			"welcomed": welcomed,
		}).Info("Welcome messages sent")
	}
	return nil
}
