package usecase

import (
	"context"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

const statsWindow = 7 * 24 * time.Hour

// WeeklyDigest считает недельную статистику и отправляет ее администраторам.
// Только читает данные.
type WeeklyDigest struct {
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	dispatcher   domain.Dispatcher
	adminIDs     []string
	logger       *logrus.Logger
}

// NewWeeklyDigest создает новый экземпляр WeeklyDigest.
func NewWeeklyDigest(
	userRepo domain.UserRepository,
	activityRepo domain.ActivityRepository,
	dispatcher domain.Dispatcher,
	adminIDs []string,
	logger *logrus.Logger,
) *WeeklyDigest {
	return &WeeklyDigest{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		dispatcher:   dispatcher,
		adminIDs:     adminIDs,
		logger:       logger,
	}
}

// WeeklyStats возвращает агрегаты за 7 дней, предшествующих now.
func (j *WeeklyDigest) WeeklyStats(ctx context.Context, now time.Time) (*domain.WeeklyStats, error) {
	from := now.Add(-statsWindow)

	users, err := j.userRepo.List(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("list users", err)
	}

	volume, err := j.activityRepo.CountSince(ctx, from)
	if err != nil {
		return nil, domain.NewPersistenceError("count activity", err)
	}

	stats := &domain.WeeklyStats{
		From:           from,
		To:             now,
		TotalUsers:     len(users),
		ActivityVolume: volume,
	}
	for _, u := range users {
		if !u.JoinedAt.Before(from) {
			stats.NewUsers++
		}
		if !u.LastActivity.Before(from) {
			stats.ActiveUsers++
		}
	}
	if stats.TotalUsers > 0 {
		stats.ActivityRate = stats.ActiveUsers * 100 / stats.TotalUsers
	}
	return stats, nil
}

// Run отправляет отчет всем администраторам.
func (j *WeeklyDigest) Run(ctx context.Context, now time.Time) error {
	if len(j.adminIDs) == 0 {
		j.logger.WithField("job", "weekly_digest").Warn("No admin recipients configured, skipping weekly digest")
		return nil
	}

	stats, err := j.WeeklyStats(ctx, now)
	if err != nil {
		return err
	}

	result := j.dispatcher.Dispatch(ctx, domain.Message{Text: weeklyDigestText(stats)}, j.adminIDs)

	j.logger.WithFields(logrus.Fields{
		"job":          "weekly_digest",
		"total_users":  stats.TotalUsers,
		"active_users": stats.ActiveUsers,
		"sent":         result.SentCount,
		"failed":       result.FailedCount,
	}).Info("Weekly digest dispatched")
	return nil
}
