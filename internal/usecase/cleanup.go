package usecase

import (
	"context"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// CleanupJob удаляет устаревшие записи журнала активности.
type CleanupJob struct {
	activityRepo domain.ActivityRepository
	retention    time.Duration
	logger       *logrus.Logger
}

// NewCleanupJob создает новый экземпляр CleanupJob.
func NewCleanupJob(activityRepo domain.ActivityRepository, retentionDays int, logger *logrus.Logger) *CleanupJob {
	return &CleanupJob{
		activityRepo: activityRepo,
		retention:    time.Duration(retentionDays) * 24 * time.Hour,
		logger:       logger,
	}
}

func (j *CleanupJob) Run(ctx context.Context, now time.Time) error {
	deleted, err := j.activityRepo.PruneBefore(ctx, now.Add(-j.retention))
	if err != nil {
		return domain.NewPersistenceError("prune activity", err)
	}

	j.logger.WithFields(logrus.Fields{
		"job":     "cleanup",
		"deleted": deleted,
	}).Info("Activity log pruned")
	return nil
}
