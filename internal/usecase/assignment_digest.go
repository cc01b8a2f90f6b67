package usecase

import (
	"context"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// AssignmentDigest раз в день присылает каждому участнику один список невыполненных заданий.
type AssignmentDigest struct {
	userRepo       domain.UserRepository
	assignmentRepo domain.AssignmentRepository
	dispatcher     domain.Dispatcher
	loc            *time.Location
	logger         *logrus.Logger
}

// NewAssignmentDigest создает новый экземпляр AssignmentDigest.
func NewAssignmentDigest(
	userRepo domain.UserRepository,
	assignmentRepo domain.AssignmentRepository,
	dispatcher domain.Dispatcher,
	loc *time.Location,
	logger *logrus.Logger,
) *AssignmentDigest {
	return &AssignmentDigest{
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		dispatcher:     dispatcher,
		loc:            loc,
		logger:         logger,
	}
}

// Run рассылает дайджест. Участник без невыполненных активных заданий ничего не получает.
func (j *AssignmentDigest) Run(ctx context.Context, now time.Time) error {
	assignments, err := j.assignmentRepo.ListActive(ctx, now)
	if err != nil {
		return domain.NewPersistenceError("list assignments", err)
	}
	if len(assignments) == 0 {
		return nil
	}

	users, err := j.userRepo.List(ctx)
	if err != nil {
		return domain.NewPersistenceError("list users", err)
	}

	var total domain.DispatchResult
	for _, u := range users {
		if !digestEligible(u) {
			continue
		}

		pending := pendingFor(u.ID, assignments, now)
		if len(pending) == 0 {
			continue
		}

		msg := domain.Message{Text: assignmentDigestText(pending, j.loc)}
		total.Merge(j.dispatcher.Dispatch(ctx, msg, []string{u.ID}))
	}

	j.logger.WithFields(logrus.Fields{
		"job":         "assignment_digest",
		"assignments": len(assignments),
		"sent":        total.SentCount,
		"failed":      total.FailedCount,
	}).Info("Assignment digest dispatched")
	return nil
}

// digestEligible: дайджест не получают отключившие напоминания, заблокированные
// и неподтвержденные пользователи. Замьюченные получают.
func digestEligible(u *domain.User) bool {
	if !u.RemindersEnabled {
		return false
	}
	return u.Status != domain.StatusBanned && u.Status != domain.StatusPendingVerification
}

func pendingFor(userID string, assignments []*domain.Assignment, now time.Time) []*domain.Assignment {
	var pending []*domain.Assignment
	for _, a := range assignments {
		if a.Status(now) == domain.AssignmentActive && !a.IsCompletedBy(userID) {
			pending = append(pending, a)
		}
	}
	return pending
}
