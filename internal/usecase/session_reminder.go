package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// SessionReminder рассылает напоминания о занятиях за заданное число минут до начала.
// Вызывается раз в минуту; срабатывает только при точном совпадении минут.
type SessionReminder struct {
	sessions   []domain.Session
	events     []domain.SpecialEvent
	loc        *time.Location
	userRepo   domain.UserRepository
	moderation domain.ModerationUseCase
	dispatcher domain.Dispatcher
	logger     *logrus.Logger

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewSessionReminder создает новый экземпляр SessionReminder.
func NewSessionReminder(
	sessions []domain.Session,
	events []domain.SpecialEvent,
	loc *time.Location,
	userRepo domain.UserRepository,
	moderation domain.ModerationUseCase,
	dispatcher domain.Dispatcher,
	logger *logrus.Logger,
) *SessionReminder {
	return &SessionReminder{
		sessions:   sessions,
		events:     events,
		loc:        loc,
		userRepo:   userRepo,
		moderation: moderation,
		dispatcher: dispatcher,
		logger:     logger,
		sent:       make(map[string]time.Time),
	}
}

// Run проверяет занятия сегодня и завтра (для напоминаний, переходящих через полночь).
func (r *SessionReminder) Run(ctx context.Context, now time.Time) error {
	local := now.In(r.loc)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(local)

	var recipients []string
	loaded := false

	for _, occ := range r.occurrences(local) {
		minutesUntil := int(math.Round(occ.Start.Sub(local).Minutes()))

		for _, offset := range occ.LeadOffsetsMinutes {
			if offset != minutesUntil {
				continue
			}

			key := fmt.Sprintf("%s|%d|%s", occ.Key, offset, occ.Start.Format("2006-01-02"))
			if _, done := r.sent[key]; done {
				continue
			}

			if !loaded {
				var err error
				recipients, err = r.recipients(ctx)
				if err != nil {
					return err
				}
				loaded = true
			}

			result := r.dispatcher.Dispatch(ctx, domain.Message{Text: sessionReminderText(occ, offset)}, recipients)
			r.sent[key] = occ.Start

			r.logger.WithFields(logrus.Fields{
				"job":        "session_reminder",
				"session":    occ.Key,
				"offset_min": offset,
				"sent":       result.SentCount,
				"failed":     result.FailedCount,
			}).Info("Session reminder dispatched")
		}
	}
	return nil
}

func (r *SessionReminder) occurrences(local time.Time) []domain.Occurrence {
	var out []domain.Occurrence
	for _, day := range []time.Time{local, local.AddDate(0, 0, 1)} {
		for _, s := range r.sessions {
			if occ, ok := s.OccursOn(day); ok {
				out = append(out, occ)
			}
		}
		for _, e := range r.events {
			if occ, ok := e.OccursOn(day); ok {
				out = append(out, occ)
			}
		}
	}
	return out
}

// recipients - пользователи с включенными напоминаниями, активные на момент рассылки.
func (r *SessionReminder) recipients(ctx context.Context) ([]string, error) {
	users, err := r.userRepo.List(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("list users", err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.RemindersEnabled && r.moderation.IsUserActive(ctx, u) {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// prune забывает ключи уже начавшихся занятий: для них напоминаний больше не будет.
func (r *SessionReminder) prune(local time.Time) {
	for key, start := range r.sent {
		if start.Before(local) {
			delete(r.sent, key)
		}
	}
}
