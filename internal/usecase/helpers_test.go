package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/repository"
	"course-notify-bot/internal/usecase"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// 2025-08-05 - вторник.
var tuesdayNoon = time.Date(2025, 8, 5, 12, 0, 0, 0, time.UTC)

type sentMessage struct {
	RecipientID string
	Text        string
}

// fakeTransport записывает отправленные сообщения и падает для получателей из failFor.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]bool
}

func newFakeTransport(failFor ...string) *fakeTransport {
	t := &fakeTransport{failFor: make(map[string]bool)}
	for _, id := range failFor {
		t.failFor[id] = true
	}
	return t
}

func (t *fakeTransport) Send(_ context.Context, recipientID, text string, _ domain.SendOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failFor[recipientID] {
		return errors.New("chat not found")
	}
	t.sent = append(t.sent, sentMessage{RecipientID: recipientID, Text: text})
	return nil
}

func (t *fakeTransport) messages() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *fakeTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
}

func (t *fakeTransport) recipients() []string {
	var ids []string
	for _, m := range t.messages() {
		ids = append(ids, m.RecipientID)
	}
	return ids
}

type fixture struct {
	ctx          context.Context
	clock        *clock.FakeClock
	users        domain.UserRepository
	assignments  domain.AssignmentRepository
	activity     domain.ActivityRepository
	transport    *fakeTransport
	dispatcher   domain.Dispatcher
	moderation   domain.ModerationUseCase
	logger       *logrus.Logger
	logs         *logtest.Hook
	maxWarnings  int
	muteDuration time.Duration
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	db := repository.NewMemoryDB()
	clk := clock.Fake(now)
	transport := newFakeTransport()

	f := &fixture{
		ctx:          context.Background(),
		clock:        clk,
		users:        repository.NewMemoryUserRepository(db),
		assignments:  repository.NewMemoryAssignmentRepository(db),
		activity:     repository.NewMemoryActivityRepository(db),
		transport:    transport,
		dispatcher:   usecase.NewDispatcher(transport, 0, logger),
		logger:       logger,
		logs:         hook,
		maxWarnings:  3,
		muteDuration: 30 * time.Minute,
	}
	f.moderation = usecase.NewModerationUseCase(f.users, clk, usecase.ModerationConfig{
		MaxWarnings:  f.maxWarnings,
		MuteDuration: f.muteDuration,
	}, logger)
	return f
}

func (f *fixture) addUser(t *testing.T, u *domain.User) *domain.User {
	t.Helper()
	if u.Status == "" {
		u.Status = domain.StatusActive
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = f.clock.Now().Add(-30 * 24 * time.Hour)
	}
	if u.LastActivity.IsZero() {
		u.LastActivity = u.JoinedAt
	}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.users.GetByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func ptr(t time.Time) *time.Time { return &t }
