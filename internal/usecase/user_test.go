package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/mocks"
	"course-notify-bot/internal/repository"
	"course-notify-bot/internal/usecase"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserUseCase(f *fixture, requireVerification bool) domain.UserUseCase {
	return usecase.NewUserUseCase(f.users, f.activity, f.clock, requireVerification, f.logger)
}

func TestUserUseCase_RegisterFirstContact(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	uc := newUserUseCase(f, false)

	user, created, err := uc.Register(f.ctx, domain.RegisterInput{UserID: "42", Username: "alice"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.StatusActive, user.Status)
	assert.True(t, user.RemindersEnabled)
	assert.Equal(t, tuesdayNoon, user.JoinedAt)

	again, created, err := uc.Register(f.ctx, domain.RegisterInput{UserID: "42", Username: "other"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "alice", again.Username)

	_, _, err = uc.Register(f.ctx, domain.RegisterInput{UserID: "  "})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestUserUseCase_VerificationFlow(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	uc := newUserUseCase(f, true)

	user, err := uc.Touch(f.ctx, "7", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingVerification, user.Status)

	verified, err := uc.Verify(f.ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, verified.Status)

	_, err = uc.Verify(f.ctx, "7")
	assert.ErrorIs(t, err, domain.ErrNotPending)
}

func TestUserUseCase_TouchRecordsActivity(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	uc := newUserUseCase(f, false)
	f.addUser(t, &domain.User{ID: "1", Username: "old-name"})

	f.clock.Advance(time.Hour)
	user, err := uc.Touch(f.ctx, "1", "new-name")
	require.NoError(t, err)
	assert.Equal(t, "new-name", user.Username)
	assert.Equal(t, tuesdayNoon.Add(time.Hour), user.LastActivity)

	count, err := f.activity.CountSince(f.ctx, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUserUseCase_TouchUnknownUserCountsFirstMessage(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	uc := newUserUseCase(f, false)

	user, err := uc.Touch(f.ctx, "42", "newcomer")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, user.Status)

	count, err := f.activity.CountSince(f.ctx, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = uc.Touch(f.ctx, "42", "newcomer")
	require.NoError(t, err)
	count, err = f.activity.CountSince(f.ctx, tuesdayNoon)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserUseCase_SetReminders(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	uc := newUserUseCase(f, false)
	f.addUser(t, &domain.User{ID: "1", RemindersEnabled: true})

	user, err := uc.SetReminders(f.ctx, "1", false)
	require.NoError(t, err)
	assert.False(t, user.RemindersEnabled)

	user, err = uc.SetReminders(f.ctx, "1", false)
	require.NoError(t, err)
	assert.False(t, user.RemindersEnabled)

	_, err = uc.SetReminders(f.ctx, "ghost", true)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUseCase_ActivityFailureDoesNotFailRegistration(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	activity := &mocks.ActivityRepository{}
	activity.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	db := repository.NewMemoryDB()
	uc := usecase.NewUserUseCase(repository.NewMemoryUserRepository(db), activity, clock.Fake(tuesdayNoon), false, logger)

	_, created, err := uc.Register(context.Background(), domain.RegisterInput{UserID: "1"})
	require.NoError(t, err)
	assert.True(t, created)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Failed to record activity" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestAssignmentUseCase_Complete(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	f.addUser(t, &domain.User{ID: "U"})
	require.NoError(t, f.assignments.Create(f.ctx, &domain.Assignment{ID: "hw", Title: "HW", Deadline: tuesdayNoon.Add(time.Hour)}))
	uc := usecase.NewAssignmentUseCase(f.assignments, f.users, f.clock)

	require.NoError(t, uc.Complete(f.ctx, "hw", "U"))
	assert.ErrorIs(t, uc.Complete(f.ctx, "hw", "U"), domain.ErrAssignmentCompleted)
	assert.ErrorIs(t, uc.Complete(f.ctx, "missing", "U"), domain.ErrAssignmentNotFound)
	assert.ErrorIs(t, uc.Complete(f.ctx, "hw", "ghost"), domain.ErrUserNotFound)

	f.clock.Advance(2 * time.Hour)
	require.NoError(t, f.assignments.Create(f.ctx, &domain.Assignment{ID: "late", Title: "Late", Deadline: tuesdayNoon}))
	assert.ErrorIs(t, uc.Complete(f.ctx, "late", "U"), domain.ErrAssignmentExpired)

	var ve *domain.ValidationError
	assert.ErrorAs(t, uc.Complete(f.ctx, "", "U"), &ve)
}

func TestAnnouncementUseCase_Broadcast(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	f.transport.failFor["broken"] = true
	f.addUser(t, &domain.User{ID: "a"})
	f.addUser(t, &domain.User{ID: "broken"})
	f.addUser(t, &domain.User{ID: "muted", Status: domain.StatusMuted, MuteUntil: ptr(tuesdayNoon.Add(time.Hour))})
	f.addUser(t, &domain.User{ID: "banned", Status: domain.StatusBanned})
	uc := usecase.NewAnnouncementUseCase(f.users, f.moderation, f.dispatcher, f.logger)

	result, err := uc.Broadcast(f.ctx, "No class next week")
	require.NoError(t, err)
	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, []string{"broken"}, result.FailedRecipientIDs)
	assert.Equal(t, []string{"a"}, f.transport.recipients())

	_, err = uc.Broadcast(f.ctx, "   ")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestConversationStore_TTL(t *testing.T) {
	clk := clock.Fake(tuesdayNoon)
	store := usecase.NewConversationStore(5*time.Minute, clk)

	assert.Equal(t, usecase.NoState{}, store.Get("u"))

	store.Await("u", usecase.InputSubscriptionCode)
	state, ok := store.Get("u").(usecase.AwaitingInput)
	require.True(t, ok)
	assert.Equal(t, usecase.InputSubscriptionCode, state.Kind)
	assert.Equal(t, tuesdayNoon, state.Since)

	clk.Advance(4*time.Minute + 59*time.Second)
	_, ok = store.Get("u").(usecase.AwaitingInput)
	assert.True(t, ok)

	clk.Advance(time.Second)
	assert.Equal(t, usecase.NoState{}, store.Get("u"), "state expires after the TTL")

	store.Await("u", usecase.InputAssignmentID)
	store.Clear("u")
	assert.Equal(t, usecase.NoState{}, store.Get("u"))
}
