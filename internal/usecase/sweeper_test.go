package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/mocks"
	"course-notify-bot/internal/usecase"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMuteSweeper_ClearsExpiredMutes(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	f.addUser(t, &domain.User{ID: "expired", Status: domain.StatusMuted, MuteUntil: ptr(tuesdayNoon.Add(-time.Minute))})
	f.addUser(t, &domain.User{ID: "boundary", Status: domain.StatusMuted, MuteUntil: ptr(tuesdayNoon)})
	f.addUser(t, &domain.User{ID: "still", Status: domain.StatusMuted, MuteUntil: ptr(tuesdayNoon.Add(time.Minute))})
	f.addUser(t, &domain.User{ID: "banned", Status: domain.StatusBanned})

	sweeper := usecase.NewMuteSweeper(f.users, f.logger)
	require.NoError(t, sweeper.Run(f.ctx, f.clock.Now()))

	assert.Equal(t, domain.StatusActive, f.user(t, "expired").Status)
	assert.Equal(t, domain.StatusActive, f.user(t, "boundary").Status)
	assert.Nil(t, f.user(t, "boundary").MuteUntil)
	assert.Equal(t, domain.StatusMuted, f.user(t, "still").Status)
	assert.Equal(t, domain.StatusBanned, f.user(t, "banned").Status)

	entry := f.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Data["unmuted"])
}

func TestMuteSweeper_DoesNotOverwriteConcurrentModeration(t *testing.T) {
	f := newFixture(t, tuesdayNoon)
	f.addUser(t, &domain.User{ID: "U", Status: domain.StatusMuted, MuteUntil: ptr(tuesdayNoon.Add(-time.Minute))})
	sweeper := usecase.NewMuteSweeper(f.users, f.logger)

	_, err := f.moderation.IssueWarning(f.ctx, "U", "spam", "admin")
	require.NoError(t, err)
	require.NoError(t, sweeper.Run(f.ctx, f.clock.Now()))

	u := f.user(t, "U")
	assert.Len(t, u.Warnings, 1, "the sweep must not drop a warning written before it")
}

func TestMuteSweeper_StoreFailure(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	repo := &mocks.UserRepository{}
	repo.On("ExpireMutes", mock.Anything, tuesdayNoon).Return(nil, errors.New("timeout"))

	err := usecase.NewMuteSweeper(repo, logger).Run(context.Background(), tuesdayNoon)

	var pe *domain.PersistenceError
	assert.ErrorAs(t, err, &pe)
}
