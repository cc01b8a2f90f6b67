package usecase_test

import (
	"context"
	"errors"
	"testing"

	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/mocks"
	"course-notify-bot/internal/usecase"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDispatcher_IsolatesFailures(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	transport := &mocks.Transport{}
	d := usecase.NewDispatcher(transport, 0, logger)
	ctx := context.Background()
	msg := domain.Message{Text: "hello"}

	transport.On("Send", ctx, "r1", "hello", domain.SendOptions{}).Return(nil)
	transport.On("Send", ctx, "r2", "hello", domain.SendOptions{}).Return(errors.New("blocked by user"))
	transport.On("Send", ctx, "r3", "hello", domain.SendOptions{}).Return(nil)

	result := d.Dispatch(ctx, msg, []string{"r1", "r2", "r3"})

	assert.Equal(t, 2, result.SentCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"r2"}, result.FailedRecipientIDs)
	transport.AssertExpectations(t)

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, "r2", entry.Data["recipient_id"])
	}
}

func TestDispatcher_RecoversFromTransportPanic(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	transport := &mocks.Transport{}
	d := usecase.NewDispatcher(transport, 0, logger)

	transport.On("Send", mock.Anything, "boom", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { panic("nil pointer in client") }).
		Return(nil)
	transport.On("Send", mock.Anything, "ok", mock.Anything, mock.Anything).Return(nil)

	result := d.Dispatch(context.Background(), domain.Message{Text: "x"}, []string{"boom", "ok"})

	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, []string{"boom"}, result.FailedRecipientIDs)
}

func TestDispatcher_EmptyAndDuplicateRecipients(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	transport := &mocks.Transport{}
	d := usecase.NewDispatcher(transport, 0, logger)

	empty := d.Dispatch(context.Background(), domain.Message{Text: "x"}, nil)
	assert.Equal(t, domain.DispatchResult{}, empty)

	transport.On("Send", mock.Anything, "r1", "x", mock.Anything).Return(nil).Once()
	result := d.Dispatch(context.Background(), domain.Message{Text: "x"}, []string{"r1", "r1"})

	assert.Equal(t, 1, result.SentCount)
	transport.AssertExpectations(t)
}

func TestDispatcher_CancelledContextFailsRemaining(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	transport := &mocks.Transport{}
	d := usecase.NewDispatcher(transport, 0, logger)

	ctx, cancel := context.WithCancel(context.Background())
	transport.On("Send", mock.Anything, "r1", "x", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil)

	result := d.Dispatch(ctx, domain.Message{Text: "x"}, []string{"r1", "r2", "r3"})

	assert.Equal(t, 1, result.SentCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, []string{"r2", "r3"}, result.FailedRecipientIDs)
	transport.AssertNotCalled(t, "Send", mock.Anything, "r2", mock.Anything, mock.Anything)
}

func TestDispatcher_PassesSendOptions(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	transport := &mocks.Transport{}
	d := usecase.NewDispatcher(transport, 1000, logger)
	opts := domain.SendOptions{ParseMode: "HTML", DisableNotification: true}

	transport.On("Send", mock.Anything, "r1", "<b>hi</b>", opts).Return(nil)

	result := d.Dispatch(context.Background(), domain.Message{Text: "<b>hi</b>", Options: opts}, []string{"r1"})

	assert.Equal(t, 1, result.SentCount)
	transport.AssertExpectations(t)
}
