package mocks

import (
	"context"

	"course-notify-bot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// Transport - мок domain.Transport.
type Transport struct {
	mock.Mock
}

func (m *Transport) Send(ctx context.Context, recipientID, text string, opts domain.SendOptions) error {
	args := m.Called(ctx, recipientID, text, opts)
	return args.Error(0)
}

// Dispatcher - мок domain.Dispatcher.
type Dispatcher struct {
	mock.Mock
}

func (m *Dispatcher) Dispatch(ctx context.Context, msg domain.Message, recipients []string) domain.DispatchResult {
	args := m.Called(ctx, msg, recipients)
	return args.Get(0).(domain.DispatchResult)
}
