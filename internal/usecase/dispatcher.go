package usecase

import (
	"context"
	"fmt"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// NotificationDispatcher последовательно отправляет сообщение каждому получателю.
// Ошибка или паника транспорта для одного получателя не прерывает рассылку.
type NotificationDispatcher struct {
	transport domain.Transport
	limiter   *rate.Limiter
	logger    *logrus.Logger
}

// NewDispatcher создает диспетчер. ratePerSecond <= 0 отключает ограничение скорости.
func NewDispatcher(transport domain.Transport, ratePerSecond float64, logger *logrus.Logger) domain.Dispatcher {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &NotificationDispatcher{
		transport: transport,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
}

// Dispatch отправляет msg всем recipients. Повторяющиеся ID получают сообщение один раз.
// После отмены ctx оставшиеся получатели считаются неуспешными.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, msg domain.Message, recipients []string) domain.DispatchResult {
	var result domain.DispatchResult
	seen := make(map[string]struct{}, len(recipients))

	for _, recipientID := range recipients {
		if _, dup := seen[recipientID]; dup {
			continue
		}
		seen[recipientID] = struct{}{}

		var err error
		if waitErr := d.limiter.Wait(ctx); waitErr != nil {
			err = ctx.Err()
			if err == nil {
				err = waitErr
			}
		} else {
			err = d.send(ctx, recipientID, msg)
		}

		if err != nil {
			result.FailedCount++
			result.FailedRecipientIDs = append(result.FailedRecipientIDs, recipientID)
			d.logger.WithFields(logrus.Fields{
				"recipient_id": recipientID,
			}).WithError(&domain.DeliveryError{RecipientID: recipientID, Err: err}).Warn("Failed to deliver notification")
			continue
		}
		result.SentCount++
	}

	return result
}

func (d *NotificationDispatcher) send(ctx context.Context, recipientID string, msg domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return d.transport.Send(ctx, recipientID, msg.Text, msg.Options)
}
