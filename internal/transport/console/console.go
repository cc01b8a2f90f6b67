// Package console - транспорт для локальной разработки: сообщения пишутся в лог.
package console

import (
	"context"

	"course-notify-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

type Transport struct {
	logger *logrus.Logger
}

func NewTransport(logger *logrus.Logger) *Transport {
	return &Transport{logger: logger}
}

// Send логирует сообщение вместо отправки.
func (t *Transport) Send(ctx context.Context, recipientID, text string, opts domain.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.logger.WithFields(logrus.Fields{
		"recipient_id": recipientID,
		"parse_mode":   opts.ParseMode,
		"silent":       opts.DisableNotification,
		"text":         text,
	}).Info("Outgoing message")
	return nil
}
