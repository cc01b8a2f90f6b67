// Package telegram реализует доставку сообщений и прием апдейтов через Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"

	"course-notify-bot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// botAPI - часть tgbotapi.BotAPI, которой пользуется пакет.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Gateway реализует domain.Transport поверх Bot API.
type Gateway struct {
	bot    botAPI
	logger *logrus.Logger
}

// NewGateway авторизуется по токену и возвращает шлюз.
func NewGateway(token string, logger *logrus.Logger) (*Gateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}
	logger.WithField("bot", bot.Self.UserName).Info("Authorized on Telegram")
	return newGateway(bot, logger), nil
}

func newGateway(bot botAPI, logger *logrus.Logger) *Gateway {
	return &Gateway{bot: bot, logger: logger}
}

// Send отправляет текст в чат recipientID.
func (g *Gateway) Send(ctx context.Context, recipientID, text string, opts domain.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(recipientID, 10, 64)
	if err != nil {
		return domain.NewValidationError("recipient_id", "must be a numeric chat id")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = opts.ParseMode
	msg.DisableNotification = opts.DisableNotification

	if _, err := g.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
