package telegram

import (
	"context"
	"strconv"
	"strings"

	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/usecase"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	replyVerifyPrompt    = "Please send your subscription code to join the course chat."
	replyVerified        = "Thanks, you are verified. Welcome aboard!"
	replyWrongCode       = "That code is not valid, please try again."
	replyAssignmentAsk   = "Send the ID of the assignment you have completed."
	replyAssignmentDone  = "Marked as completed. Well done!"
	replyRemindersOn     = "Session reminders and deadline digests are on."
	replyRemindersOff    = "Session reminders and deadline digests are off."
	replyRemindersUsage  = "Usage: /reminders on|off"
	replyStart           = "Hi! I will remind you about sessions and deadlines. Use /done <assignment> when you finish an assignment."
	replyUnknownFailure  = "Something went wrong, please try again later."
	updatesTimeoutSecond = 30
)

// PollerConfig - настройки приема апдейтов.
type PollerConfig struct {
	SubscriptionCode string
}

// Poller читает апдейты бота и переводит их в вызовы use case.
type Poller struct {
	bot           botAPI
	replies       domain.Transport
	users         domain.UserUseCase
	moderation    domain.ModerationUseCase
	assignments   domain.AssignmentUseCase
	conversations *usecase.ConversationStore
	cfg           PollerConfig
	logger        *logrus.Logger
}

// NewPoller создает поллер, отвечающий через тот же шлюз.
func NewPoller(
	gateway *Gateway,
	users domain.UserUseCase,
	moderation domain.ModerationUseCase,
	assignments domain.AssignmentUseCase,
	conversations *usecase.ConversationStore,
	cfg PollerConfig,
	logger *logrus.Logger,
) *Poller {
	return newPoller(gateway.bot, gateway, users, moderation, assignments, conversations, cfg, logger)
}

func newPoller(
	bot botAPI,
	replies domain.Transport,
	users domain.UserUseCase,
	moderation domain.ModerationUseCase,
	assignments domain.AssignmentUseCase,
	conversations *usecase.ConversationStore,
	cfg PollerConfig,
	logger *logrus.Logger,
) *Poller {
	return &Poller{
		bot:           bot,
		replies:       replies,
		users:         users,
		moderation:    moderation,
		assignments:   assignments,
		conversations: conversations,
		cfg:           cfg,
		logger:        logger,
	}
}

// Run обрабатывает апдейты до отмены ctx.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updatesTimeoutSecond
	updates := p.bot.GetUpdatesChan(cfg)

	p.logger.Info("Telegram poller started")
	for {
		select {
		case <-ctx.Done():
			p.bot.StopReceivingUpdates()
			p.logger.Info("Telegram poller stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.handle(ctx, update)
		}
	}
}

func (p *Poller) handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := userID
	if msg.Chat != nil {
		chatID = strconv.FormatInt(msg.Chat.ID, 10)
	}
	logEntry := p.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"chat_id": chatID,
	})

	user, err := p.users.Touch(ctx, userID, msg.From.UserName)
	if err != nil {
		logEntry.WithError(err).Error("Failed to touch user")
		return
	}

	if user.Status == domain.StatusPendingVerification {
		p.handleVerification(ctx, logEntry, user.ID, chatID, strings.TrimSpace(msg.Text))
		return
	}

	if !p.moderation.IsUserActive(ctx, user) {
		logEntry.WithField("status", user.Status).Debug("Dropping message from inactive user")
		return
	}

	if msg.IsCommand() {
		p.handleCommand(ctx, logEntry, user.ID, chatID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}

	if state, ok := p.conversations.Get(user.ID).(usecase.AwaitingInput); ok && state.Kind == usecase.InputAssignmentID {
		p.conversations.Clear(user.ID)
		p.completeAssignment(ctx, logEntry, user.ID, chatID, strings.TrimSpace(msg.Text))
	}
}

func (p *Poller) handleVerification(ctx context.Context, logEntry *logrus.Entry, userID, chatID, text string) {
	state, ok := p.conversations.Get(userID).(usecase.AwaitingInput)
	if !ok || state.Kind != usecase.InputSubscriptionCode {
		p.conversations.Await(userID, usecase.InputSubscriptionCode)
		p.reply(ctx, logEntry, chatID, replyVerifyPrompt)
		return
	}

	if text != p.cfg.SubscriptionCode {
		logEntry.Warn("Wrong subscription code")
		p.conversations.Await(userID, usecase.InputSubscriptionCode)
		p.reply(ctx, logEntry, chatID, replyWrongCode)
		return
	}

	if _, err := p.users.Verify(ctx, userID); err != nil {
		logEntry.WithError(err).Error("Failed to verify user")
		p.reply(ctx, logEntry, chatID, replyUnknownFailure)
		return
	}
	p.conversations.Clear(userID)
	logEntry.Info("User verified")
	p.reply(ctx, logEntry, chatID, replyVerified)
}

func (p *Poller) handleCommand(ctx context.Context, logEntry *logrus.Entry, userID, chatID, command, args string) {
	switch command {
	case "start", "help":
		p.reply(ctx, logEntry, chatID, replyStart)
	case "done":
		if args == "" {
			p.conversations.Await(userID, usecase.InputAssignmentID)
			p.reply(ctx, logEntry, chatID, replyAssignmentAsk)
			return
		}
		p.completeAssignment(ctx, logEntry, userID, chatID, args)
	case "reminders":
		p.setReminders(ctx, logEntry, userID, chatID, args)
	default:
		logEntry.WithField("command", command).Debug("Unknown command")
	}
}

func (p *Poller) completeAssignment(ctx context.Context, logEntry *logrus.Entry, userID, chatID, assignmentID string) {
	logEntry = logEntry.WithField("assignment_id", assignmentID)

	err := p.assignments.Complete(ctx, assignmentID, userID)
	if err != nil {
		logEntry.WithError(err).Warn("Failed to complete assignment")
		p.reply(ctx, logEntry, chatID, userMessage(err))
		return
	}
	logEntry.Info("Assignment completed")
	p.reply(ctx, logEntry, chatID, replyAssignmentDone)
}

func (p *Poller) setReminders(ctx context.Context, logEntry *logrus.Entry, userID, chatID, args string) {
	var enabled bool
	switch strings.ToLower(args) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		p.reply(ctx, logEntry, chatID, replyRemindersUsage)
		return
	}

	if _, err := p.users.SetReminders(ctx, userID, enabled); err != nil {
		logEntry.WithError(err).Error("Failed to update reminders")
		p.reply(ctx, logEntry, chatID, replyUnknownFailure)
		return
	}
	if enabled {
		p.reply(ctx, logEntry, chatID, replyRemindersOn)
	} else {
		p.reply(ctx, logEntry, chatID, replyRemindersOff)
	}
}

func (p *Poller) reply(ctx context.Context, logEntry *logrus.Entry, chatID, text string) {
	if err := p.replies.Send(ctx, chatID, text, domain.SendOptions{}); err != nil {
		logEntry.WithError(err).Warn("Failed to send reply")
	}
}

// userMessage превращает доменную ошибку в текст для участника.
func userMessage(err error) string {
	if httpErr, ok := domain.ToHTTPError(err); ok {
		return "Sorry: " + httpErr.Message + "."
	}
	return replyUnknownFailure
}
