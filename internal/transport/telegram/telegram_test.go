package telegram

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/repository"
	"course-notify-bot/internal/usecase"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var now = time.Date(2025, 8, 5, 12, 0, 0, 0, time.UTC)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	sendErr error
	updates chan tgbotapi.Update
	stopped atomic.Bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 8)}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return tgbotapi.Message{}, b.sendErr
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.stopped.Store(true)
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.sent))
	for _, m := range b.sent {
		out = append(out, m.Text)
	}
	return out
}

func (b *fakeBot) lastText() string {
	texts := b.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func TestGateway_Send(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bot := newFakeBot()
	gw := newGateway(bot, logger)

	err := gw.Send(context.Background(), "1001", "hello", domain.SendOptions{ParseMode: "HTML", DisableNotification: true})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(1001), bot.sent[0].ChatID)
	assert.Equal(t, "hello", bot.sent[0].Text)
	assert.Equal(t, "HTML", bot.sent[0].ParseMode)
	assert.True(t, bot.sent[0].DisableNotification)
}

func TestGateway_SendErrors(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	bot := newFakeBot()
	gw := newGateway(bot, logger)

	var ve *domain.ValidationError
	assert.ErrorAs(t, gw.Send(context.Background(), "not-a-number", "x", domain.SendOptions{}), &ve)

	bot.sendErr = errors.New("Forbidden: bot was blocked by the user")
	assert.ErrorContains(t, gw.Send(context.Background(), "1", "x", domain.SendOptions{}), "blocked")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gw.Send(ctx, "1", "x", domain.SendOptions{}), context.Canceled)
}

type PollerSuite struct {
	suite.Suite
	ctx         context.Context
	clock       *clock.FakeClock
	bot         *fakeBot
	users       domain.UserRepository
	assignments domain.AssignmentRepository
	moderation  domain.ModerationUseCase
}

func TestPollerSuite(t *testing.T) {
	suite.Run(t, new(PollerSuite))
}

func (s *PollerSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.Fake(now)
	s.bot = newFakeBot()

	db := repository.NewMemoryDB()
	s.users = repository.NewMemoryUserRepository(db)
	s.assignments = repository.NewMemoryAssignmentRepository(db)

	logger, _ := logtest.NewNullLogger()
	s.moderation = usecase.NewModerationUseCase(s.users, s.clock, usecase.ModerationConfig{MaxWarnings: 3, MuteDuration: 30 * time.Minute}, logger)
}

func (s *PollerSuite) newPoller(requireVerification bool) *Poller {
	logger, _ := logtest.NewNullLogger()
	db := repository.NewMemoryDB()
	users := usecase.NewUserUseCase(s.users, repository.NewMemoryActivityRepository(db), s.clock, requireVerification, logger)
	assignments := usecase.NewAssignmentUseCase(s.assignments, s.users, s.clock)
	conversations := usecase.NewConversationStore(10*time.Minute, s.clock)

	return newPoller(s.bot, newGateway(s.bot, logger), users, s.moderation, assignments, conversations,
		PollerConfig{SubscriptionCode: "GO-2025"}, logger)
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "student"},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}}
	}
	return tgbotapi.Update{Message: msg}
}

func (s *PollerSuite) TestFirstContactRegistersUser() {
	p := s.newPoller(false)

	p.handle(s.ctx, textUpdate(42, "/start"))

	user, err := s.users.GetByID(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal(domain.StatusActive, user.Status)
	s.Equal("student", user.Username)
	s.Equal(replyStart, s.bot.lastText())
}

func (s *PollerSuite) TestVerificationFlow() {
	p := s.newPoller(true)

	p.handle(s.ctx, textUpdate(7, "hello"))
	s.Equal(replyVerifyPrompt, s.bot.lastText())

	p.handle(s.ctx, textUpdate(7, "wrong"))
	s.Equal(replyWrongCode, s.bot.lastText())

	p.handle(s.ctx, textUpdate(7, " GO-2025 "))
	s.Equal(replyVerified, s.bot.lastText())

	user, err := s.users.GetByID(s.ctx, "7")
	s.Require().NoError(err)
	s.Equal(domain.StatusActive, user.Status)
}

func (s *PollerSuite) TestVerificationPromptExpires() {
	p := s.newPoller(true)

	p.handle(s.ctx, textUpdate(7, "hello"))
	s.clock.Advance(11 * time.Minute)

	p.handle(s.ctx, textUpdate(7, "GO-2025"))
	s.Equal(replyVerifyPrompt, s.bot.lastText(), "an expired prompt starts over")

	user, err := s.users.GetByID(s.ctx, "7")
	s.Require().NoError(err)
	s.Equal(domain.StatusPendingVerification, user.Status)
}

func (s *PollerSuite) TestMutedUserIsIgnored() {
	p := s.newPoller(false)
	p.handle(s.ctx, textUpdate(5, "/start"))
	_, err := s.moderation.Mute(s.ctx, "5", 30, "flood", "admin")
	s.Require().NoError(err)
	sent := len(s.bot.texts())

	p.handle(s.ctx, textUpdate(5, "/help"))
	s.Len(s.bot.texts(), sent)

	s.clock.Advance(31 * time.Minute)
	p.handle(s.ctx, textUpdate(5, "/help"))
	s.Len(s.bot.texts(), sent+1, "expired mute lets the user talk again")
}

func (s *PollerSuite) TestDoneCommand() {
	p := s.newPoller(false)
	s.Require().NoError(s.assignments.Create(s.ctx, &domain.Assignment{ID: "hw-1", Title: "Loops", Deadline: now.Add(time.Hour)}))

	p.handle(s.ctx, textUpdate(9, "/done hw-1"))
	s.Equal(replyAssignmentDone, s.bot.lastText())

	p.handle(s.ctx, textUpdate(9, "/done hw-1"))
	s.Contains(s.bot.lastText(), "already completed")
}

func (s *PollerSuite) TestDoneConversation() {
	p := s.newPoller(false)
	s.Require().NoError(s.assignments.Create(s.ctx, &domain.Assignment{ID: "hw-2", Title: "Maps", Deadline: now.Add(time.Hour)}))

	p.handle(s.ctx, textUpdate(9, "/done"))
	s.Equal(replyAssignmentAsk, s.bot.lastText())

	p.handle(s.ctx, textUpdate(9, "hw-2"))
	s.Equal(replyAssignmentDone, s.bot.lastText())

	a, err := s.assignments.GetByID(s.ctx, "hw-2")
	s.Require().NoError(err)
	s.True(a.IsCompletedBy("9"))
}

func (s *PollerSuite) TestRemindersCommand() {
	p := s.newPoller(false)

	p.handle(s.ctx, textUpdate(3, "/reminders off"))
	s.Equal(replyRemindersOff, s.bot.lastText())
	user, err := s.users.GetByID(s.ctx, "3")
	s.Require().NoError(err)
	s.False(user.RemindersEnabled)

	p.handle(s.ctx, textUpdate(3, "/reminders maybe"))
	s.Equal(replyRemindersUsage, s.bot.lastText())
}

func (s *PollerSuite) TestRunStopsOnCancel() {
	p := s.newPoller(false)
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	s.bot.updates <- textUpdate(11, "/start")
	s.Eventually(func() bool { return len(s.bot.texts()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("poller did not stop")
	}
	s.True(s.bot.stopped.Load())
}
