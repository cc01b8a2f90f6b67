package usecase

import (
	"sync"
	"time"

	"course-notify-bot/internal/clock"
)

// ConversationState - состояние диалога с пользователем: NoState или AwaitingInput.
type ConversationState interface {
	conversationState()
}

// NoState - бот ничего не ждет от пользователя.
type NoState struct{}

// AwaitingInput - бот ждет от пользователя ввода вида Kind, начиная с Since.
type AwaitingInput struct {
	Kind  string
	Since time.Time
}

func (NoState) conversationState()       {}
func (AwaitingInput) conversationState() {}

// Виды ожидаемого ввода.
const (
	InputSubscriptionCode = "subscription_code"
	InputAssignmentID     = "assignment_id"
)

// ConversationStore хранит состояния диалогов в памяти процесса.
// Истекшее состояние при чтении превращается в NoState.
type ConversationStore struct {
	mu     sync.Mutex
	states map[string]AwaitingInput
	ttl    time.Duration
	clock  clock.Clock
}

// NewConversationStore создает новый экземпляр ConversationStore.
func NewConversationStore(ttl time.Duration, clk clock.Clock) *ConversationStore {
	return &ConversationStore{
		states: make(map[string]AwaitingInput),
		ttl:    ttl,
		clock:  clk,
	}
}

// Get возвращает текущее состояние диалога.
func (s *ConversationStore) Get(userID string) ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok {
		return NoState{}
	}
	if s.clock.Now().Sub(state.Since) >= s.ttl {
		delete(s.states, userID)
		return NoState{}
	}
	return state
}

// Await запоминает, что бот ждет от пользователя ввода вида kind.
func (s *ConversationStore) Await(userID, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = AwaitingInput{Kind: kind, Since: s.clock.Now()}
}

// Clear сбрасывает состояние диалога.
func (s *ConversationStore) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
