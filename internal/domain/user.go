package domain

import (
	"context"
	"time"
)

// UserStatus описывает состояние модерации пользователя.
type UserStatus string

const (
	StatusActive              UserStatus = "active"
	StatusMuted               UserStatus = "muted"
	StatusBanned              UserStatus = "banned"
	StatusPendingVerification UserStatus = "pending_verification"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusMuted, StatusBanned, StatusPendingVerification:
		return true
	}
	return false
}

// Warning представляет дисциплинарное предупреждение.
// Предупреждения никогда не удаляются, только помечаются неактивными.
type Warning struct {
	ID       string
	Reason   string
	IssuedBy string
	IssuedAt time.Time
	Active   bool
}

// User представляет участника курса.
// Инвариант: MuteUntil != nil тогда и только тогда, когда Status == StatusMuted.
type User struct {
	ID               string
	Username         string
	Status           UserStatus
	Warnings         []Warning
	MuteUntil        *time.Time
	RemindersEnabled bool
	LastActivity     time.Time
	JoinedAt         time.Time
	WelcomeSent      bool
}

// ActiveWarningCount возвращает количество активных предупреждений.
func (u *User) ActiveWarningCount() int {
	count := 0
	for _, w := range u.Warnings {
		if w.Active {
			count++
		}
	}
	return count
}

// Clone возвращает глубокую копию пользователя.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Warnings != nil {
		c.Warnings = make([]Warning, len(u.Warnings))
		copy(c.Warnings, u.Warnings)
	}
	if u.MuteUntil != nil {
		t := *u.MuteUntil
		c.MuteUntil = &t
	}
	return &c
}

// EffectiveStatus вычисляет статус пользователя на момент now без изменения записи:
// истекший мьют считается активным статусом.
func EffectiveStatus(u *User, now time.Time) UserStatus {
	if u.Status == StatusMuted && (u.MuteUntil == nil || !u.MuteUntil.After(now)) {
		return StatusActive
	}
	return u.Status
}

// ClearMute переводит пользователя в активный статус и снимает окно мьюта.
func (u *User) ClearMute() {
	u.Status = StatusActive
	u.MuteUntil = nil
}

// UserRepository определяет контракт для работы с хранилищем пользователей.
//
// Update выполняет атомарное чтение-изменение-запись одной записи: fn получает
// копию пользователя, и изменения сохраняются только если fn вернула nil.
// Если fn вернула ErrNoChanges, запись не изменяется и возвращается текущее состояние.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, userID string, fn func(user *User) error) (*User, error)
	ExpireMutes(ctx context.Context, now time.Time) ([]string, error)
}
