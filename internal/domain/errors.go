package domain

import (
	"errors"
	"fmt"
)

// Domain errors (для бизнес-логики)
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserBanned        = errors.New("user is banned")
	ErrNotPending        = errors.New("user is not pending verification")
	ErrUserNotVerified   = errors.New("user has not passed verification")

	// Warning errors
	ErrWarningNotFound = errors.New("warning not found")

	// Assignment errors
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrAssignmentCompleted = errors.New("assignment already completed")
	ErrAssignmentExpired   = errors.New("assignment deadline has passed")

	// ErrNoChanges возвращается функцией обновления, когда запись менять не нужно.
	ErrNoChanges = errors.New("no changes")
)

// ValidationError - некорректные входные данные.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError создает ошибку валидации для поля.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError - сбой чтения или записи хранилища. Операция не применена.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError оборачивает ошибку хранилища. Доменные ошибки возвращаются как есть.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// DeliveryError - ошибка доставки одному получателю. Никогда не прерывает рассылку.
type DeliveryError struct {
	RecipientID string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s: %v", e.RecipientID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsDomainError проверяет, является ли ошибка ожидаемой ошибкой бизнес-логики.
func IsDomainError(err error) bool {
	if _, ok := ErrorMapping[err]; ok {
		return true
	}
	for domainErr := range ErrorMapping {
		if errors.Is(err, domainErr) {
			return true
		}
	}
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrNoChanges)
}

// HTTPError для ответов админского API
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error HTTPError `json:"error"`
}

// Маппинг domain ошибок в HTTP ошибки
var ErrorMapping = map[error]HTTPError{
	ErrUserNotFound:        {Code: "NOT_FOUND", Message: "user not found"},
	ErrWarningNotFound:     {Code: "NOT_FOUND", Message: "warning not found"},
	ErrAssignmentNotFound:  {Code: "NOT_FOUND", Message: "assignment not found"},
	ErrUserAlreadyExists:   {Code: "USER_EXISTS", Message: "user already registered"},
	ErrUserBanned:          {Code: "USER_BANNED", Message: "user is banned"},
	ErrNotPending:          {Code: "NOT_PENDING", Message: "user is not pending verification"},
	ErrUserNotVerified:     {Code: "NOT_VERIFIED", Message: "user has not passed verification"},
	ErrAssignmentCompleted: {Code: "ALREADY_COMPLETED", Message: "assignment already completed"},
	ErrAssignmentExpired:   {Code: "EXPIRED", Message: "assignment deadline has passed"},
}

// ToHTTPError преобразует domain ошибку в HTTP ошибку
func ToHTTPError(err error) (HTTPError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return HTTPError{Code: "INVALID_REQUEST", Message: ve.Error()}, true
	}
	for domainErr, httpErr := range ErrorMapping {
		if errors.Is(err, domainErr) {
			return httpErr, true
		}
	}
	return HTTPError{}, false
}
