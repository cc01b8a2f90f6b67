package handler

import (
	"errors"
	"net/http"
	"time"

	"course-notify-bot/internal/domain"
)

// Модели ответов админского API

type warningResponse struct {
	ID       string    `json:"warning_id"`
	Reason   string    `json:"reason"`
	IssuedBy string    `json:"issued_by"`
	IssuedAt time.Time `json:"issued_at"`
	Active   bool      `json:"active"`
}

type userResponse struct {
	UserID           string            `json:"user_id"`
	Username         string            `json:"username"`
	Status           string            `json:"status"`
	ActiveWarnings   int               `json:"active_warnings"`
	Warnings         []warningResponse `json:"warnings"`
	MuteUntil        *time.Time        `json:"mute_until,omitempty"`
	RemindersEnabled bool              `json:"reminders_enabled"`
	LastActivity     time.Time         `json:"last_activity"`
	JoinedAt         time.Time         `json:"joined_at"`
}

type warningResultResponse struct {
	UserID            string     `json:"user_id"`
	WarningID         string     `json:"warning_id"`
	WarningCount      int        `json:"warning_count"`
	RemainingWarnings int        `json:"remaining_warnings"`
	Muted             bool       `json:"muted"`
	MuteUntil         *time.Time `json:"mute_until,omitempty"`
}

type dispatchResponse struct {
	SentCount          int      `json:"sent_count"`
	FailedCount        int      `json:"failed_count"`
	FailedRecipientIDs []string `json:"failed_recipient_ids"`
}

type weeklyStatsResponse struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	TotalUsers     int       `json:"total_users"`
	NewUsers       int       `json:"new_users"`
	ActiveUsers    int       `json:"active_users"`
	ActivityVolume int       `json:"activity_volume"`
	ActivityRate   int       `json:"activity_rate"`
}

func toAPIUser(user *domain.User) userResponse {
	warnings := make([]warningResponse, len(user.Warnings))
	for i, w := range user.Warnings {
		warnings[i] = warningResponse{
			ID:       w.ID,
			Reason:   w.Reason,
			IssuedBy: w.IssuedBy,
			IssuedAt: w.IssuedAt,
			Active:   w.Active,
		}
	}
	return userResponse{
		UserID:           user.ID,
		Username:         user.Username,
		Status:           string(user.Status),
		ActiveWarnings:   user.ActiveWarningCount(),
		Warnings:         warnings,
		MuteUntil:        user.MuteUntil,
		RemindersEnabled: user.RemindersEnabled,
		LastActivity:     user.LastActivity,
		JoinedAt:         user.JoinedAt,
	}
}

func toAPIWarningResult(result *domain.WarningResult) warningResultResponse {
	return warningResultResponse{
		UserID:            result.UserID,
		WarningID:         result.WarningID,
		WarningCount:      result.WarningCount,
		RemainingWarnings: result.RemainingWarnings,
		Muted:             result.Muted,
		MuteUntil:         result.MuteUntil,
	}
}

func toAPIDispatchResult(result domain.DispatchResult) dispatchResponse {
	failed := result.FailedRecipientIDs
	if failed == nil {
		failed = []string{}
	}
	return dispatchResponse{
		SentCount:          result.SentCount,
		FailedCount:        result.FailedCount,
		FailedRecipientIDs: failed,
	}
}

func toAPIWeeklyStats(stats *domain.WeeklyStats) weeklyStatsResponse {
	return weeklyStatsResponse{
		From:           stats.From,
		To:             stats.To,
		TotalUsers:     stats.TotalUsers,
		NewUsers:       stats.NewUsers,
		ActiveUsers:    stats.ActiveUsers,
		ActivityVolume: stats.ActivityVolume,
		ActivityRate:   stats.ActivityRate,
	}
}

func toErrorResponse(code, message string) domain.ErrorResponse {
	return domain.ErrorResponse{
		Error: domain.HTTPError{Code: code, Message: message},
	}
}

func toAPIErrorResponse(httpErr domain.HTTPError) domain.ErrorResponse {
	return domain.ErrorResponse{Error: httpErr}
}

func getHTTPStatusCode(err error) int {
	var ve *domain.ValidationError
	switch {
	// Bad Request errors (400) - валидация
	case errors.As(err, &ve):
		return http.StatusBadRequest

	// Not Found errors (404)
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrWarningNotFound),
		errors.Is(err, domain.ErrAssignmentNotFound):
		return http.StatusNotFound

	// Conflict errors (409)
	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrUserBanned),
		errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrUserNotVerified),
		errors.Is(err, domain.ErrAssignmentCompleted),
		errors.Is(err, domain.ErrAssignmentExpired):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
