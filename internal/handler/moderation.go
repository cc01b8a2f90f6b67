package handler

import (
	"net/http"

	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type warningRequest struct {
	Reason  string `json:"reason" validate:"required,max=500"`
	ActorID string `json:"actor_id" validate:"required"`
}

type muteRequest struct {
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	Reason          string `json:"reason" validate:"max=500"`
	ActorID         string `json:"actor_id" validate:"required"`
}

type actorRequest struct {
	ActorID string `json:"actor_id" query:"actor_id" validate:"required"`
}

// ModerationHandler обрабатывает команды модераторов.
type ModerationHandler struct {
	*BaseHandler
	moderationUseCase domain.ModerationUseCase
}

// NewModerationHandler создает новый экземпляр ModerationHandler.
func NewModerationHandler(moderationUseCase domain.ModerationUseCase, logger *logrus.Logger) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:       NewBaseHandler(logger),
		moderationUseCase: moderationUseCase,
	}
}

// PostUsersWarnings выдает предупреждение.
func (h *ModerationHandler) PostUsersWarnings(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "issue_warning").WithField("user_id", userID)

	var req warningRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid warning request")
	}

	result, err := h.moderationUseCase.IssueWarning(c.Request().Context(), userID, req.Reason, req.ActorID)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to issue warning")
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"result": toAPIWarningResult(result),
	})
}

// DeleteUsersWarning снимает предупреждение.
func (h *ModerationHandler) DeleteUsersWarning(c echo.Context) error {
	userID, warningID := c.Param("id"), c.Param("warning_id")
	logEntry := h.logRequest(c, "remove_warning").WithFields(logrus.Fields{
		"user_id":    userID,
		"warning_id": warningID,
	})

	var req actorRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid remove warning request")
	}

	result, err := h.moderationUseCase.RemoveWarning(c.Request().Context(), userID, warningID, req.ActorID)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to remove warning")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"result": toAPIWarningResult(result),
	})
}

// PostUsersMute мьютит пользователя на заданное число минут.
func (h *ModerationHandler) PostUsersMute(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "mute").WithField("user_id", userID)

	var req muteRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid mute request")
	}

	result, err := h.moderationUseCase.Mute(c.Request().Context(), userID, req.DurationMinutes, req.Reason, req.ActorID)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to mute user")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":    result.UserID,
		"mute_until": result.MuteUntil,
	})
}

// PostUsersUnmute снимает мьют.
func (h *ModerationHandler) PostUsersUnmute(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "unmute").WithField("user_id", userID)

	var req actorRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid unmute request")
	}

	user, err := h.moderationUseCase.Unmute(c.Request().Context(), userID, req.ActorID)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to unmute user")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": toAPIUser(user),
	})
}
