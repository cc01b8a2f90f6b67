package handler

import (
	"net/http"

	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type registerRequest struct {
	UserID              string `json:"user_id" validate:"required,max=64"`
	Username            string `json:"username" validate:"max=64"`
	PendingVerification bool   `json:"pending_verification"`
}

type remindersRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// UserHandler обрабатывает HTTP-запросы, связанные с пользователями.
type UserHandler struct {
	*BaseHandler
	userUseCase       domain.UserUseCase
	moderationUseCase domain.ModerationUseCase
}

// NewUserHandler создает новый экземпляр UserHandler.
func NewUserHandler(userUseCase domain.UserUseCase, moderationUseCase domain.ModerationUseCase, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:       NewBaseHandler(logger),
		userUseCase:       userUseCase,
		moderationUseCase: moderationUseCase,
	}
}

// PostUsersRegister регистрирует пользователя при первом контакте.
func (h *UserHandler) PostUsersRegister(c echo.Context) error {
	logEntry := h.logRequest(c, "register_user")

	var req registerRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid register request")
	}
	logEntry = logEntry.WithField("user_id", req.UserID)

	user, created, err := h.userUseCase.Register(c.Request().Context(), domain.RegisterInput{
		UserID:              req.UserID,
		Username:            req.Username,
		PendingVerification: req.PendingVerification,
	})
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to register user")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		logEntry.Info("User registered")
	}
	return c.JSON(status, map[string]interface{}{
		"user": toAPIUser(user),
	})
}

// GetUsersActive возвращает, может ли пользователь участвовать в чате.
func (h *UserHandler) GetUsersActive(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "is_active").WithField("user_id", userID)

	active, err := h.moderationUseCase.IsActive(c.Request().Context(), userID)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to check user status")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"active":  active,
	})
}

// PutUsersReminders включает или выключает напоминания о занятиях.
func (h *UserHandler) PutUsersReminders(c echo.Context) error {
	userID := c.Param("id")
	logEntry := h.logRequest(c, "set_reminders").WithField("user_id", userID)

	var req remindersRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid reminders request")
	}

	user, err := h.userUseCase.SetReminders(c.Request().Context(), userID, *req.Enabled)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to update reminders")
	}

	logEntry.WithField("enabled", *req.Enabled).Info("Reminders preference updated")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user": toAPIUser(user),
	})
}
