package handler

import (
	"net/http"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// UseCases - зависимости админского API.
type UseCases struct {
	Users         domain.UserUseCase
	Moderation    domain.ModerationUseCase
	Assignments   domain.AssignmentUseCase
	Announcements domain.AnnouncementUseCase
	Stats         domain.StatsUseCase
}

type APIHandler struct {
	*UserHandler
	*ModerationHandler
	*AssignmentHandler
	*AnnouncementHandler
	*StatsHandler
}

func NewAPIHandler(uc UseCases, clk clock.Clock, logger *logrus.Logger) *APIHandler {
	return &APIHandler{
		UserHandler:         NewUserHandler(uc.Users, uc.Moderation, logger),
		ModerationHandler:   NewModerationHandler(uc.Moderation, logger),
		AssignmentHandler:   NewAssignmentHandler(uc.Assignments, logger),
		AnnouncementHandler: NewAnnouncementHandler(uc.Announcements, logger),
		StatsHandler:        NewStatsHandler(uc.Stats, clk, logger),
	}
}

// RegisterHandlers регистрирует маршруты админского API.
func RegisterHandlers(e *echo.Echo, h *APIHandler) {
	e.POST("/users/register", h.PostUsersRegister)
	e.GET("/users/:id/active", h.GetUsersActive)
	e.PUT("/users/:id/reminders", h.PutUsersReminders)

	e.POST("/users/:id/warnings", h.PostUsersWarnings)
	e.DELETE("/users/:id/warnings/:warning_id", h.DeleteUsersWarning)
	e.POST("/users/:id/mute", h.PostUsersMute)
	e.POST("/users/:id/unmute", h.PostUsersUnmute)

	e.POST("/assignments/:id/complete", h.PostAssignmentsComplete)
	e.POST("/announcements", h.PostAnnouncements)
	e.GET("/stats/weekly", h.GetStatsWeekly)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
