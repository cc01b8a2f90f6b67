package handler

import (
	"net/http"

	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type announcementRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

type AnnouncementHandler struct {
	*BaseHandler
	announcementUseCase domain.AnnouncementUseCase
}

func NewAnnouncementHandler(announcementUseCase domain.AnnouncementUseCase, logger *logrus.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		BaseHandler:         NewBaseHandler(logger),
		announcementUseCase: announcementUseCase,
	}
}

// PostAnnouncements рассылает объявление всем активным участникам.
func (h *AnnouncementHandler) PostAnnouncements(c echo.Context) error {
	logEntry := h.logRequest(c, "announcement")

	var req announcementRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid announcement request")
	}

	result, err := h.announcementUseCase.Broadcast(c.Request().Context(), req.Text)
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to broadcast announcement")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"result": toAPIDispatchResult(result),
	})
}
