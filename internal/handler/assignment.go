package handler

import (
	"net/http"

	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type completeRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type AssignmentHandler struct {
	*BaseHandler
	assignmentUseCase domain.AssignmentUseCase
}

func NewAssignmentHandler(assignmentUseCase domain.AssignmentUseCase, logger *logrus.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentUseCase: assignmentUseCase,
	}
}

// PostAssignmentsComplete отмечает задание выполненным за участника.
func (h *AssignmentHandler) PostAssignmentsComplete(c echo.Context) error {
	assignmentID := c.Param("id")
	logEntry := h.logRequest(c, "complete_assignment").WithField("assignment_id", assignmentID)

	var req completeRequest
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, logEntry, err, "Invalid complete request")
	}
	logEntry = logEntry.WithField("user_id", req.UserID)

	if err := h.assignmentUseCase.Complete(c.Request().Context(), assignmentID, req.UserID); err != nil {
		return h.respondError(c, logEntry, err, "Failed to complete assignment")
	}

	logEntry.Info("Assignment completed")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"assignment_id": assignmentID,
		"user_id":       req.UserID,
		"completed":     true,
	})
}
