package handler

import (
	"net/http"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// StatsHandler обрабатывает HTTP-запросы для получения статистических данных.
type StatsHandler struct {
	*BaseHandler
	statsUseCase domain.StatsUseCase
	clock        clock.Clock
}

// NewStatsHandler создает новый экземпляр StatsHandler.
func NewStatsHandler(statsUseCase domain.StatsUseCase, clk clock.Clock, logger *logrus.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsUseCase: statsUseCase,
		clock:        clk,
	}
}

// GetStatsWeekly возвращает агрегаты за последние 7 дней.
func (h *StatsHandler) GetStatsWeekly(c echo.Context) error {
	logEntry := h.logRequest(c, "get_weekly_stats")
	logEntry.Info("Getting weekly statistics")

	stats, err := h.statsUseCase.WeeklyStats(c.Request().Context(), h.clock.Now())
	if err != nil {
		return h.respondError(c, logEntry, err, "Failed to get weekly stats")
	}

	logEntry.WithField("active_users", stats.ActiveUsers).Info("Weekly stats retrieved")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"stats": toAPIWeeklyStats(stats),
	})
}
