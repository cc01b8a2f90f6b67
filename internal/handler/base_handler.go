package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"course-notify-bot/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type BaseHandler struct {
	logger   *logrus.Logger
	validate *validator.Validate
}

func NewBaseHandler(logger *logrus.Logger) *BaseHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &BaseHandler{
		logger:   logger,
		validate: validate,
	}
}

func (h *BaseHandler) logRequest(c echo.Context, operation string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
		"ip":         c.RealIP(),
		"user_agent": c.Request().UserAgent(),
	})
}

// bind читает тело запроса и проверяет его по тегам validate.
func (h *BaseHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domain.NewValidationError("body", "malformed request")
	}
	if err := h.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return domain.NewValidationError(fe.Field(), "failed on '"+fe.Tag()+"' rule")
		}
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// respondError пишет ошибку в лог и отвечает кодом по типу ошибки.
func (h *BaseHandler) respondError(c echo.Context, logEntry *logrus.Entry, err error, message string) error {
	if httpErr, exists := domain.ToHTTPError(err); exists {
		logEntry.WithError(err).Warn(message)
		return c.JSON(getHTTPStatusCode(err), toAPIErrorResponse(httpErr))
	}
	logEntry.WithError(err).Error(message)
	return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", "internal error"))
}
