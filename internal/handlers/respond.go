package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/platform/logctx"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func respondSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, dto.NewAPIResponse(status, data, message))
}

// respondError writes the error envelope for err. Only AppError messages
// reach the caller; anything else becomes a generic message for its status.
func respondError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	message := http.StatusText(status)
	var details []string

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		details = appErr.Details
	}

	logger := logctx.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", status), slog.String("error", err.Error()))
	} else {
		logger.Info("Request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	c.AbortWithStatusJSON(status, dto.NewAPIErrorResponse(status, message, details...))
}

// bindingError converts a gin binding failure into a 400 with one detail per
// failed field.
func bindingError(err error) *apperrors.AppError {
	appErr := apperrors.InvalidInput("Invalid request body")
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			appErr.WithDetails(fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag()))
		}
		return appErr
	}
	return appErr.WithDetails(err.Error())
}
