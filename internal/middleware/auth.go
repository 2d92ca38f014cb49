package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/platform/logctx"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates the request by its access token, read from the
// cookieName cookie or else an "Authorization: Bearer" header. Every failure
// ends the request with a 401 envelope.
func AuthMiddleware(authenticator portssvc.AccessTokenAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := logctx.FromContext(ctx)

		token := extractAccessToken(c, cookieName)
		if token == "" {
			logger.Warn("Access token missing")
			abortUnauthorized(c, "Unauthorized request")
			return
		}

		user, err := authenticator.AuthenticateAccessToken(ctx, token)
		if err != nil {
			logger.Warn("Access token rejected", slog.String("error", err.Error()))
			msg := "Invalid access token"
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
				msg = appErr.Message
			}
			abortUnauthorized(c, msg)
			return
		}

		ctx = context.WithValue(ctx, userIDKey, user.UserID)
		ctx = context.WithValue(ctx, userCtxKey, user)
		ctx = logctx.WithLogger(ctx, logger.With(slog.String("user_id", user.UserID)))
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(userIDKey), user.UserID)

		c.Next()
	}
}

func extractAccessToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie
		}
	}
	scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewAPIErrorResponse(http.StatusUnauthorized, msg))
}
