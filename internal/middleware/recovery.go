package middleware

import (
	"fmt"
	"net/http"

	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/platform/logctx"
	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logctx.FromContext(c.Request.Context()).Error("Panic recovered", "panic", fmt.Sprint(recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			dto.NewAPIErrorResponse(http.StatusInternalServerError, "Internal server error"))
	})
}
