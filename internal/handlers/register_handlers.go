package handlers

import (
	"fmt"
	"net/http"

	"github.com/SscSPs/videotube_backend/cmd/docs"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/middleware"
	"github.com/SscSPs/videotube_backend/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) error {
	r.Use(cors.New(corsConfig(cfg)))

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		respondSuccess(c, http.StatusOK, gin.H{"status": "OK"}, "Health check passed")
	})

	authLimiter, err := middleware.NewLimiter(cfg.AuthRateLimit, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to build auth rate limiter: %w", err)
	}

	v1 := r.Group("/api/v1")
	registerUserRoutes(v1, cfg, services.User, middleware.RateLimit(authLimiter))

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
	return nil
}

// registerUserRoutes registers all user-related routes. Registration, login
// and refresh are public and rate limited; the rest require an access token.
func registerUserRoutes(rg *gin.RouterGroup, cfg *config.Config, userService portssvc.UserSvcFacade, authLimit gin.HandlerFunc) {
	h := newUserHandler(userService, cfg)

	users := rg.Group("/users")
	{
		users.POST("/register", authLimit, h.register)
		users.POST("/login", authLimit, h.login)
		users.POST("/refresh-token", authLimit, h.refreshToken)
	}

	secured := users.Group("", middleware.AuthMiddleware(userService, cfg.AccessTokenCookieName))
	{
		secured.POST("/logout", h.logout)
		secured.POST("/change-password", h.changePassword)
		secured.GET("/current-user", h.getCurrentUser)
		secured.PATCH("/update-account", h.updateAccountDetails)
		secured.PATCH("/avatar", h.updateAvatar)
		secured.PATCH("/cover-image", h.updateCoverImage)
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsCfg.ExposeHeaders = []string{"X-Request-ID"}
	return corsCfg
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
