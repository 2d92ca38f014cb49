package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/middleware"
	"github.com/SscSPs/videotube_backend/internal/platform/config"
	"github.com/SscSPs/videotube_backend/internal/platform/logctx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// userHandler handles the /users routes: registration, the session
// lifecycle and the authenticated user's own account.
type userHandler struct {
	userService portssvc.UserSvcFacade
	cookies     cookieSettings
	tempDir     string
	maxUpload   int64
}

// cookieSettings describes the two session cookies.
type cookieSettings struct {
	accessName  string
	refreshName string
	secure      bool
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func newUserHandler(us portssvc.UserSvcFacade, cfg *config.Config) *userHandler {
	return &userHandler{
		userService: us,
		cookies: cookieSettings{
			accessName:  cfg.AccessTokenCookieName,
			refreshName: cfg.RefreshTokenCookieName,
			secure:      cfg.CookieSecure,
			accessTTL:   cfg.AccessTokenExpiry,
			refreshTTL:  cfg.RefreshTokenExpiry,
		},
		tempDir:   cfg.UploadTempDir,
		maxUpload: cfg.MaxUploadBytes,
	}
}

func (s cookieSettings) setSession(c *gin.Context, pair domain.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.accessName, pair.AccessToken, int(s.accessTTL.Seconds()), "/", "", s.secure, true)
	c.SetCookie(s.refreshName, pair.RefreshToken, int(s.refreshTTL.Seconds()), "/", "", s.secure, true)
}

func (s cookieSettings) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.accessName, "", -1, "/", "", s.secure, true)
	c.SetCookie(s.refreshName, "", -1, "/", "", s.secure, true)
}

// register godoc
// @Summary Register a new user
// @Description Creates an account. The avatar is required, the cover image is optional.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} dto.APIResponse{data=domain.UserProfile}
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 409 {object} dto.APIErrorResponse "Username or email already taken"
// @Failure 502 {object} dto.APIErrorResponse "Object store failure"
// @Router /users/register [post]
func (h *userHandler) register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	avatarPath, err := h.saveUpload(c, "avatar")
	defer removeTemp(c, avatarPath)
	if err != nil {
		respondError(c, err)
		return
	}
	coverPath, err := h.saveUpload(c, "coverImage")
	defer removeTemp(c, coverPath)
	if err != nil {
		respondError(c, err)
		return
	}
	req.AvatarLocalPath = avatarPath
	req.CoverImageLocalPath = coverPath

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, user, "User registered successfully")
}

// login godoc
// @Summary Log in
// @Description Verifies credentials by username or email, sets the session cookies and returns the tokens.
// @Tags users
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse}
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 401 {object} dto.APIErrorResponse
// @Failure 429 {object} dto.APIErrorResponse
// @Router /users/login [post]
func (h *userHandler) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	session, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookies.setSession(c, session.TokenPair)
	respondSuccess(c, http.StatusOK, dto.ToLoginResponse(session), "User logged in successfully")
}

// refreshToken godoc
// @Summary Refresh the session
// @Description Exchanges the refresh token (cookie or body) for a new token pair. Each refresh token works once.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.RefreshTokenRequest false "Refresh token, if not sent as a cookie"
// @Success 200 {object} dto.APIResponse{data=dto.RefreshTokenResponse}
// @Failure 401 {object} dto.APIErrorResponse
// @Router /users/refresh-token [post]
func (h *userHandler) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(h.cookies.refreshName)
	if token == "" {
		var req dto.RefreshTokenRequest
		// An empty body is allowed; the service rejects a missing token.
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, bindingError(err))
				return
			}
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	session, err := h.userService.RefreshSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookies.setSession(c, session.TokenPair)
	respondSuccess(c, http.StatusOK, dto.ToRefreshTokenResponse(session), "Access token refreshed")
}

// logout godoc
// @Summary Log out
// @Description Drops the stored refresh token and clears the session cookies.
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.APIErrorResponse
// @Security BearerAuth
// @Router /users/logout [post]
func (h *userHandler) logout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Unauthorized request", nil))
		return
	}

	if err := h.userService.Logout(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	h.cookies.clearSession(c)
	respondSuccess(c, http.StatusOK, gin.H{}, "User logged out")
}

// saveUpload stores the multipart file named field in the temp directory and
// returns its path, or "" when the field is absent.
func (h *userHandler) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apperrors.InvalidInput("Invalid " + field + " upload")
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		return "", apperrors.InvalidInput(field + " exceeds the upload size limit")
	}

	if err := os.MkdirAll(h.tempDir, 0o750); err != nil {
		return "", apperrors.Internal("Failed to store upload", err)
	}
	dst := filepath.Join(h.tempDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", apperrors.Internal("Failed to store upload", err)
	}
	return dst, nil
}

// removeTemp deletes a temp upload the object store did not consume.
func removeTemp(c *gin.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logctx.FromContext(c.Request.Context()).Warn("Failed to remove temp upload",
			slog.String("path", path), slog.String("error", err.Error()))
	}
}
