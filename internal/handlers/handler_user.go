package handlers

import (
	"context"
	"net/http"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	"github.com/SscSPs/videotube_backend/internal/dto"
	"github.com/SscSPs/videotube_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// getCurrentUser godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Success 200 {object} dto.APIResponse{data=domain.UserProfile}
// @Failure 401 {object} dto.APIErrorResponse
// @Security BearerAuth
// @Router /users/current-user [get]
func (h *userHandler) getCurrentUser(c *gin.Context) {
	if user, ok := middleware.GetUserFromContext(c); ok {
		respondSuccess(c, http.StatusOK, user, "Current user fetched successfully")
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Unauthorized request", nil))
		return
	}
	user, err := h.userService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user, "Current user fetched successfully")
}

// changePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 401 {object} dto.APIErrorResponse "Wrong old password"
// @Security BearerAuth
// @Router /users/change-password [post]
func (h *userHandler) changePassword(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Unauthorized request", nil))
		return
	}
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

// updateAccountDetails godoc
// @Summary Update account details
// @Description Updates email and/or full name.
// @Tags users
// @Accept json
// @Produce json
// @Param body body dto.UpdateAccountRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=domain.UserProfile}
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 409 {object} dto.APIErrorResponse "Email already in use"
// @Security BearerAuth
// @Router /users/update-account [patch]
func (h *userHandler) updateAccountDetails(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Unauthorized request", nil))
		return
	}
	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindingError(err))
		return
	}

	user, err := h.userService.UpdateAccountDetails(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user, "Account details updated successfully")
}

// updateAvatar godoc
// @Summary Replace the avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} dto.APIResponse{data=domain.UserProfile}
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 502 {object} dto.APIErrorResponse
// @Security BearerAuth
// @Router /users/avatar [patch]
func (h *userHandler) updateAvatar(c *gin.Context) {
	h.replaceImage(c, "avatar", "Avatar updated successfully", h.userService.UpdateAvatar)
}

// updateCoverImage godoc
// @Summary Replace the cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} dto.APIResponse{data=domain.UserProfile}
// @Failure 400 {object} dto.APIErrorResponse
// @Failure 502 {object} dto.APIErrorResponse
// @Security BearerAuth
// @Router /users/cover-image [patch]
func (h *userHandler) updateCoverImage(c *gin.Context) {
	h.replaceImage(c, "coverImage", "Cover image updated successfully", h.userService.UpdateCoverImage)
}

func (h *userHandler) replaceImage(c *gin.Context, field, message string,
	update func(ctx context.Context, userID, localPath string) (*domain.UserProfile, error)) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.Unauthorized("Unauthorized request", nil))
		return
	}

	localPath, err := h.saveUpload(c, field)
	defer removeTemp(c, localPath)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := update(c.Request.Context(), userID, localPath)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user, message)
}
