package dto

// RegisterUserRequest is the multipart form for creating an account.
// The file paths are filled in by the handler after the uploads are saved to
// the temp directory.
type RegisterUserRequest struct {
	FullName string `form:"fullName" json:"fullName"`
	Username string `form:"username" json:"username" binding:"omitempty,max=64,excludes=@"`
	Email    string `form:"email" json:"email" binding:"omitempty,email,max=254"`
	Password string `form:"password" json:"password" binding:"omitempty,max=72"`

	AvatarLocalPath     string `form:"-" json:"-"`
	CoverImageLocalPath string `form:"-" json:"-"`
}

// LoginRequest accepts either a username or an email as the identity.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity returns the username if present, otherwise the email.
func (r LoginRequest) Identity() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// RefreshTokenRequest lets non-cookie clients send the refresh token in the body.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest defines the body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword" binding:"omitempty,max=72"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Using pointers to differentiate between omitted fields and zero-value fields.
type UpdateAccountRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=254"`
	FullName *string `json:"fullName"`
}
