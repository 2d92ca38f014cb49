package services

import (
	"errors"
	"fmt"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type bcryptHasher struct{}

// NewPasswordHasher returns the bcrypt-backed PasswordHasher.
func NewPasswordHasher() portssvc.PasswordHasher {
	return bcryptHasher{}
}

func (bcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("empty password: %w", apperrors.ErrValidation)
	}
	hash, err := utils.HashPassword(plaintext)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("password exceeds %d bytes: %w", utils.MaxPasswordBytes, apperrors.ErrValidation)
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func (bcryptHasher) Verify(plaintext, digest string) bool {
	if plaintext == "" || digest == "" {
		return false
	}
	return utils.CheckPasswordHash(plaintext, digest)
}
