package mapping

import (
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	"github.com/SscSPs/videotube_backend/internal/models"
)

// ToModelUser converts a domain User to a model User. A nil watch history
// becomes an empty one so the column never receives NULL.
func ToModelUser(d domain.User) models.User {
	history := d.WatchHistory
	if history == nil {
		history = []string{}
	}
	return models.User{
		UserID:        d.UserID,
		Username:      d.Username,
		Email:         d.Email,
		FullName:      d.FullName,
		PasswordHash:  d.PasswordHash,
		AvatarURL:     d.AvatarURL,
		CoverImageURL: d.CoverImageURL,
		RefreshToken:  d.RefreshToken,
		WatchHistory:  history,
		Timestamps:    ToModelTimestamps(d.Timestamps),
	}
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	return domain.User{
		UserID:        m.UserID,
		Username:      m.Username,
		Email:         m.Email,
		FullName:      m.FullName,
		PasswordHash:  m.PasswordHash,
		AvatarURL:     m.AvatarURL,
		CoverImageURL: m.CoverImageURL,
		RefreshToken:  m.RefreshToken,
		WatchHistory:  m.WatchHistory,
		Timestamps:    ToDomainTimestamps(m.Timestamps),
	}
}
