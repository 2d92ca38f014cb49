package services

import (
	portsrepo "github.com/SscSPs/videotube_backend/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/videotube_backend/internal/core/ports/services"
	"github.com/SscSPs/videotube_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, objectStore portssvc.ObjectStore) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Hasher = NewPasswordHasher()
	container.Token = NewTokenService(cfg)
	container.User = NewUserService(
		repos.UserRepo,
		container.Hasher,
		container.Token,
		objectStore,
		WithUploadTimeout(cfg.UploadTimeout),
		WithSessionRevocationOnPasswordChange(cfg.RevokeSessionsOnPasswordChange),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.UserSvcFacade  = (*userService)(nil)
	_ portssvc.TokenSvcFacade = (*tokenService)(nil)
	_ portssvc.PasswordHasher = bcryptHasher{}
)
