package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/videotube_backend/internal/apperrors"
	"github.com/SscSPs/videotube_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/videotube_backend/internal/core/ports/repositories"
	"github.com/SscSPs/videotube_backend/internal/models"
	"github.com/SscSPs/videotube_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	profileColumns = `user_id, username, email, full_name, avatar_url, cover_image_url, watch_history, created_at, updated_at`
	userColumns    = `user_id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, watch_history, created_at, updated_at`
)

// unsetClauses holds the SET clause that clears each unsettable field.
var unsetClauses = map[domain.UserField]string{
	domain.FieldRefreshToken:  "refresh_token = NULL",
	domain.FieldCoverImageURL: "cover_image_url = ''",
}

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

func scanUser(row pgx.Row) (*domain.User, error) {
	var m models.User
	err := row.Scan(
		&m.UserID,
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.PasswordHash,
		&m.AvatarURL,
		&m.CoverImageURL,
		&m.RefreshToken,
		&m.WatchHistory,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user := mapping.ToDomainUser(m)
	return &user, nil
}

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	var m models.User
	err := row.Scan(
		&m.UserID,
		&m.Username,
		&m.Email,
		&m.FullName,
		&m.AvatarURL,
		&m.CoverImageURL,
		&m.WatchHistory,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user := mapping.ToDomainUser(m)
	return user.Profile(), nil
}

// FindUserByIdentity matches the identity against username or email. Usernames
// cannot contain '@', so at most one row matches; a username match still wins
// over an email match.
func (r *PgxUserRepository) FindUserByIdentity(ctx context.Context, identity string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1 ORDER BY (username = $1) DESC LIMIT 1;`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, domain.NormalizeIdentity(identity)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by identity: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1;`
	user, err := scanUser(r.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID %s: %w", userID, err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindProfileByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE user_id = $1;`
	profile, err := scanProfile(r.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find profile by ID %s: %w", userID, err)
	}
	return profile, nil
}

func (r *PgxUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2);`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, domain.NormalizeIdentity(username), domain.NormalizeIdentity(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for existing user: %w", err)
	}
	return exists, nil
}

func (r *PgxUserRepository) CreateUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.UserID,
		m.Username,
		m.Email,
		m.FullName,
		m.PasswordHash,
		m.AvatarURL,
		m.CoverImageURL,
		m.RefreshToken,
		m.WatchHistory,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

func (r *PgxUserRepository) UpdateFields(ctx context.Context, userID string, patch domain.UserPatch) (*domain.UserProfile, error) {
	if patch.IsEmpty() {
		return r.FindProfileByID(ctx, userID)
	}
	query, args := buildUserUpdate(userID, patch, time.Now().UTC())
	profile, err := scanProfile(r.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", userID, translateError(err))
	}
	return profile, nil
}

func (r *PgxUserRepository) UnsetField(ctx context.Context, userID string, field domain.UserField) (*domain.UserProfile, error) {
	clause, ok := unsetClauses[field]
	if !ok {
		return nil, fmt.Errorf("field %q cannot be unset: %w", field, apperrors.ErrValidation)
	}
	query := `UPDATE users SET ` + clause + `, updated_at = $2 WHERE user_id = $1 RETURNING ` + profileColumns + `;`
	profile, err := scanProfile(r.Pool.QueryRow(ctx, query, userID, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("failed to unset %s on user %s: %w", field, userID, translateError(err))
	}
	return profile, nil
}

func (r *PgxUserRepository) ReplaceRefreshToken(ctx context.Context, userID, expected, next string) error {
	query := `
		UPDATE users
		SET refresh_token = $3, updated_at = $4
		WHERE user_id = $1 AND refresh_token = $2;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, userID, expected, next, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStaleRefreshToken
	}
	return nil
}

// buildUserUpdate renders an UPDATE for the non-nil fields of patch.
// Column names come from this function only; values are always bound.
func buildUserUpdate(userID string, patch domain.UserPatch, now time.Time) (string, []any) {
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.AvatarURL != nil {
		set("avatar_url", *patch.AvatarURL)
	}
	if patch.CoverImageURL != nil {
		set("cover_image_url", *patch.CoverImageURL)
	}
	if patch.PasswordHash != nil {
		set("password_hash", *patch.PasswordHash)
	}
	if patch.RefreshToken != nil {
		set("refresh_token", *patch.RefreshToken)
	}
	set("updated_at", now)

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $%d RETURNING %s;",
		strings.Join(sets, ", "), len(args), profileColumns)
	return query, args
}
