package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/mail"
)

// ErrEmailTaken is returned by CreateUser for an address already in use.
var ErrEmailTaken = errors.New("pgstore: email already registered")

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var _ goSession.UserProvider = (*Store)(nil)

// CreateUser inserts a user under a normalized email. passwordHash may be
// empty.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (goSession.User, error) {
	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		return goSession.User{}, goSession.ErrInvalidEmail
	}
	u := goSession.User{ID: uuid.NewString(), Email: addr, PasswordHash: passwordHash}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO `+s.table(usersTableName)+` (id, email, password_hash)
		VALUES ($1, $2, $3)
	`, u.ID, u.Email, u.PasswordHash)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return goSession.User{}, ErrEmailTaken
	} else if err != nil {
		return goSession.User{}, fmt.Errorf("pgstore: create user: %w", err)
	}
	return u, nil
}

// LinkProvider attaches an external identity to userID.
func (s *Store) LinkProvider(ctx context.Context, userID, provider, providerUserID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table(identitiesTableName)+` (provider, provider_user_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	`, provider, providerUserID, userID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return goSession.ErrUserNotFound
	} else if err != nil {
		return fmt.Errorf("pgstore: link provider: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, lookup goSession.UserLookup) (goSession.User, error) {
	cols := `u.id, u.email, u.email_verified, u.password_hash`
	var row pgx.Row
	switch l := lookup.(type) {
	case goSession.LookupByID:
		row = s.pool.QueryRow(ctx, `SELECT `+cols+` FROM `+s.table(usersTableName)+` u WHERE u.id = $1`, l.ID)
	case goSession.LookupByEmail:
		row = s.pool.QueryRow(ctx, `SELECT `+cols+` FROM `+s.table(usersTableName)+` u WHERE u.email = $1`, l.Email)
	case goSession.LookupByProviderID:
		row = s.pool.QueryRow(ctx, `
			SELECT `+cols+`
			FROM `+s.table(usersTableName)+` u
			JOIN `+s.table(identitiesTableName)+` i ON i.user_id = u.id
			WHERE i.provider = $1 AND i.provider_user_id = $2
		`, l.Provider, l.ProviderUserID)
	default:
		return goSession.User{}, fmt.Errorf("pgstore: unsupported lookup %T", lookup)
	}

	var u goSession.User
	err := row.Scan(&u.ID, &u.Email, &u.EmailVerified, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return goSession.User{}, goSession.ErrUserNotFound
	} else if err != nil {
		return goSession.User{}, fmt.Errorf("pgstore: get user: %w", err)
	}
	return u, nil
}

func (s *Store) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return s.updateUser(ctx, `password_hash = $2`, userID, hash)
}

func (s *Store) MarkEmailVerified(ctx context.Context, userID string) error {
	return s.updateUser(ctx, `email_verified = TRUE`, userID)
}

func (s *Store) updateUser(ctx context.Context, set string, args ...any) error {
	tag, err := s.pool.Exec(ctx, `UPDATE `+s.table(usersTableName)+` SET `+set+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("pgstore: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return goSession.ErrUserNotFound
	}
	return nil
}
