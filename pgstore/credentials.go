package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/secret"
)

// CredentialStore adapts Store to credential.Store.
type CredentialStore struct{ s *Store }

// Credentials returns the credential.Store view of s.
func (s *Store) Credentials() *CredentialStore {
	return &CredentialStore{s: s}
}

var _ credential.Store = (*CredentialStore)(nil)

func credentialError(err error) error {
	return fmt.Errorf("%w: %v", credential.ErrUnavailable, err)
}

func (st *CredentialStore) Replace(ctx context.Context, rec *credential.Record, _ time.Time) error {
	_, err := st.s.pool.Exec(ctx, `
		INSERT INTO `+st.s.table(credentialsTableName)+` (subject_key, purpose, hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (subject_key, purpose) DO UPDATE SET
			hash = EXCLUDED.hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, rec.SubjectKey, int16(rec.Purpose), rec.Hash, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return credentialError(err)
	}
	return nil
}

// Consume deletes the live record only when its digest matches candidate.
func (st *CredentialStore) Consume(ctx context.Context, subjectKey string, purpose credential.Purpose, candidate string, now time.Time) (bool, error) {
	var one int
	err := st.s.pool.QueryRow(ctx, `
		DELETE FROM `+st.s.table(credentialsTableName)+`
		WHERE subject_key = $1 AND purpose = $2 AND expires_at > $3 AND hash = $4
		RETURNING 1
	`, subjectKey, int16(purpose), now, secret.HashSecret(candidate)).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, credentialError(err)
	}
	return true, nil
}

func (st *CredentialStore) DeleteExpired(ctx context.Context, purpose credential.Purpose, now time.Time) (int, error) {
	query := `DELETE FROM ` + st.s.table(credentialsTableName) + ` WHERE expires_at <= $1`
	args := []any{now}
	if purpose != credential.AnyPurpose {
		query += ` AND purpose = $2`
		args = append(args, int16(purpose))
	}
	tag, err := st.s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, credentialError(err)
	}
	return int(tag.RowsAffected()), nil
}
