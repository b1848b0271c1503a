package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/goSession/session"
)

// SessionStore adapts Store to session.Store.
type SessionStore struct{ s *Store }

// Sessions returns the session.Store view of s.
func (s *Store) Sessions() *SessionStore {
	return &SessionStore{s: s}
}

var _ session.Store = (*SessionStore)(nil)

func sessionError(err error) error {
	return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
}

func (st *SessionStore) Save(ctx context.Context, sess *session.Session, _ time.Time) error {
	_, err := st.s.pool.Exec(ctx, `
		INSERT INTO `+st.s.table(sessionsTableName)+` (id, user_id, created_at, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			ip_address = EXCLUDED.ip_address,
			user_agent = EXCLUDED.user_agent
	`, sess.ID, sess.UserID, sess.CreatedAt, sess.ExpiresAt, sess.IPAddress, sess.UserAgent)
	if err != nil {
		return sessionError(err)
	}
	return nil
}

func (st *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess := &session.Session{ID: id}
	err := st.s.pool.QueryRow(ctx, `
		SELECT user_id, created_at, expires_at, ip_address, user_agent
		FROM `+st.s.table(sessionsTableName)+`
		WHERE id = $1
	`, id).Scan(&sess.UserID, &sess.CreatedAt, &sess.ExpiresAt, &sess.IPAddress, &sess.UserAgent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	} else if err != nil {
		return nil, sessionError(err)
	}
	sess.CreatedAt = utc(sess.CreatedAt)
	sess.ExpiresAt = utc(sess.ExpiresAt)
	return sess, nil
}

// Extend keeps the later of the stored and requested expiry.
func (st *SessionStore) Extend(ctx context.Context, id string, expiresAt, _ time.Time) (time.Time, error) {
	var effective time.Time
	err := st.s.pool.QueryRow(ctx, `
		UPDATE `+st.s.table(sessionsTableName)+`
		SET expires_at = GREATEST(expires_at, $2)
		WHERE id = $1
		RETURNING expires_at
	`, id, expiresAt).Scan(&effective)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, session.ErrNotFound
	} else if err != nil {
		return time.Time{}, sessionError(err)
	}
	return utc(effective), nil
}

func (st *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := st.s.pool.Exec(ctx, `DELETE FROM `+st.s.table(sessionsTableName)+` WHERE id = $1`, id); err != nil {
		return sessionError(err)
	}
	return nil
}

func (st *SessionStore) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := st.s.pool.Exec(ctx, `DELETE FROM `+st.s.table(sessionsTableName)+` WHERE user_id = $1`, userID)
	if err != nil {
		return 0, sessionError(err)
	}
	return int(tag.RowsAffected()), nil
}

func (st *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := st.s.pool.Exec(ctx, `DELETE FROM `+st.s.table(sessionsTableName)+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, sessionError(err)
	}
	return int(tag.RowsAffected()), nil
}
