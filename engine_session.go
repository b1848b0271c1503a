package goSession

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// CreateSession starts a session for userID and returns the plaintext token
// for the client cookie. Blank metadata fields are filled from ctx (see
// [WithClientIP] and [WithUserAgent]).
func (e *Engine) CreateSession(ctx context.Context, userID string, meta SessionMetadata) (string, *Session, error) {
	if err := e.ready(); err != nil {
		return "", nil, err
	}
	if userID == "" {
		return "", nil, errors.New("goSession: empty user id")
	}

	meta = metadataFromContext(ctx, meta)

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	token, sess, err := e.sessions.Create(sctx, userID, meta)
	if err != nil {
		return "", nil, e.storageError("session_create", err)
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, userID, sess.ID, nil, nil)

	return token, sess, nil
}

// ValidateSessionToken resolves a token to [Authenticated] or
// [Unauthenticated]. An expired session is deleted; a session inside its
// renewal window is extended to now + lifetime before returning.
//
// Only infrastructure failures produce an error, and they never produce
// Authenticated.
func (e *Engine) ValidateSessionToken(ctx context.Context, token string) (AuthResult, error) {
	if err := e.ready(); err != nil {
		return Unauthenticated{}, err
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	sctx, cancel := e.storageContext(ctx)
	v, err := e.sessions.Validate(sctx, token)
	cancel()
	if err != nil {
		return Unauthenticated{}, e.storageError("session_validate", err)
	}

	if v.Session == nil {
		if v.Expired {
			e.metricInc(MetricSessionExpired)
		}
		e.metricInc(MetricSessionRejected)
		return Unauthenticated{}, nil
	}

	user, err := e.lookupUser(ctx, LookupByID{ID: v.Session.UserID})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The owner is gone; the session can never be valid again.
			if derr := e.deleteSession(ctx, v.Session.ID); derr != nil {
				e.logger.Warn().Err(derr).Str("session_id", v.Session.ID).Msg("orphaned session not removed")
			}
			e.metricInc(MetricSessionRejected)
			return Unauthenticated{}, nil
		}
		return Unauthenticated{}, err
	}

	e.metricInc(MetricSessionValidated)
	if v.Renewed {
		e.metricInc(MetricSessionRenewed)
	}

	return Authenticated{Session: v.Session, User: user, Renewed: v.Renewed}, nil
}

// InvalidateSession deletes a session by id. Deleting an unknown id is not
// an error.
func (e *Engine) InvalidateSession(ctx context.Context, sessionID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.deleteSession(ctx, sessionID); err != nil {
		e.emitAudit(ctx, auditEventSessionInvalidated, false, "", sessionID, err, nil)
		return err
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSessionInvalidated, true, "", sessionID, nil, nil)
	return nil
}

// InvalidateAllSessionsForUser deletes every session of userID and returns
// how many were removed.
func (e *Engine) InvalidateAllSessionsForUser(ctx context.Context, userID string) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if userID == "" {
		return 0, nil
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	n, err := e.sessions.InvalidateAllForUser(sctx, userID)
	if err != nil {
		err = e.storageError("session_invalidate_all", err)
		e.emitAudit(ctx, auditEventSessionInvalidatedAll, false, userID, "", err, nil)
		return 0, err
	}

	e.metricInc(MetricSessionInvalidatedAll)
	e.emitAudit(ctx, auditEventSessionInvalidatedAll, true, userID, "", nil, func() map[string]string {
		return map[string]string{"count": strconv.Itoa(n)}
	})
	return n, nil
}

// SignOut deletes the session a client token refers to.
func (e *Engine) SignOut(ctx context.Context, token string) error {
	if err := e.ready(); err != nil {
		return err
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	if err := e.sessions.InvalidateToken(sctx, token); err != nil {
		err = e.storageError("session_sign_out", err)
		e.emitAudit(ctx, auditEventSignOut, false, "", "", err, nil)
		return err
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventSignOut, true, "", "", nil, nil)
	return nil
}

// SignOutEverywhere is InvalidateAllSessionsForUser under its flow name.
func (e *Engine) SignOutEverywhere(ctx context.Context, userID string) (int, error) {
	return e.InvalidateAllSessionsForUser(ctx, userID)
}

// SweepExpiredSessions deletes every session past its expiry. It is meant
// for a periodic scheduler; validation already removes expired sessions it
// encounters.
func (e *Engine) SweepExpiredSessions(ctx context.Context) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	n, err := e.sessions.SweepExpired(ctx)
	if err != nil {
		return n, e.storageError("session_sweep", err)
	}

	e.metricAdd(MetricSessionSwept, n)
	e.emitAudit(ctx, auditEventSweep, true, "", "", nil, func() map[string]string {
		return map[string]string{"kind": "session", "count": strconv.Itoa(n)}
	})
	return n, nil
}

func (e *Engine) deleteSession(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	if err := e.sessions.Invalidate(sctx, id); err != nil {
		return e.storageError("session_delete", err)
	}
	return nil
}
