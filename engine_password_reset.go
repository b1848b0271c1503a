package goSession

import (
	"context"
	"errors"
	"strconv"

	"github.com/MrEthical07/goSession/mail"
)

// RequestPasswordReset mails a reset token to email. Unknown addresses get
// the same nil reply and no token.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}

	return e.requestCodeByEmail(ctx, PurposePasswordReset, addr)
}

// ResetPassword consumes the reset token for email, stores the new password
// hash, deletes every session of the user and starts a fresh one.
//
// The new password is checked against the policy before the token is
// touched, so a rejected password leaves the token usable.
func (e *Engine) ResetPassword(ctx context.Context, email, token, newPassword string, meta SessionMetadata) (SignInResult, error) {
	if err := e.ready(); err != nil {
		return SignInResult{}, err
	}

	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		e.resetFailed(ctx, "", ErrInvalidCode)
		return SignInResult{}, ErrInvalidCode
	}

	hash, err := e.HashPassword(newPassword)
	if err != nil {
		e.resetFailed(ctx, "", err)
		return SignInResult{}, err
	}

	ok, err := e.VerifyCredential(ctx, addr, PurposePasswordReset, token)
	if err != nil {
		e.resetFailed(ctx, "", err)
		return SignInResult{}, err
	}
	if !ok {
		e.resetFailed(ctx, "", ErrInvalidCode)
		return SignInResult{}, ErrInvalidCode
	}

	user, err := e.lookupUser(ctx, LookupByEmail{Email: addr})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			err = ErrInvalidCode
		}
		e.resetFailed(ctx, "", err)
		return SignInResult{}, err
	}

	if err := e.setPasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			err = ErrInvalidCode
		}
		e.resetFailed(ctx, user.ID, err)
		return SignInResult{}, err
	}
	user.PasswordHash = hash

	n, err := e.InvalidateAllSessionsForUser(ctx, user.ID)
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", user.ID).Msg("sessions not invalidated after password reset")
		e.resetFailed(ctx, user.ID, err)
		return SignInResult{}, err
	}

	e.metricInc(MetricPasswordReset)
	e.emitAudit(ctx, auditEventPasswordReset, true, user.ID, "", nil, func() map[string]string {
		return map[string]string{"sessions_invalidated": strconv.Itoa(n)}
	})

	// The reset token proved control of the address.
	if !user.EmailVerified {
		if err := e.markEmailVerified(ctx, user.ID); err == nil {
			user.EmailVerified = true
		}
	}

	return e.startSession(ctx, "password_reset", user, meta)
}

func (e *Engine) resetFailed(ctx context.Context, userID string, err error) {
	e.emitAudit(ctx, auditEventPasswordReset, false, userID, "", err, nil)
}
