package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/mail"
)

// RequestEmailVerification mails a verification code to the user's address.
// It does nothing for an already verified user.
func (e *Engine) RequestEmailVerification(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.lookupUser(ctx, LookupByID{ID: userID})
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}

	addr, err := mail.NormalizeAddress(user.Email)
	if err != nil {
		return ErrInvalidEmail
	}

	code, err := e.IssueCredential(ctx, user.ID, PurposeEmailVerification)
	if err != nil {
		return err
	}
	return e.deliver(ctx, PurposeEmailVerification, addr, code)
}

// VerifyEmail consumes the verification code of userID and marks the
// address verified.
func (e *Engine) VerifyEmail(ctx context.Context, userID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}

	ok, err := e.VerifyCredential(ctx, userID, PurposeEmailVerification, code)
	if err != nil {
		e.emitAudit(ctx, auditEventEmailVerified, false, userID, "", err, nil)
		return err
	}
	if !ok {
		e.emitAudit(ctx, auditEventEmailVerified, false, userID, "", ErrInvalidCode, nil)
		return ErrInvalidCode
	}

	if err := e.markEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			err = ErrInvalidCode
		}
		e.emitAudit(ctx, auditEventEmailVerified, false, userID, "", err, nil)
		return err
	}

	e.metricInc(MetricEmailVerified)
	e.emitAudit(ctx, auditEventEmailVerified, true, userID, "", nil, nil)
	return nil
}
