package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/mail"
)

// RequestSignInCode emails a sign-in code to email. The reply is the same
// whether or not an account exists; unknown addresses are throttled but get
// no code.
func (e *Engine) RequestSignInCode(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}

	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}

	return e.requestCodeByEmail(ctx, PurposeSignInCode, addr)
}

// SignInWithCode consumes the sign-in code for email and starts a session.
// Every credential failure is ErrInvalidCode.
func (e *Engine) SignInWithCode(ctx context.Context, email, code string, meta SessionMetadata) (SignInResult, error) {
	if err := e.ready(); err != nil {
		return SignInResult{}, err
	}

	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		e.signInFailed(ctx, "code", "", ErrInvalidCode)
		return SignInResult{}, ErrInvalidCode
	}

	ok, err := e.VerifyCredential(ctx, addr, PurposeSignInCode, code)
	if err != nil {
		e.signInFailed(ctx, "code", "", err)
		return SignInResult{}, err
	}
	if !ok {
		e.signInFailed(ctx, "code", "", ErrInvalidCode)
		return SignInResult{}, ErrInvalidCode
	}

	user, err := e.lookupUser(ctx, LookupByEmail{Email: addr})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			err = ErrInvalidCode
		}
		e.signInFailed(ctx, "code", "", err)
		return SignInResult{}, err
	}

	// A consumed sign-in code proves control of the address.
	if !user.EmailVerified {
		if err := e.markEmailVerified(ctx, user.ID); err != nil {
			e.logger.Warn().Err(err).Str("user_id", user.ID).Msg("email not marked verified after code sign-in")
		} else {
			user.EmailVerified = true
		}
	}

	return e.startSession(ctx, "code", user, meta)
}

// SignInWithPassword checks email and password and starts a session. An
// unknown email and a wrong password both return ErrInvalidCredentials after
// the same amount of hashing work.
func (e *Engine) SignInWithPassword(ctx context.Context, email, plaintext string, meta SessionMetadata) (SignInResult, error) {
	if err := e.ready(); err != nil {
		return SignInResult{}, err
	}

	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		e.passwords.VerifyDummy(plaintext)
		e.signInFailed(ctx, "password", "", ErrInvalidCredentials)
		return SignInResult{}, ErrInvalidCredentials
	}

	if err := e.throttle(ctx, "password", addr, AnyPurpose, e.verifyRule()); err != nil {
		e.signInFailed(ctx, "password", "", err)
		return SignInResult{}, err
	}

	user, err := e.lookupUser(ctx, LookupByEmail{Email: addr})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.signInFailed(ctx, "password", "", err)
			return SignInResult{}, err
		}
		e.passwords.VerifyDummy(plaintext)
		e.signInFailed(ctx, "password", "", ErrInvalidCredentials)
		return SignInResult{}, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		e.passwords.VerifyDummy(plaintext)
		e.signInFailed(ctx, "password", user.ID, ErrInvalidCredentials)
		return SignInResult{}, ErrInvalidCredentials
	}

	ok, err := e.passwords.Verify(plaintext, user.PasswordHash)
	if err != nil {
		e.logger.Warn().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
	}
	if !ok {
		e.signInFailed(ctx, "password", user.ID, ErrInvalidCredentials)
		return SignInResult{}, ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		e.upgradePasswordHash(ctx, user, plaintext)
	}

	return e.startSession(ctx, "password", user, meta)
}

func (e *Engine) upgradePasswordHash(ctx context.Context, user User, plaintext string) {
	stale, err := e.passwords.NeedsUpgrade(user.PasswordHash)
	if err != nil || !stale {
		return
	}

	hash, err := e.passwords.Hash(plaintext)
	if err != nil {
		// Passwords set under an older, looser policy cannot be rehashed.
		return
	}
	if err := e.setPasswordHash(ctx, user.ID, hash); err != nil {
		e.logger.Warn().Err(err).Str("user_id", user.ID).Msg("password rehash not stored")
	}
}

func (e *Engine) startSession(ctx context.Context, method string, user User, meta SessionMetadata) (SignInResult, error) {
	token, sess, err := e.CreateSession(ctx, user.ID, meta)
	if err != nil {
		e.signInFailed(ctx, method, user.ID, err)
		return SignInResult{}, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignIn, true, user.ID, sess.ID, nil, func() map[string]string {
		return map[string]string{"method": method}
	})
	return SignInResult{Token: token, Session: sess, User: user}, nil
}

func (e *Engine) signInFailed(ctx context.Context, method, userID string, err error) {
	e.metricInc(MetricSignInFailure)
	e.emitAudit(ctx, auditEventSignIn, false, userID, "", err, func() map[string]string {
		return map[string]string{"method": method}
	})
}

// requestCodeByEmail issues and mails a credential keyed by addr. Unknown
// addresses still consume throttle budget and then silently succeed.
func (e *Engine) requestCodeByEmail(ctx context.Context, purpose Purpose, addr string) error {
	_, err := e.lookupUser(ctx, LookupByEmail{Email: addr})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if err := e.throttle(ctx, "issue:"+purpose.String(), addr, purpose, e.issueRule()); err != nil {
			return err
		}
		e.emitAudit(ctx, auditEventCredentialIssued, false, "", "", ErrUserNotFound, func() map[string]string {
			return map[string]string{"purpose": purpose.String()}
		})
		return nil
	}

	code, err := e.IssueCredential(ctx, addr, purpose)
	if err != nil {
		return err
	}
	return e.deliver(ctx, purpose, addr, code)
}

func (e *Engine) setPasswordHash(ctx context.Context, userID, hash string) error {
	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	if err := e.users.SetPasswordHash(sctx, userID, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return e.storageError("set_password_hash", err)
	}
	return nil
}

func (e *Engine) markEmailVerified(ctx context.Context, userID string) error {
	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	if err := e.users.MarkEmailVerified(sctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return e.storageError("mark_email_verified", err)
	}
	return nil
}
