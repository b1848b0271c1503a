package goSession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/mail"
)

// IssueCredential replaces any outstanding credential for (subjectKey,
// purpose) with a fresh one and returns its plaintext. Only the digest is
// stored; delivering the plaintext is the caller's job.
func (e *Engine) IssueCredential(ctx context.Context, subjectKey string, purpose Purpose) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if err := e.throttle(ctx, "issue:"+purpose.String(), subjectKey, purpose, e.issueRule()); err != nil {
		return "", err
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	plaintext, rec, err := e.credentials.Issue(sctx, subjectKey, purpose)
	if err != nil {
		return "", e.credentialError("credential_issue", err)
	}

	e.metricInc(MetricCredentialIssued)
	e.emitAudit(ctx, auditEventCredentialIssued, true, "", "", nil, func() map[string]string {
		return map[string]string{
			"purpose":    purpose.String(),
			"expires_at": rec.ExpiresAt.Format(time.RFC3339),
		}
	})
	return plaintext, nil
}

// VerifyCredential consumes the credential for (subjectKey, purpose) when
// candidate matches and it has not expired. A wrong candidate leaves the
// credential in place for another attempt. Absent, expired, used and wrong
// all report false with a nil error.
func (e *Engine) VerifyCredential(ctx context.Context, subjectKey string, purpose Purpose, candidate string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if err := e.throttle(ctx, "verify:"+purpose.String(), subjectKey, purpose, e.verifyRule()); err != nil {
		return false, err
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	ok, err := e.credentials.Verify(sctx, subjectKey, purpose, candidate)
	if err != nil {
		return false, e.credentialError("credential_verify", err)
	}

	if !ok {
		e.metricInc(MetricCredentialRejected)
		e.emitAudit(ctx, auditEventCredentialVerified, false, "", "", ErrInvalidCode, func() map[string]string {
			return map[string]string{"purpose": purpose.String()}
		})
		return false, nil
	}

	e.metricInc(MetricCredentialVerified)
	e.emitAudit(ctx, auditEventCredentialVerified, true, "", "", nil, func() map[string]string {
		return map[string]string{"purpose": purpose.String()}
	})
	return true, nil
}

// SweepExpired deletes credentials whose expiry has passed. [AnyPurpose]
// sweeps every purpose.
func (e *Engine) SweepExpired(ctx context.Context, purpose Purpose) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}

	n, err := e.credentials.SweepExpired(ctx, purpose)
	if err != nil {
		return n, e.credentialError("credential_sweep", err)
	}

	e.metricAdd(MetricCredentialSwept, n)
	e.emitAudit(ctx, auditEventSweep, true, "", "", nil, func() map[string]string {
		return map[string]string{
			"kind":    "credential",
			"purpose": purpose.String(),
			"count":   strconv.Itoa(n),
		}
	})
	return n, nil
}

// CredentialTTL returns the configured lifetime for purpose.
func (e *Engine) CredentialTTL(purpose Purpose) time.Duration {
	pol, ok := e.credentials.Policy(purpose)
	if !ok {
		return 0
	}
	return pol.TTL
}

func (e *Engine) credentialError(op string, err error) error {
	if errors.Is(err, credential.ErrUnknownPurpose) || errors.Is(err, credential.ErrEmptySubject) {
		return err
	}
	return e.storageError(op, err)
}

func (e *Engine) issueRule() rate.Rule {
	return rate.Rule{Limit: e.config.Throttle.IssueLimit, Window: e.config.Throttle.IssueWindow}
}

func (e *Engine) verifyRule() rate.Rule {
	return rate.Rule{Limit: e.config.Throttle.VerifyLimit, Window: e.config.Throttle.VerifyWindow}
}

// throttle charges one attempt against the (scope, subject) window.
// Throttle storage failures fail closed.
func (e *Engine) throttle(ctx context.Context, scope, subjectKey string, purpose Purpose, rule rate.Rule) error {
	if e.limiter == nil || subjectKey == "" {
		return nil
	}

	sctx, cancel := e.storageContext(ctx)
	defer cancel()

	err := e.limiter.Hit(sctx, scope, subjectKey, rule)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.emitRateLimit(ctx, scope, purpose)
		return ErrRateLimited
	default:
		return e.storageError("throttle", err)
	}
}

// deliver renders the template for purpose and sends it to addr. A send
// failure leaves the credential valid.
func (e *Engine) deliver(ctx context.Context, purpose Purpose, addr, code string) error {
	msg, err := e.templates.Render(mail.Kind(purpose.String()), mail.Data{
		To:        addr,
		Code:      code,
		ExpiresIn: e.CredentialTTL(purpose),
	})
	if err != nil {
		return err
	}

	if err := e.mailer.Send(ctx, msg); err != nil {
		e.metricInc(MetricMailFailure)
		e.logger.Warn().Err(err).Str("purpose", purpose.String()).Msg("credential email not delivered")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}
