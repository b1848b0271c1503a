package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricSessionValidated, Name: "gosession_session_validated_total", Help: "Session tokens that validated successfully."},
	{ID: goSession.MetricSessionRejected, Name: "gosession_session_rejected_total", Help: "Session tokens rejected as unknown or malformed."},
	{ID: goSession.MetricSessionRenewed, Name: "gosession_session_renewed_total", Help: "Sessions extended by sliding renewal."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions deleted lazily on validation after expiry."},
	{ID: goSession.MetricSessionInvalidated, Name: "gosession_session_invalidated_total", Help: "Sessions invalidated individually."},
	{ID: goSession.MetricSessionInvalidatedAll, Name: "gosession_session_invalidated_all_total", Help: "Invalidate-all operations for a user."},
	{ID: goSession.MetricSessionSwept, Name: "gosession_session_swept_total", Help: "Expired sessions removed by sweeps."},
	{ID: goSession.MetricCredentialIssued, Name: "gosession_credential_issued_total", Help: "One-time credentials issued."},
	{ID: goSession.MetricCredentialVerified, Name: "gosession_credential_verified_total", Help: "One-time credentials consumed successfully."},
	{ID: goSession.MetricCredentialRejected, Name: "gosession_credential_rejected_total", Help: "One-time credential checks that did not match."},
	{ID: goSession.MetricCredentialSwept, Name: "gosession_credential_swept_total", Help: "Expired one-time credentials removed by sweeps."},
	{ID: goSession.MetricSignInSuccess, Name: "gosession_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_sign_in_failure_total", Help: "Failed sign-ins."},
	{ID: goSession.MetricEmailVerified, Name: "gosession_email_verified_total", Help: "Completed email verifications."},
	{ID: goSession.MetricPasswordReset, Name: "gosession_password_reset_total", Help: "Completed password resets."},
	{ID: goSession.MetricRateLimitHit, Name: "gosession_rate_limit_hit_total", Help: "Throttle checks that denied requests."},
	{ID: goSession.MetricMailFailure, Name: "gosession_mail_failure_total", Help: "Failed mail deliveries."},
	{ID: goSession.MetricStorageFailure, Name: "gosession_storage_failure_total", Help: "Backing store operations that failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricValidateLatency, Name: "gosession_validate_latency_seconds", Help: "Session validation latency."},
}

// AuditDroppedName is the counter for audit events dropped under backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// records one more bucket for +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters that
// flatten buckets into separate instruments.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-slot array, zero filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// ApproximateSum estimates the histogram sum in seconds using each bucket's
// upper bound. The +Inf bucket is counted at the largest finite bound.
func ApproximateSum(raw [8]uint64) float64 {
	var sum float64
	for i, n := range raw {
		bound := HistogramUpperBounds[len(HistogramUpperBounds)-1]
		if i < len(HistogramUpperBounds) {
			bound = HistogramUpperBounds[i]
		}
		sum += float64(n) * bound
	}
	return sum
}
