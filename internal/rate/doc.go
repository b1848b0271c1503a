// Package rate implements Redis fixed-window counters used to throttle
// credential issuance and verification attempts.
//
// # Window semantics
//
// INCR + conditional PEXPIRE on the first hit. Keys are
// <prefix>:<scope>:<digest of subject>, so raw email addresses never appear
// in Redis key names.
//
// # What this package must NOT do
//
//   - Decide policy. Callers pick scopes and limits.
//   - Be imported outside the goSession module.
package rate
