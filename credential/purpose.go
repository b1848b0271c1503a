package credential

import "fmt"

// Purpose distinguishes credential families. Values are persisted; never
// renumber them.
type Purpose uint8

const (
	// AnyPurpose selects every purpose in [Manager.SweepExpired].
	AnyPurpose Purpose = iota
	PurposeSignInCode
	PurposeEmailVerification
	PurposePasswordReset
)

// Purposes lists every concrete purpose.
var Purposes = []Purpose{
	PurposeSignInCode,
	PurposeEmailVerification,
	PurposePasswordReset,
}

// String returns the wire name of p.
func (p Purpose) String() string {
	switch p {
	case AnyPurpose:
		return "any"
	case PurposeSignInCode:
		return "sign-in-code"
	case PurposeEmailVerification:
		return "email-verification"
	case PurposePasswordReset:
		return "password-reset"
	default:
		return fmt.Sprintf("purpose(%d)", uint8(p))
	}
}

// Valid reports whether p is a concrete purpose.
func (p Purpose) Valid() bool {
	return p >= PurposeSignInCode && p <= PurposePasswordReset
}

// ParsePurpose is the inverse of [Purpose.String].
func ParsePurpose(s string) (Purpose, error) {
	switch s {
	case "any", "":
		return AnyPurpose, nil
	case "sign-in-code":
		return PurposeSignInCode, nil
	case "email-verification":
		return PurposeEmailVerification, nil
	case "password-reset":
		return PurposePasswordReset, nil
	}
	return AnyPurpose, fmt.Errorf("unknown credential purpose %q", s)
}
