package domain

import "strings"

type TrustLevel string

const (
	TrustUnverified TrustLevel = "UNVERIFIED"
	TrustTrusted    TrustLevel = "TRUSTED"
	TrustBlocked    TrustLevel = "BLOCKED"
)

func ParseTrustLevel(raw string) (TrustLevel, bool) {
	switch lvl := TrustLevel(strings.ToUpper(strings.TrimSpace(raw))); lvl {
	case TrustUnverified, TrustTrusted, TrustBlocked:
		return lvl, true
	default:
		return "", false
	}
}

// VerificationRequired is true for every level except TRUSTED.
// BLOCKED is deliberately handled the same as UNVERIFIED.
func (t TrustLevel) VerificationRequired() bool {
	return t != TrustTrusted
}
