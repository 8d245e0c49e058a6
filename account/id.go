package account

import (
	"fmt"
	"regexp"
)

// ID is a validated account identifier. The jurisdiction prefix encodes
// where the account was issued: CR/MF/MLT/MX for real native accounts,
// VRTC for demo, DX and MTR/MTD for external-platform accounts.
type ID string

var (
	nativeIDPattern   = regexp.MustCompile(`^(CR|MF|MLT|MX|VRTC)\d+$`)
	externalIDPattern = regexp.MustCompile(`^(DX[RD]?|MT[RD])\d+$`)
)

// ParseError reports an account id that does not match any known
// jurisdiction-prefix pattern.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("account: invalid account id %q", e.Input)
}

// ParseID validates a raw account identifier. Every registry boundary goes
// through here so malformed ids are rejected in one place.
func ParseID(s string) (ID, error) {
	if nativeIDPattern.MatchString(s) || externalIDPattern.MatchString(s) {
		return ID(s), nil
	}
	return "", &ParseError{Input: s}
}

// IsDemoID reports whether the id carries the demo jurisdiction prefix.
func IsDemoID(id ID) bool {
	return len(id) >= 4 && id[:4] == "VRTC"
}

func (id ID) String() string { return string(id) }
