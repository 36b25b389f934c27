package engine

import (
	"strings"
	"unicode"
)

// DefaultSuffix is the transport domain for individual users.
const DefaultSuffix = "@s.whatsapp.net"

// Addressing turns caller-supplied phone numbers into transport addresses.
type Addressing struct {
	// CountryCode replaces TrunkPrefix on national numbers. Empty disables
	// the rewrite.
	CountryCode string
	TrunkPrefix string
	Suffix      string
}

// Normalize maps target to a transport address. Values that already carry
// a domain pass through unchanged.
func (a Addressing) Normalize(target string) (string, error) {
	target = strings.TrimSpace(target)
	if strings.Contains(target, "@") {
		return target, nil
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, target)
	if digits == "" {
		return "", ErrInvalidTarget
	}

	if a.CountryCode != "" && a.TrunkPrefix != "" &&
		!strings.HasPrefix(digits, a.CountryCode) && strings.HasPrefix(digits, a.TrunkPrefix) {
		digits = a.CountryCode + strings.TrimPrefix(digits, a.TrunkPrefix)
	}

	suffix := a.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return digits + suffix, nil
}

// addressUser returns the user part of a transport address, without the
// domain or device suffix.
func addressUser(addr string) string {
	user, _, _ := strings.Cut(addr, "@")
	user, _, _ = strings.Cut(user, ":")
	return user
}

// validAddress reports whether a directory address is usable: non-empty
// and containing at least one digit.
func validAddress(addr string) bool {
	return strings.ContainsFunc(addr, unicode.IsDigit)
}
