// Package validate holds the pure address validation rules for server
// addresses submitted by users and bots.
package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MinLength and MaxLength bound the raw address string. 253 is the DNS
	// hostname limit.
	MinLength = 4
	MaxLength = 253
)

var (
	ErrTooShort  = errors.New("address is too short")
	ErrTooLong   = errors.New("address is too long")
	ErrMalformed = errors.New("address is not a valid IP or hostname")
)

var (
	ipv4Pattern     = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})(?::(\d{1,5}))?$`)
	hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*(?::(\d{1,5}))?$`)
)

// Validate checks a free-text server address and returns nil or one of the
// sentinel errors above. Length is checked before syntax so the error kind
// is stable for oversized garbage input.
func Validate(address string) error {
	if len(address) < MinLength {
		return ErrTooShort
	}
	if len(address) > MaxLength {
		return ErrTooLong
	}
	if !IsAddress(address) {
		return ErrMalformed
	}
	return nil
}

// IsAddress reports whether s is a syntactically valid dotted-quad IPv4 or
// hostname, each optionally suffixed with :port (1-65535). It never parses
// into a structure and has no side effects.
func IsAddress(s string) bool {
	if m := ipv4Pattern.FindStringSubmatch(s); m != nil {
		for _, octet := range m[1:5] {
			n, err := strconv.Atoi(octet)
			if err != nil || n > 255 {
				return false
			}
		}
		return validPort(m[5])
	}

	m := hostnamePattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	// A bare all-numeric string already failed the IPv4 branch; reject it
	// here instead of calling it a hostname.
	host := strings.SplitN(s, ":", 2)[0]
	if isAllDigitsAndDots(host) {
		return false
	}
	return validPort(m[4])
}

func validPort(p string) bool {
	if p == "" {
		return true
	}
	n, err := strconv.Atoi(p)
	return err == nil && n >= 1 && n <= 65535
}

func isAllDigitsAndDots(s string) bool {
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
