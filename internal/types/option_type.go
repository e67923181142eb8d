package types

import (
	"fmt"
	"strings"
)

// OptionType is the right of an option contract. Each value carries a short code, used by the
// quote tables, and a sign.
type OptionType int

const (
	OptionTypeCall OptionType = iota + 1
	OptionTypePut
)

// AllOptionTypes lists the accepted option type names.
var AllOptionTypes = []any{"call", "put"}

// Code returns the single-letter code stored in quote tables ("c" or "p").
func (t OptionType) Code() string {
	switch t {
	case OptionTypeCall:
		return "c"
	case OptionTypePut:
		return "p"
	default:
		return ""
	}
}

// Sign returns +1 for calls and -1 for puts.
func (t OptionType) Sign() int {
	switch t {
	case OptionTypeCall:
		return 1
	case OptionTypePut:
		return -1
	default:
		return 0
	}
}

func (t OptionType) String() string {
	switch t {
	case OptionTypeCall:
		return "call"
	case OptionTypePut:
		return "put"
	default:
		return "unknown"
	}
}

// IsValid reports whether t is a call or a put.
func (t OptionType) IsValid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// ParseOptionType parses an option type from its name or code. Only the first letter is
// significant, so "C", "call" and "Calls" are all calls.
func ParseOptionType(s string) (OptionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty option type")
	}

	switch s[0] {
	case 'c':
		return OptionTypeCall, nil
	case 'p':
		return OptionTypePut, nil
	default:
		return 0, fmt.Errorf("invalid option type: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t OptionType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid option type: %d", int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}
