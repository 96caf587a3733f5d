package reconcile

import (
	"fmt"
	"strconv"
	"strings"
)

// AutoVal is the tri-state automatic validation flag. The zero value is
// AutoValUnknown.
type AutoVal int8

const (
	// AutoValUnknown means there was not enough evidence to validate.
	AutoValUnknown AutoVal = iota
	// AutoValFalse means the detected sectors disagree.
	AutoValFalse
	// AutoValTrue means at least the quorum of detected sectors agree.
	AutoValTrue
)

// Known reports whether v is true or false.
func (v AutoVal) Known() bool { return v == AutoValTrue || v == AutoValFalse }

// String returns the table cell form: "1", "0" or "" for unknown.
func (v AutoVal) String() string {
	switch v {
	case AutoValTrue:
		return "1"
	case AutoValFalse:
		return "0"
	default:
		return ""
	}
}

// ParseAutoVal parses the table cell form written by String. Numeric cells
// such as "1.0" are accepted.
func ParseAutoVal(s string) (AutoVal, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "unknown":
		return AutoValUnknown, nil
	case "true":
		return AutoValTrue, nil
	case "false":
		return AutoValFalse, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return AutoValUnknown, fmt.Errorf("reconcile: invalid AutoVal %q", s)
	}
	switch f {
	case 1:
		return AutoValTrue, nil
	case 0:
		return AutoValFalse, nil
	}
	return AutoValUnknown, fmt.Errorf("reconcile: invalid AutoVal %q", s)
}

func autoValOf(b bool) AutoVal {
	if b {
		return AutoValTrue
	}
	return AutoValFalse
}
