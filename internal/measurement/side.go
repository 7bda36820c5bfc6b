package measurement

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Side is the strap a sample was taken from
type Side int

const (
	// SideOther is an unclassifiable label, excluded from side totals
	SideOther Side = iota
	// SideLeft is the left strap sensor
	SideLeft
	// SideRight is the right strap sensor
	SideRight
	// SideBoth is a center sensor counted toward both straps
	SideBoth
)

// String returns the lowercase side name
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideBoth:
		return "both"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CountsLeft reports whether the side feeds the left accumulator
func (s Side) CountsLeft() bool { return s == SideLeft || s == SideBoth }

// CountsRight reports whether the side feeds the right accumulator
func (s Side) CountsRight() bool { return s == SideRight || s == SideBoth }

// Token sets are matched as substrings, checked in this order.
var (
	leftTokens  = []string{"esquer", "left"}
	rightTokens = []string{"direit", "right"}
	bothTokens  = []string{"amb", "cent", "both"}
)

var folder = cases.Fold()

// foldLabel lowercases and strips diacritics so "Centrô" and "CENTRO" match
func foldLabel(label string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, label)
	if err != nil {
		stripped = label
	}
	return folder.String(stripped)
}

// Classify labels a free-text sensor name. It never fails: anything it
// cannot recognize is SideOther.
func Classify(label string) Side {
	if strings.TrimSpace(label) == "" {
		return SideOther
	}
	l := foldLabel(label)
	switch {
	case containsAny(l, leftTokens):
		return SideLeft
	case containsAny(l, rightTokens):
		return SideRight
	case containsAny(l, bothTokens):
		return SideBoth
	default:
		return SideOther
	}
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
