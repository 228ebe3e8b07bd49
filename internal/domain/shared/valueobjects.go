package shared

import (
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identity Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Identity is the opaque, stable user identifier issued by the authentication
// collaborator. Lookups by identity return at most one student.
type Identity string

// String returns the string representation.
func (i Identity) String() string {
	return string(i)
}

// IsEmpty checks if the identity is blank.
func (i Identity) IsEmpty() bool {
	return strings.TrimSpace(string(i)) == ""
}

// NewIdentity trims and validates an identity.
func NewIdentity(raw string) (Identity, error) {
	id := Identity(strings.TrimSpace(raw))
	if id.IsEmpty() {
		return "", ErrEmptyIdentity
	}
	return id, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank is a 1-based position on the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0
)

// IsValid checks if the rank is a real position.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// Medal returns a medal emoji for the podium.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Timestamps
// ═══════════════════════════════════════════════════════════════════════════

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
