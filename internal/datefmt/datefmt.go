// Package datefmt coerces loosely typed date input into canonical
// YYYY-MM-DD calendar days.
package datefmt

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DayLayout is the canonical output format.
const DayLayout = "2006-01-02"

// MaxEpochMillis bounds numeric input to the range a browser Date accepts.
const MaxEpochMillis = 8.64e15

var canonical = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// fallbackLayouts cover browser toString output that dateparse rejects once
// the trailing zone name is stripped.
var fallbackLayouts = []string{
	"Mon Jan 02 2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"2006-1-2",
	"2 Jan 2006",
}

// Normalizer turns arbitrary date input into the calendar day it denotes in
// Location. The zero value uses time.Local.
type Normalizer struct {
	Location *time.Location
}

// New returns a Normalizer for loc.
func New(loc *time.Location) *Normalizer {
	return &Normalizer{Location: loc}
}

func (n *Normalizer) location() *time.Location {
	if n == nil || n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Normalize returns the canonical day for v and true, or "" and false when v
// is empty or cannot be read as a date. Canonical strings pass through
// untouched. Instants are moved into the normalizer's location before being
// truncated, so the day matches local wall-clock time rather than UTC.
// Days outside years 0000-9999 are rejected.
func (n *Normalizer) Normalize(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return n.normalizeString(x)
	case *string:
		if x == nil {
			return "", false
		}
		return n.normalizeString(*x)
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return n.day(x)
	case *time.Time:
		if x == nil || x.IsZero() {
			return "", false
		}
		return n.day(*x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > MaxEpochMillis {
			return "", false
		}
		return n.day(time.UnixMilli(int64(x)))
	case int:
		return n.epoch(int64(x))
	case int64:
		return n.epoch(x)
	}
	return "", false
}

func (n *Normalizer) epoch(ms int64) (string, bool) {
	if ms > MaxEpochMillis || ms < -MaxEpochMillis {
		return "", false
	}
	return n.day(time.UnixMilli(ms))
}

func (n *Normalizer) normalizeString(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if canonical.MatchString(s) {
		return s, true
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	loc := n.location()
	if t, err := dateparse.ParseIn(s, loc); err == nil {
		return n.day(t)
	}

	// Browser date strings end with the zone name in parentheses.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
		if t, err := dateparse.ParseIn(s, loc); err == nil {
			return n.day(t)
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return n.day(t)
		}
	}
	return "", false
}

func (n *Normalizer) day(t time.Time) (string, bool) {
	s := t.In(n.location()).Format(DayLayout)
	if !canonical.MatchString(s) {
		return "", false
	}
	return s, true
}
