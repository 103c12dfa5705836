package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day format.
const DayLayout = "2006-01-02"

// Day is a calendar day stored as YYYY-MM-DD. Postgres hands back a
// time.Time for date columns and sqlite may return text, so Scan accepts both.
type Day string

// DayOf returns a pointer to a Day holding s, or nil when s is empty.
func DayOf(s string) *Day {
	if s == "" {
		return nil
	}
	d := Day(s)
	return &d
}

func (d Day) String() string {
	return string(d)
}

func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Day(v.Format(DayLayout))
	case string:
		*d = Day(truncateDay(v))
	case []byte:
		*d = Day(truncateDay(string(v)))
	default:
		return fmt.Errorf("cannot scan %T into Day", src)
	}
	return nil
}

func (d Day) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func truncateDay(s string) string {
	if len(s) > len(DayLayout) {
		return s[:len(DayLayout)]
	}
	return s
}
