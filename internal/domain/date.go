package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DateLayout is the canonical textual form of a calendar date.
const DateLayout = "2006-01-02"

// Date is a pure calendar date: a year, month and day with no time-of-day
// and no location attached. It marshals (JSON and BSON) to its "2006-01-02"
// string form, whose lexicographic order matches chronological order, so
// range queries on stored dates never involve timezone arithmetic.
type Date struct {
	year  int
	month time.Month
	day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{year: year, month: month, day: day}
}

// ParseDate parses a strict "YYYY-MM-DD" string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: expected YYYY-MM-DD", s)
	}
	return Date{year: t.Year(), month: t.Month(), day: t.Day()}, nil
}

// String returns the canonical "YYYY-MM-DD" form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// DateTimeLocal returns the date as a local date-time string with a midnight
// suffix ("YYYY-MM-DDT00:00:00"). This is the wire form sent to the remote
// calendar service: the explicit local time keeps the service from
// reinterpreting the date under a different timezone.
func (d Date) DateTimeLocal() string {
	return d.String() + "T00:00:00"
}

// Compare returns -1, 0 or +1 if d is before, equal to or after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		return intCompare(d.year, other.year)
	case d.month != other.month:
		return intCompare(int(d.month), int(other.month))
	default:
		return intCompare(d.day, other.day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// IsZero reports whether d is the zero value (no date set).
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

func intCompare(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// MarshalJSON encodes the date as its quoted "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a quoted "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalBSONValue stores the date as a BSON string so MongoDB range filters
// compare dates lexicographically, never as timestamps.
func (d Date) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(d.String())
}

// UnmarshalBSONValue restores a Date from its stored BSON string.
func (d *Date) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	raw := bson.RawValue{Type: t, Value: data}
	if err := raw.Unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
