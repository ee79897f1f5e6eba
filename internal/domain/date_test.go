package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-08-06")
	require.NoError(t, err)
	require.Equal(t, "2025-08-06", d.String())
	require.Equal(t, "2025-08-06T00:00:00", d.DateTimeLocal())
}

func TestParseDateRejectsMalformedInput(t *testing.T) {
	for _, input := range []string{
		"",
		"2025-8-6",
		"06-08-2025",
		"2025-08-06T00:00:00",
		"2025-13-01",
		"not a date",
	} {
		_, err := ParseDate(input)
		require.Error(t, err, "input %q should not parse", input)
	}
}

func TestDateCompare(t *testing.T) {
	earlier := NewDate(2025, time.August, 6)
	later := NewDate(2025, time.September, 1)

	require.True(t, earlier.Before(later))
	require.True(t, later.After(earlier))
	require.Equal(t, 0, earlier.Compare(NewDate(2025, time.August, 6)))
	require.Equal(t, -1, earlier.Compare(later))
	require.Equal(t, 1, later.Compare(earlier))
}

func TestDateStringOrderMatchesChronology(t *testing.T) {
	// The store relies on lexicographic comparison of the string form.
	a := NewDate(2025, time.September, 30)
	b := NewDate(2025, time.October, 1)
	require.True(t, a.Before(b))
	require.Less(t, a.String(), b.String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.August, 6)

	encoded, err := json.Marshal(d)
	require.NoError(t, err)
	require.JSONEq(t, `"2025-08-06"`, string(encoded))

	var decoded Date
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, d, decoded)
}

func TestDateJSONRejectsTimestamps(t *testing.T) {
	var d Date
	err := json.Unmarshal([]byte(`"2025-08-06T10:30:00Z"`), &d)
	require.Error(t, err)
}

func TestDateIsZero(t *testing.T) {
	var zero Date
	require.True(t, zero.IsZero())
	require.False(t, NewDate(2025, time.January, 1).IsZero())
}
