package model

import (
	"fmt"
	"time"
)

// TimestampLayout is the ISO-8601 form used for issuance timestamps, both in
// storage and on the wire (e.g. 2026-02-10T12:00:00.000Z).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a stored issuance timestamp. Any RFC 3339 value is
// accepted, with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", s)
	}
	return t.UTC(), nil
}
