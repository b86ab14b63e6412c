// Package timestamp implements the leading-timestamp codec (C1): recognizing
// and parsing the single in-line timestamp format emitted by monitored
// services into a monotonic millisecond instant.
package timestamp

import (
	"fmt"
	"time"
)

// Codec parses the locale timestamp format used by monitored services
// ("M/D/YYYY, H:MM:SS AM|PM") in a fixed IANA zone, and parses request-side
// times in either that same locale form or ISO-8601.
type Codec struct {
	loc *time.Location
}

// New returns a Codec that interprets locale timestamps in loc. A nil loc
// falls back to time.Local.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// ParseLeading recognizes the timestamp token at the very start of line and
// returns the millisecond Unix instant. It never panics, never scans past
// the end of the token, and never allocates when the result is (0, false).
func (c *Codec) ParseLeading(line string) (int64, bool) {
	month, i, ok := leadingDigits(line, 0, 1, 2)
	if !ok || !expectByte(line, i, '/') {
		return 0, false
	}
	i++

	day, i, ok := leadingDigits(line, i, 1, 2)
	if !ok || !expectByte(line, i, '/') {
		return 0, false
	}
	i++

	year, i, ok := leadingDigits(line, i, 4, 4)
	if !ok || !expectByte(line, i, ',') {
		return 0, false
	}
	i++
	if !expectByte(line, i, ' ') {
		return 0, false
	}
	i++

	hour, i, ok := leadingDigits(line, i, 1, 2)
	if !ok || !expectByte(line, i, ':') {
		return 0, false
	}
	i++

	minute, i, ok := leadingDigits(line, i, 2, 2)
	if !ok || !expectByte(line, i, ':') {
		return 0, false
	}
	i++

	second, i, ok := leadingDigits(line, i, 2, 2)
	if !ok || !expectByte(line, i, ' ') {
		return 0, false
	}
	i++

	meridiem, i, ok := leadingMeridiem(line, i)
	if !ok {
		return 0, false
	}
	_ = i

	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 1 || hour > 12 {
		return 0, false
	}

	hour24 := hour % 12
	if meridiem == "PM" {
		hour24 += 12
	}

	t := time.Date(year, time.Month(month), day, hour24, minute, second, 0, c.loc)
	return t.UnixMilli(), true
}

// ParseRequestTime parses a wire-side time: either the locale form above or
// ISO-8601 with an offset. Both forms resolve to the same millisecond
// instant for equal wall-clock times.
func (c *Codec) ParseRequestTime(s string) (int64, error) {
	if ms, ok := c.ParseLeading(s); ok {
		return ms, nil
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}

	return 0, fmt.Errorf("timestamp: unparseable request time %q", s)
}

// leadingDigits parses between minDigits and maxDigits ASCII digits starting
// at i, returning the parsed value and the index just past the digits.
func leadingDigits(s string, i, minDigits, maxDigits int) (int, int, bool) {
	start := i
	for i < len(s) && i-start < maxDigits && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n := i - start
	if n < minDigits {
		return 0, start, false
	}

	val := 0
	for j := start; j < i; j++ {
		val = val*10 + int(s[j]-'0')
	}
	return val, i, true
}

func expectByte(s string, i int, b byte) bool {
	return i < len(s) && s[i] == b
}

func leadingMeridiem(s string, i int) (string, int, bool) {
	if i+1 >= len(s) {
		return "", i, false
	}
	switch {
	case (s[i] == 'A' || s[i] == 'a') && (s[i+1] == 'M' || s[i+1] == 'm'):
		return "AM", i + 2, true
	case (s[i] == 'P' || s[i] == 'p') && (s[i+1] == 'M' || s[i+1] == 'm'):
		return "PM", i + 2, true
	default:
		return "", i, false
	}
}
