package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID identifies a record. Backends disagree on whether identifiers are
// numbers or strings, so decoding accepts both.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id == "" }

// firstID returns the first non-empty identifier.
func firstID(ids ...ID) ID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// timestampLayouts are tried in order when decoding dates and timestamps.
// The zone-less layouts cover backends that serialize local date-times.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Some backends send epoch milliseconds.
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func decodeTimeString(b []byte) (string, bool, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", false, nil
	}
	if b[0] != '"' {
		// Bare numbers are epoch milliseconds.
		return string(b), true, nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false, err
	}
	return s, s != "", nil
}

// Date is a calendar date without a time of day, such as a due date.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d falls on an earlier calendar day than t.
func (d Date) Before(t time.Time) bool {
	y, m, day := t.Date()
	return d.Time.Before(time.Date(y, m, day, 0, 0, 0, 0, time.UTC))
}

// MarshalJSON encodes the date as "YYYY-MM-DD" or null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts a date, a timestamp (truncated to its date), or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s, ok, err := decodeTimeString(b)
	if err != nil || !ok {
		*d = Date{}
		return err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	y, m, day := t.Date()
	*d = NewDate(y, m, day)
	return nil
}

// Timestamp is an instant such as a borrow or creation time.
type Timestamp struct {
	time.Time
}

// MarshalJSON encodes the instant as RFC 3339 or null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339))
}

// UnmarshalJSON accepts RFC 3339, zone-less date-times, dates, epoch milliseconds, or null.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s, ok, err := decodeTimeString(b)
	if err != nil || !ok {
		*ts = Timestamp{}
		return err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = Timestamp{Time: t}
	return nil
}
