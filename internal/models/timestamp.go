package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// timestampLayouts are tried in order; layouts without a zone read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a wall-clock instant decoded leniently from the API.
// Values that match no known layout decode as the zero time so a single
// odd row cannot fail a whole page.
type Timestamp struct {
	time.Time
}

// ParseTimestamp reads s using the first layout that fits
func ParseTimestamp(s string) (Timestamp, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t}, true
		}
	}
	return Timestamp{}, false
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	ts.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil // null, numbers and other shapes read as unset
	}
	if parsed, ok := ParseTimestamp(s); ok {
		*ts = parsed
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}

// UnixTime is an optional epoch-seconds value. Integers, fractional
// seconds and numeric strings are accepted; anything else leaves it unset.
type UnixTime struct {
	Seconds int64
	Valid   bool
}

// Unix returns a set UnixTime for sec
func Unix(sec int64) UnixTime {
	return UnixTime{Seconds: sec, Valid: true}
}

// Time returns the instant in host-local time
func (u UnixTime) Time() time.Time {
	return time.Unix(u.Seconds, 0).Local()
}

func (u *UnixTime) UnmarshalJSON(data []byte) error {
	*u = UnixTime{}
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*u = Unix(int64(math.Floor(f)))
	return nil
}

func (u UnixTime) MarshalJSON() ([]byte, error) {
	if !u.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, u.Seconds, 10), nil
}
