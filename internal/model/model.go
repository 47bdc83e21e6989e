// Package model holds the raw Timmi and override-table records exactly as
// they arrive from upstream. Decoding is tolerant: a record with a missing
// or unparseable identifier decodes fine and is dropped later by the
// schedule transform.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RoomID is the upstream room identifier normalised to a string.
// The zero value means "missing".
type RoomID string

func (r *RoomID) UnmarshalJSON(b []byte) error {
	*r = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSpace(s)
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			*r = RoomID(s)
		}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	if i, err := n.Int64(); err == nil {
		*r = RoomID(strconv.FormatInt(i, 10))
	}
	return nil
}

// RoomPart is one lane (or a whole-pool marker) of a pool.
type RoomPart struct {
	RoomID         RoomID `json:"roomId"`
	RoomPartName   string `json:"roomPartName"`
	RoomName       string `json:"roomName"`
	AdditionalInfo string `json:"additionalInfo"`
}

// TimePoint is Timmi's split representation of a timestamp.
type TimePoint struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	// Time is the raw epoch timestamp in milliseconds.
	Time int64 `json:"time"`
}

// TextField is one fragment of an episode's name. Upstream sends either a
// plain string or an object with a name.
type TextField string

func (t *TextField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = TextField(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		*t = ""
		return nil
	}
	*t = TextField(obj.Name)
	return nil
}

// Flag is a JSON value interpreted by truthiness: null, false, any zero
// number, "", "0" and empty arrays or objects are false.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		*f = false
		return nil
	}

	switch x := v.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(x)
	case json.Number:
		n, err := x.Float64()
		// Out-of-range numbers are not zero.
		*f = Flag(err != nil || n != 0)
	case string:
		*f = Flag(x != "" && x != "0")
	case []any:
		*f = Flag(len(x) > 0)
	case map[string]any:
		*f = Flag(len(x) > 0)
	default:
		*f = true
	}
	return nil
}

// Episode is a single booking of a lane or pool.
type Episode struct {
	RoomID             RoomID      `json:"roomId"`
	StartTime          TimePoint   `json:"startTime"`
	EndTime            TimePoint   `json:"endTime"`
	EventColorRed      int         `json:"eventColorRed"`
	EventColorGreen    int         `json:"eventColorGreen"`
	EventColorBlue     int         `json:"eventColorBlue"`
	EventTextField     []TextField `json:"eventTextField"`
	RoomPartName       string      `json:"roomPartName"`
	UsageRestrictionID Flag        `json:"usageRestrictionId"`
}

// Name joins all text fragments with spaces.
func (e Episode) Name() string {
	parts := make([]string, 0, len(e.EventTextField))
	for _, f := range e.EventTextField {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, " ")
}

// Seconds is a nullable seconds-from-midnight value. Baserow returns
// number columns as strings, so both forms are accepted.
type Seconds struct {
	Value int
	Valid bool
}

// SecondsOf returns a valid Seconds.
func SecondsOf(v int) Seconds {
	return Seconds{Value: v, Valid: true}
}

func (s *Seconds) UnmarshalJSON(b []byte) error {
	*s = Seconds{}
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	*s = SecondsOf(int(f))
	return nil
}

func (s Seconds) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(s.Value)), nil
}

// ExtraOpenHours is one row of the override table. OpenFrom and OpenTo are
// seconds from midnight; both null means the hall is closed that day.
type ExtraOpenHours struct {
	Date     string  `json:"date"`
	OpenFrom Seconds `json:"open_from"`
	OpenTo   Seconds `json:"open_to"`
	Note     string  `json:"note"`
}

// RawDay is one fetched day snapshot.
type RawDay struct {
	// Epoch identifies the day in milliseconds.
	Epoch     int64      `json:"epoch"`
	RoomParts []RoomPart `json:"room_parts"`
	Episodes  []Episode  `json:"episodes"`
}

// RawData is everything one fetch run produces.
type RawData struct {
	Pages          []RawDay         `json:"pages"`
	ExtraOpenHours []ExtraOpenHours `json:"extra_open_hours"`
}
