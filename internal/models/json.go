package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON stores a free-form object column.
type JSON map[string]interface{}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := normalizeJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray stores a JSON string list column (tags, priority lists).
type StringArray []string

// Value implements driver.Valuer.
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := normalizeJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Contains reports whether the list holds v.
func (s StringArray) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// TrackingEvent is one normalized checkpoint in an order's tracking feed.
type TrackingEvent struct {
	Status      string `json:"status"`     // canonical status
	RawStatus   string `json:"raw_status"` // vendor spelling as received
	Datetime    string `json:"datetime"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// TrackingEvents stores the append-only tracking feed column.
type TrackingEvents []TrackingEvent

// Value implements driver.Valuer.
func (t TrackingEvents) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner.
func (t *TrackingEvents) Scan(value interface{}) error {
	if value == nil {
		*t = TrackingEvents{}
		return nil
	}
	bytes, ok := normalizeJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, t)
}

// ActionEntry is one row of an order's append-only audit log.
type ActionEntry struct {
	Action   string `json:"action"`
	Datetime string `json:"datetime"`
	Remark   string `json:"remark,omitempty"`
}

// ActionHistory stores the audit log column.
type ActionHistory []ActionEntry

// Value implements driver.Valuer.
func (a ActionHistory) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *ActionHistory) Scan(value interface{}) error {
	if value == nil {
		*a = ActionHistory{}
		return nil
	}
	bytes, ok := normalizeJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// ZoneRates stores a zone-keyed rate column ("A".."E" -> amount).
type ZoneRates map[string]Money

// Value implements driver.Valuer.
func (z ZoneRates) Value() (driver.Value, error) {
	if z == nil {
		return nil, nil
	}
	return json.Marshal(z)
}

// Scan implements sql.Scanner.
func (z *ZoneRates) Scan(value interface{}) error {
	if value == nil {
		*z = ZoneRates{}
		return nil
	}
	bytes, ok := normalizeJSONBytes(value)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, z)
}

func normalizeJSONBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
