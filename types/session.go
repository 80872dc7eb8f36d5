package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JSONMap is an opaque attribute map serialized as JSON text, it implements
// driver.Valuer and sql.Scanner so it can be passed straight through
// database/sql without the store interpreting its contents.
type JSONMap map[string]interface{}

// Value return json value, implement driver.Valuer interface
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	ba, err := m.MarshalJSON()
	return string(ba), err
}

// Scan scan value into the map, implements sql.Scanner interface
func (m *JSONMap) Scan(val interface{}) error {
	var ba []byte
	switch v := val.(type) {
	case []byte:
		ba = v
	case string:
		ba = []byte(v)
	case nil:
		*m = nil
		return nil
	default:
		return errors.New(fmt.Sprint("failed to unmarshal JSON value:", val))
	}
	t := map[string]interface{}{}
	err := json.Unmarshal(ba, &t)
	*m = JSONMap(t)
	return err
}

// MarshalJSON to output non base64 encoded []byte
func (m JSONMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	t := (map[string]interface{})(m)
	return json.Marshal(t)
}

// UnmarshalJSON to deserialize []byte
func (m *JSONMap) UnmarshalJSON(b []byte) error {
	t := map[string]interface{}{}
	err := json.Unmarshal(b, &t)
	*m = JSONMap(t)
	return err
}

// SessionUserIDKey is the one session attribute the gateway inspects.
const SessionUserIDKey = "userId"

// Session is an opaque session record, keyed by the session id cookie value.
// The gateway performs point lookups only, the record itself is owned by the
// HTTP layer.
type Session struct {
	SID       string    `json:"sid"`
	Data      JSONMap   `json:"session"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserID extracts the authenticated-user attribute from the session data.
// The attribute arrives through JSON, so numbers show up as float64.
func (s *Session) UserID() (int64, bool) {
	if s == nil || s.Data == nil {
		return 0, false
	}
	switch v := s.Data[SessionUserIDKey].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// Expired reports whether the session is past its TTL at the given instant.
// A zero ExpiresAt means the session does not expire.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}
