package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as serialized JSON text.
// Unreadable column values decode to an empty list.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	raw, err := textBytes(src)
	if err != nil {
		return err
	}
	var out []string
	if len(raw) == 0 || json.Unmarshal(raw, &out) != nil || out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// MarshalJSON always renders a JSON array, never null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// JSONMap is an object persisted as serialized JSON text.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	raw, err := textBytes(src)
	if err != nil {
		return err
	}
	out := map[string]any{}
	if len(raw) > 0 {
		if json.Unmarshal(raw, &out) != nil || out == nil {
			out = map[string]any{}
		}
	}
	*m = out
	return nil
}

// MarshalJSON always renders a JSON object, never null.
func (m JSONMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}

// JSONDoc is an arbitrary JSON document persisted as text (meal plans, macros).
type JSONDoc json.RawMessage

// Value implements driver.Valuer.
func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "null", nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("invalid JSON document")
	}
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *JSONDoc) Scan(src any) error {
	raw, err := textBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 || !json.Valid(raw) {
		*d = JSONDoc("null")
		return nil
	}
	*d = append((*d)[:0], raw...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *JSONDoc) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

func textBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported JSON text column type %T", src)
	}
}
