package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores an arbitrary JSON object in a JSONB column. Used for raw
// machine responses and error payloads that are kept verbatim for audit.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("models: cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(b, m)
}

// Denominations maps banknote value (as reported by the machine, e.g. "10000")
// to note count.
type Denominations map[string]int

func (d Denominations) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *Denominations) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("models: cannot scan %T into Denominations", src)
	}
	return json.Unmarshal(b, d)
}

// StatusHistory is the append-only transition log kept on every request.
type StatusHistory []StatusEntry

func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return json.Marshal(StatusHistory{})
	}
	return json.Marshal(h)
}

func (h *StatusHistory) Scan(src interface{}) error {
	if src == nil {
		*h = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("models: cannot scan %T into StatusHistory", src)
	}
	return json.Unmarshal(b, h)
}
