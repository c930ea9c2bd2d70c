package db

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONValue adapts any Go value to a JSONB column, both ways.
// Set Dst to the value on writes, or to a pointer on reads.
type JSONValue struct {
	Dst any
}

func (jv JSONValue) Value() (driver.Value, error) {
	if jv.Dst == nil {
		return nil, nil
	}

	var buff bytes.Buffer
	enc := json.NewEncoder(&buff)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jv.Dst); err != nil {
		return nil, fmt.Errorf("json encode %T: %w", jv.Dst, err)
	}

	return buff.Bytes(), nil
}

func (jv *JSONValue) Scan(value any) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected raw json bytes, got %T", value)
	}

	return json.Unmarshal(b, &jv.Dst)
}
