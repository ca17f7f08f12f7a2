package repository

import (
	"encoding/json"
	"fmt"
)

// marshalJSON serializes a value for storage in a TEXT column.
// Nil-able slices marshal as [] rather than null so scans round-trip cleanly.
func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json column: %w", err)
	}
	return string(data), nil
}

// unmarshalJSON deserializes a TEXT column into out. Empty columns are a no-op.
func unmarshalJSON(data string, out interface{}) error {
	if data == "" || data == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}
