package transport

import (
	"encoding/json"
	"strings"
)

// OptionalString distinguishes an absent field from an explicit null.
// Set with a nil Value clears the column.
type OptionalString struct {
	Value *string
	Set   bool
}

func (o OptionalString) IsZero() bool {
	return !o.Set
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		o.Value = nil
		return nil
	}
	o.Value = &raw
	return nil
}
