package ir

import (
	"encoding/json"
	"fmt"
)

// valueJSON is the tagged wire form of a Value: exactly one field is set.
type valueJSON struct {
	Single *string  `json:"single,omitempty"`
	Set    []string `json:"set,omitempty"`
}

type changeJSON struct {
	Type       ChangeType `json:"type"`
	NativeType string     `json:"native_type,omitempty"`
	Property   string     `json:"property"`
	Value      *valueJSON `json:"value,omitempty"`
	OldValue   *valueJSON `json:"old_value,omitempty"`
}

func encodeValue(v Value) *valueJSON {
	switch val := v.(type) {
	case Single:
		s := string(val)
		return &valueJSON{Single: &s}
	case Set:
		iris := val.IRIs()
		return &valueJSON{Set: iris}
	default:
		return nil
	}
}

func decodeValue(v *valueJSON) (Value, error) {
	if v == nil {
		return nil, nil
	}
	if v.Single != nil && v.Set != nil {
		return nil, fmt.Errorf("value has both single and set")
	}
	if v.Single != nil {
		return Single(*v.Single), nil
	}
	return NewSet(v.Set...), nil
}

// MarshalJSON encodes the change with its tagged values.
func (c AssertionChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(changeJSON{
		Type:       c.Type,
		NativeType: c.NativeType,
		Property:   c.Property,
		Value:      encodeValue(c.Value),
		OldValue:   encodeValue(c.OldValue),
	})
}

// UnmarshalJSON decodes a change written by MarshalJSON.
func (c *AssertionChange) UnmarshalJSON(data []byte) error {
	var raw changeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := decodeValue(raw.Value)
	if err != nil {
		return fmt.Errorf("assertion change %s: %w", raw.Property, err)
	}
	oldValue, err := decodeValue(raw.OldValue)
	if err != nil {
		return fmt.Errorf("assertion change %s: old value: %w", raw.Property, err)
	}

	*c = AssertionChange{
		Type:       raw.Type,
		NativeType: raw.NativeType,
		Property:   raw.Property,
		Value:      value,
		OldValue:   oldValue,
	}
	return nil
}
