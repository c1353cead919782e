package compliance

import (
	"bytes"
	"encoding/json"
)

// Field is an optional update: either unchanged or set to Value. When decoded
// from JSON, a present key marks the field set, including an explicit null;
// Null tells that case apart from a zero value.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func SetTo[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func Keep[T any]() Field[T] {
	return Field[T]{}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	f.Null = bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value and whether it was set.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set
}

// Or returns the value when set, otherwise fallback.
func (f Field[T]) Or(fallback T) T {
	if f.Set {
		return f.Value
	}
	return fallback
}

// Put records the value under column when the field is set.
func (f Field[T]) Put(fields map[string]interface{}, column string) {
	if f.Set {
		fields[column] = f.Value
	}
}
