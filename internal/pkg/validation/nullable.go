package validation

import (
	"bytes"
	"encoding/json"
)

// Nullable is a PATCH field that distinguishes "absent" from "null" from a value.
//
//	absent -> Set=false
//	null   -> Set=true, Valid=false
//	value  -> Set=true, Valid=true
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		n.Valid = false
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil for null and a pointer to the value otherwise.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Update returns the value to store for a column: nil for null, the value otherwise.
func (n Nullable[T]) Update() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}

func (n Nullable[T]) validationValue() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}

type nullableValue interface {
	validationValue() any
}
