package domain

import "encoding/json"

// Optional distinguishes a field that was omitted from a JSON document from
// one that was sent as an explicit null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether a non-null value was supplied.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// Cleared reports whether an explicit null was supplied.
func (o Optional[T]) Cleared() bool {
	return o.Set && o.Null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ApplyNullable writes a presence-aware value into a nullable field. An
// explicit null clears the field.
func ApplyNullable[T any](dst **T, o Optional[T]) bool {
	switch {
	case o.Present():
		v := o.Value
		*dst = &v
		return true
	case o.Cleared():
		changed := *dst != nil
		*dst = nil
		return changed
	}
	return false
}

// ApplyRequired writes a presence-aware value into a non-nullable field. An
// explicit null is ignored.
func ApplyRequired[T comparable](dst *T, o Optional[T]) bool {
	if !o.Present() || *dst == o.Value {
		return false
	}
	*dst = o.Value
	return true
}
