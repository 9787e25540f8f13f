package workflows

import (
	"reflect"
	"strings"
	"time"
)

// Record is a read-only snapshot of an entity as seen by an Engine.
type Record interface {
	CurrentStatus() Status
	// Field returns the value stored under a logical field name. Lookup is
	// case-insensitive.
	Field(name string) (any, bool)
}

// FieldRegistry maps lowercased logical field names to typed accessors for T.
type FieldRegistry[T any] map[string]func(T) any

// NewFieldRegistry lowercases the keys of fields.
func NewFieldRegistry[T any](fields map[string]func(T) any) FieldRegistry[T] {
	r := make(FieldRegistry[T], len(fields))
	for name, get := range fields {
		r[strings.ToLower(name)] = get
	}
	return r
}

// Lookup reads name off rec.
func (r FieldRegistry[T]) Lookup(rec T, name string) (any, bool) {
	get, ok := r[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return get(rec), true
}

// Has reports whether name is a registered field.
func (r FieldRegistry[T]) Has(name string) bool {
	_, ok := r[strings.ToLower(name)]
	return ok
}

// IsPresent reports whether v counts as populated for a gating field: non-nil,
// non-blank text, non-empty collection.
func IsPresent(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case *string:
		return val != nil && strings.TrimSpace(*val) != ""
	case []string:
		return len(val) > 0
	case *float64:
		return val != nil
	case *time.Time:
		return val != nil && !val.IsZero()
	case time.Time:
		return !val.IsZero()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return IsPresent(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	}
	return true
}

// TransitionError carries the message of a failed validation.
type TransitionError struct {
	From    Status
	To      Status
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Err converts a failed Result into a *TransitionError.
func (r Result) Err(from, to Status) error {
	if r.Valid {
		return nil
	}
	return &TransitionError{From: from, To: to, Message: r.Message}
}
