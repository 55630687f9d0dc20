package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

var (
	// ErrInvalidPath is returned when a path is empty or contains empty segments (e.g. "cart..items").
	ErrInvalidPath = errors.New("invalid state path")

	// ErrPathConflict is returned when Set would need to descend through a non-map value.
	ErrPathConflict = errors.New("state path conflicts with existing value")
)

// Store is the key/value state of a single session, addressed by dotted paths.
//
// A Store is not safe for concurrent use. Callers serialize access through the
// session lock, which is the only way the orchestrator hands a Store to task bodies.
type Store struct {
	data map[string]any
}

// New creates an empty store.
func New() *Store {
	return &Store{data: make(map[string]any)}
}

// FromMap creates a store holding a deep copy of m.
func FromMap(m map[string]any) *Store {
	s := New()
	for k, v := range m {
		s.data[k] = DeepCopy(v)
	}
	return s
}

// Get returns the value at path. The boolean is false when any segment is absent.
func (s *Store) Get(path string) (any, bool) {
	segments, err := split(path)
	if err != nil {
		return nil, false
	}

	var current any = s.data
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes value at path, creating intermediate maps as needed.
// Writes are last-writer-wins.
func (s *Store) Set(path string, value any) error {
	segments, err := split(path)
	if err != nil {
		return err
	}

	current := s.data
	for i, seg := range segments[:len(segments)-1] {
		next, ok := current[seg]
		if !ok || next == nil {
			child := make(map[string]any)
			current[seg] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %q is a %T", ErrPathConflict, strings.Join(segments[:i+1], "."), next)
		}
		current = child
	}
	current[segments[len(segments)-1]] = value
	return nil
}

// Exists reports whether path resolves to a present, non-nil, non-empty value.
// Empty strings and empty collections count as absent; false and 0 count as present.
func (s *Store) Exists(path string) bool {
	v, ok := s.Get(path)
	if !ok {
		return false
	}
	return Truthy(v)
}

// Delete removes the value at path. It reports whether anything was removed.
func (s *Store) Delete(path string) bool {
	segments, err := split(path)
	if err != nil {
		return false
	}

	current := s.data
	for _, seg := range segments[:len(segments)-1] {
		child, ok := current[seg].(map[string]any)
		if !ok {
			return false
		}
		current = child
	}
	last := segments[len(segments)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}

// Merge sets every entry of values. Keys may be dotted paths.
// Keys are applied in sorted order so conflicting writes resolve deterministically.
func (s *Store) Merge(values map[string]any) error {
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := s.Set(k, DeepCopy(values[k])); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a deep copy of the whole store.
func (s *Store) Snapshot() map[string]any {
	out, _ := DeepCopy(s.data).(map[string]any)
	return out
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return FromMap(s.data)
}

// Len returns the number of top-level keys.
func (s *Store) Len() int {
	return len(s.data)
}

func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.data)
}

func (s *Store) UnmarshalJSON(b []byte) error {
	data := make(map[string]any)
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]any)
	}
	s.data = data
	return nil
}

// Truthy implements the presence rule used by prerequisites.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if str, ok := v.(string); ok {
		return str != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		if rv.Kind() != reflect.Array && rv.IsNil() {
			return false
		}
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// DeepCopy copies the JSON-shaped containers (maps and slices) inside v.
// Other values are returned as-is.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DeepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopy(item)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i], _ = DeepCopy(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}

func split(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
