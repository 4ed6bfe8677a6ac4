package yaml

import "fmt"

// ValueStore stores values in a flat map with underscore-separated keys.
// Keys like "step.result.field" are stored as "step_result_field".
// Nested maps and arrays are recursively expanded into flat keys.
type ValueStore struct {
	values map[string]any
}

func NewValueStore() *ValueStore {
	return &ValueStore{
		values: make(map[string]any),
	}
}

func (s *ValueStore) Set(key string, value any) {
	s.values[FormatKey(key)] = value
}

func (s *ValueStore) Get(key string) (any, bool) {
	v, ok := s.values[FormatKey(key)]
	return v, ok
}

// SetNested stores a value and recursively expands nested maps/arrays into flat keys.
func (s *ValueStore) SetNested(prefix string, value any) {
	flatten(s.values, prefix, value)
}

func (s *ValueStore) All() map[string]any {
	return s.values
}

func flatten(dst map[string]any, prefix string, value any) {
	dst[FormatKey(prefix)] = value

	switch v := value.(type) {
	case map[string]any:
		for k, child := range v {
			flatten(dst, prefix+"."+k, child)
		}
	case []any:
		for i, child := range v {
			flatten(dst, fmt.Sprintf("%s.%d", prefix, i), child)
		}
	}
}
