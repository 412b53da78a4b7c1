package checkpoint

import (
	"encoding/json"
	"fmt"
)

// ResultSet is an insertion-ordered set of strings. The zero value is empty and ready to use.
type ResultSet struct {
	values []string
	index  map[string]struct{}
}

// NewResultSet returns a set holding values in first-seen order, duplicates dropped.
func NewResultSet(values ...string) ResultSet {
	var set ResultSet

	set.Merge(values)

	return set
}

// Merge appends the values not already present, keeping their first-seen order,
// and returns how many were appended.
func (s *ResultSet) Merge(values []string) int {
	if s.index == nil {
		s.index = make(map[string]struct{}, len(s.values)+len(values))
		for _, v := range s.values {
			s.index[v] = struct{}{}
		}
	}

	added := 0

	for _, v := range values {
		if _, seen := s.index[v]; seen {
			continue
		}

		s.index[v] = struct{}{}
		s.values = append(s.values, v)
		added++
	}

	return added
}

// Contains reports whether v is in the set.
func (s *ResultSet) Contains(v string) bool {
	_, ok := s.index[v]

	return ok
}

// Len returns the number of values.
func (s *ResultSet) Len() int {
	return len(s.values)
}

// Values returns a copy of the values in insertion order.
func (s *ResultSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)

	return out
}

// MarshalJSON encodes the set as a JSON array; an empty set is [] rather than null.
func (s ResultSet) MarshalJSON() ([]byte, error) {
	values := s.values
	if values == nil {
		values = []string{}
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal result set: %w", err)
	}

	return data, nil
}

// UnmarshalJSON decodes a JSON array. Repeated values collapse to their first occurrence.
func (s *ResultSet) UnmarshalJSON(data []byte) error {
	var values []string

	err := json.Unmarshal(data, &values)
	if err != nil {
		return fmt.Errorf("unmarshal result set: %w", err)
	}

	*s = NewResultSet(values...)

	return nil
}
