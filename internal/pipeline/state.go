package pipeline

import "harmonise/internal"

// DefaultState carries the last value of each duplicate field across rows.
type DefaultState struct {
	fields []string
	values map[string]string
}

func NewDefaultState(fields []string) *DefaultState {
	return &DefaultState{fields: fields, values: map[string]string{}}
}

// Apply fills blank fields from earlier rows, then records this row's values
// for the next one. It returns the fields that were filled.
func (s *DefaultState) Apply(record internal.Record) []string {
	var filled []string
	for _, field := range s.fields {
		prev, ok := s.values[field]
		if !ok || record[field] != "" || prev == "" {
			continue
		}
		record[field] = prev
		filled = append(filled, field)
	}

	for _, field := range s.fields {
		s.values[field] = record[field]
	}
	return filled
}
