package attr

import "fmt"

// Schema is the frozen, ordered set of named and typed columns.
// An attribute's index is its position in declaration order.
type Schema struct {
	names    []string
	types    []Type
	defaults []any
	index    map[string]int
}

func (s *Schema) Size() int { return len(s.names) }

func (s *Schema) Name(i int) string { return s.names[i] }

func (s *Schema) Type(i int) Type { return s.types[i] }

// Default returns the default value of column i as its Go value type.
func (s *Schema) Default(i int) any { return s.defaults[i] }

func (s *Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Index looks up a column by name.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// MustIndex is Index for call sites that know the name exists.
func (s *Schema) MustIndex(name string) int {
	i, ok := s.index[name]
	if !ok {
		panic(fmt.Sprintf("attr: no attribute %q", name))
	}
	return i
}

// TypeOf returns the type of the named column.
func (s *Schema) TypeOf(name string) (Type, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.types[i], true
}

// Has reports whether name exists with type t.
func (s *Schema) Has(name string, t Type) bool {
	i, ok := s.index[name]
	return ok && s.types[i] == t
}

// Equal reports whether both schemas list the same columns in the same order
// with the same defaults.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.names) != len(o.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != o.names[i] || s.types[i] != o.types[i] || s.defaults[i] != o.defaults[i] {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	out := "{"
	for i := range s.names {
		if i > 0 {
			out += ", "
		}
		out += s.names[i] + ":" + s.types[i].String()
	}
	return out + "}"
}
