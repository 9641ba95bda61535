package attr

import "fmt"

type entry struct {
	name string
	typ  Type
	def  any
}

// Declaration collects attributes contributed by independent behaviors.
// Re-declaring a name is a no-op, the first declaration wins.
type Declaration struct {
	entries []entry
	names   map[string]struct{}
}

func NewDeclaration() *Declaration {
	return &Declaration{names: make(map[string]struct{})}
}

func (d *Declaration) AddByte(name string, def uint8)       { d.add(name, TypeByte, def) }
func (d *Declaration) AddInt32(name string, def int32)      { d.add(name, TypeInt32, def) }
func (d *Declaration) AddFloat(name string, def float32)    { d.add(name, TypeFloat, def) }
func (d *Declaration) AddFloat2(name string, def Float2)    { d.add(name, TypeFloat2, def) }
func (d *Declaration) AddFloat3(name string, def Float3)    { d.add(name, TypeFloat3, def) }
func (d *Declaration) AddColorByte(name string, def RGBA8)  { d.add(name, TypeColorByte, def) }
func (d *Declaration) AddColorFloat(name string, def RGBAf) { d.add(name, TypeColorFloat, def) }

// Add declares an attribute of type t with its zero default.
func (d *Declaration) Add(name string, t Type) {
	d.add(name, t, zeroValue(t))
}

func (d *Declaration) add(name string, t Type, def any) {
	if _, ok := d.names[name]; ok {
		return
	}
	if !matchesType(t, def) {
		panic(fmt.Sprintf("attr: default %T does not match %s for %q", def, t, name))
	}
	d.names[name] = struct{}{}
	d.entries = append(d.entries, entry{name: name, typ: t, def: def})
}

// Merge unions other into d. Names already present keep their first declaration.
func (d *Declaration) Merge(other *Declaration) {
	for _, e := range other.entries {
		d.add(e.name, e.typ, e.def)
	}
}

// MergeSchema unions every attribute of s into d.
func (d *Declaration) MergeSchema(s *Schema) {
	for i := range s.names {
		d.add(s.names[i], s.types[i], s.defaults[i])
	}
}

func (d *Declaration) Len() int { return len(d.entries) }

// Freeze builds the immutable schema.
func (d *Declaration) Freeze() *Schema {
	s := &Schema{
		names:    make([]string, len(d.entries)),
		types:    make([]Type, len(d.entries)),
		defaults: make([]any, len(d.entries)),
		index:    make(map[string]int, len(d.entries)),
	}
	for i, e := range d.entries {
		s.names[i] = e.name
		s.types[i] = e.typ
		s.defaults[i] = e.def
		s.index[e.name] = i
	}
	return s
}

func zeroValue(t Type) any {
	switch t {
	case TypeByte:
		return uint8(0)
	case TypeInt32:
		return int32(0)
	case TypeFloat:
		return float32(0)
	case TypeFloat2:
		return Float2{}
	case TypeFloat3:
		return Float3{}
	case TypeColorByte:
		return RGBA8{}
	case TypeColorFloat:
		return RGBAf{}
	}
	panic(fmt.Sprintf("attr: unknown type tag %d", t))
}

func matchesType(t Type, v any) bool {
	switch v.(type) {
	case uint8:
		return t == TypeByte
	case int32:
		return t == TypeInt32
	case float32:
		return t == TypeFloat
	case Float2:
		return t == TypeFloat2
	case Float3:
		return t == TypeFloat3
	case RGBA8:
		return t == TypeColorByte
	case RGBAf:
		return t == TypeColorFloat
	}
	return false
}
