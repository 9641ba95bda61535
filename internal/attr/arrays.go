package attr

import "fmt"

// Arrays is a view over a range of rows of a set of columns bound to a schema.
// Typed accessors return slices that alias the columns, so writes land in the
// underlying storage.
type Arrays struct {
	schema  *Schema
	buffers []Buffer
	start   int
	size    int
}

// NewArrays views buffers[start:start+size] under schema.
func NewArrays(schema *Schema, buffers []Buffer, start, size int) Arrays {
	if len(buffers) != schema.Size() {
		panic(fmt.Sprintf("attr: %d buffers for schema of %d", len(buffers), schema.Size()))
	}
	return Arrays{schema: schema, buffers: buffers, start: start, size: size}
}

// Allocate creates standalone zeroed columns for schema with room for n rows.
func Allocate(schema *Schema, n int) Arrays {
	buffers := make([]Buffer, schema.Size())
	for i := range buffers {
		buffers[i] = NewBuffer(schema.Type(i), n)
	}
	return NewArrays(schema, buffers, 0, n)
}

func (a Arrays) Schema() *Schema { return a.schema }
func (a Arrays) Size() int       { return a.size }

// Slice narrows the view to [start, start+n) relative to the current view.
func (a Arrays) Slice(start, n int) Arrays {
	if start < 0 || n < 0 || start+n > a.size {
		panic(fmt.Sprintf("attr: slice [%d:%d] out of range %d", start, start+n, a.size))
	}
	return Arrays{schema: a.schema, buffers: a.buffers, start: a.start + start, size: n}
}

// Buffer exposes the column at index i without range restriction.
func (a Arrays) Buffer(i int) Buffer { return a.buffers[i] }

// FillDefaults writes every column's default into rows [lo, hi) of the view.
func (a Arrays) FillDefaults(lo, hi int) {
	for i, b := range a.buffers {
		b.Fill(a.schema.Default(i), a.start+lo, a.start+hi)
	}
}

// Get returns the named column as a typed slice over the view. It panics if
// the name is missing or holds a different type.
func Get[T Value](a Arrays, name string) []T {
	v, ok := TryGet[T](a, name)
	if !ok {
		panic(fmt.Sprintf("attr: no %s attribute %q", TypeOf[T](), name))
	}
	return v
}

// TryGet is Get that reports absence instead of panicking.
func TryGet[T Value](a Arrays, name string) ([]T, bool) {
	i, ok := a.schema.Index(name)
	if !ok || a.schema.Type(i) != TypeOf[T]() {
		return nil, false
	}
	return Data[T](a.buffers[i])[a.start : a.start+a.size], true
}

func (a Arrays) Byte(name string) []uint8       { return Get[uint8](a, name) }
func (a Arrays) Int32(name string) []int32      { return Get[int32](a, name) }
func (a Arrays) Float(name string) []float32    { return Get[float32](a, name) }
func (a Arrays) Float2(name string) []Float2    { return Get[Float2](a, name) }
func (a Arrays) Float3(name string) []Float3    { return Get[Float3](a, name) }
func (a Arrays) ColorByte(name string) []RGBA8  { return Get[RGBA8](a, name) }
func (a Arrays) ColorFloat(name string) []RGBAf { return Get[RGBAf](a, name) }

func (a Arrays) TryFloat(name string) ([]float32, bool) { return TryGet[float32](a, name) }
func (a Arrays) TryFloat3(name string) ([]Float3, bool) { return TryGet[Float3](a, name) }
