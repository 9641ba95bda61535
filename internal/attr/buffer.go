package attr

import "fmt"

// Buffer is one column of fixed-size values.
type Buffer interface {
	Type() Type
	Len() int
	// Move copies the value at src over the value at dst.
	Move(src, dst int)
	// CopyFrom copies src[srcIndex] into dst slot dstIndex. Both buffers must
	// hold the same type.
	CopyFrom(src Buffer, srcIndex, dstIndex int)
	// Fill writes value into [lo, hi). value must match the buffer type.
	Fill(value any, lo, hi int)
	// Gather copies rows [lo, hi) into dst starting at dstStart. dst must
	// hold the same type.
	Gather(dst Buffer, dstStart int, lo, hi int)
	// Data returns the backing typed slice as any.
	Data() any
}

type column[T Value] struct {
	typ  Type
	data []T
}

// NewBuffer allocates a column of n values of type t, zeroed.
func NewBuffer(t Type, n int) Buffer {
	switch t {
	case TypeByte:
		return newColumn[uint8](n)
	case TypeInt32:
		return newColumn[int32](n)
	case TypeFloat:
		return newColumn[float32](n)
	case TypeFloat2:
		return newColumn[Float2](n)
	case TypeFloat3:
		return newColumn[Float3](n)
	case TypeColorByte:
		return newColumn[RGBA8](n)
	case TypeColorFloat:
		return newColumn[RGBAf](n)
	}
	panic(fmt.Sprintf("attr: unknown type tag %d", t))
}

// NewFilledBuffer allocates a column of n values set to def.
func NewFilledBuffer(t Type, n int, def any) Buffer {
	b := NewBuffer(t, n)
	b.Fill(def, 0, n)
	return b
}

func newColumn[T Value](n int) *column[T] {
	return &column[T]{typ: TypeOf[T](), data: make([]T, n)}
}

func (c *column[T]) Type() Type { return c.typ }
func (c *column[T]) Len() int   { return len(c.data) }
func (c *column[T]) Data() any  { return c.data }

func (c *column[T]) Move(src, dst int) {
	c.data[dst] = c.data[src]
}

func (c *column[T]) CopyFrom(src Buffer, srcIndex, dstIndex int) {
	c.data[dstIndex] = src.(*column[T]).data[srcIndex]
}

func (c *column[T]) Fill(value any, lo, hi int) {
	v, ok := value.(T)
	if !ok {
		panic(fmt.Sprintf("attr: cannot fill %s column with %T", c.typ, value))
	}
	for i := lo; i < hi; i++ {
		c.data[i] = v
	}
}

func (c *column[T]) Gather(dst Buffer, dstStart int, lo, hi int) {
	copy(dst.(*column[T]).data[dstStart:], c.data[lo:hi])
}

// Data returns the typed slice behind b. It panics if T does not match the
// buffer's type tag.
func Data[T Value](b Buffer) []T {
	c, ok := b.(*column[T])
	if !ok {
		panic(fmt.Sprintf("attr: column is %s, not %s", b.Type(), TypeOf[T]()))
	}
	return c.data
}
