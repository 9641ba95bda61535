package attr

import (
	"fmt"
	"math"
)

// Type tags the fixed-size value stored in a column.
type Type uint8

const (
	TypeByte Type = iota
	TypeInt32
	TypeFloat
	TypeFloat2
	TypeFloat3
	TypeColorByte
	TypeColorFloat
)

var typeNames = [...]string{
	TypeByte:       "byte",
	TypeInt32:      "int32",
	TypeFloat:      "float",
	TypeFloat2:     "float2",
	TypeFloat3:     "float3",
	TypeColorByte:  "color_byte",
	TypeColorFloat: "color_float",
}

var typeSizes = [...]int{
	TypeByte:       1,
	TypeInt32:      4,
	TypeFloat:      4,
	TypeFloat2:     8,
	TypeFloat3:     12,
	TypeColorByte:  4,
	TypeColorFloat: 16,
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", t)
}

// Size is the number of bytes one value of this type occupies.
func (t Type) Size() int {
	if int(t) >= len(typeSizes) {
		panic(fmt.Sprintf("attr: unknown type tag %d", t))
	}
	return typeSizes[t]
}

// ParseType maps a config name such as "float3" to its tag.
func ParseType(name string) (Type, bool) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	return 0, false
}

type Float2 struct {
	X, Y float32
}

type Float3 struct {
	X, Y, Z float32
}

// RGBA8 is a color with one byte per channel.
type RGBA8 struct {
	R, G, B, A uint8
}

// RGBAf is a color with float channels in [0, 1].
type RGBAf struct {
	R, G, B, A float32
}

// Value is the set of Go types a column can hold.
type Value interface {
	uint8 | int32 | float32 | Float2 | Float3 | RGBA8 | RGBAf
}

// TypeOf returns the tag for the Go value type T.
func TypeOf[T Value]() Type {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return TypeByte
	case int32:
		return TypeInt32
	case float32:
		return TypeFloat
	case Float2:
		return TypeFloat2
	case Float3:
		return TypeFloat3
	case RGBA8:
		return TypeColorByte
	default:
		return TypeColorFloat
	}
}

func (a Float3) Add(b Float3) Float3 { return Float3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Float3) Sub(b Float3) Float3 { return Float3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Float3) Scale(f float32) Float3 {
	return Float3{a.X * f, a.Y * f, a.Z * f}
}
func (a Float3) Dot(b Float3) float32 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Float3) Cross(b Float3) Float3 {
	return Float3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func (a Float3) Length() float32 {
	return float32(math.Sqrt(float64(a.Dot(a))))
}

// Normalized returns a unit vector, or the zero vector for zero input.
func (a Float3) Normalized() Float3 {
	l := a.Length()
	if l == 0 {
		return Float3{}
	}
	return a.Scale(1 / l)
}

// Lerp mixes a and b by t.
func (a Float3) Lerp(b Float3, t float32) Float3 {
	return a.Add(b.Sub(a).Scale(t))
}
