package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSizes(t *testing.T) {
	tests := []struct {
		typ  Type
		size int
	}{
		{TypeByte, 1},
		{TypeInt32, 4},
		{TypeFloat, 4},
		{TypeFloat2, 8},
		{TypeFloat3, 12},
		{TypeColorByte, 4},
		{TypeColorFloat, 16},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.typ.Size())
			parsed, ok := ParseType(tt.typ.String())
			require.True(t, ok)
			assert.Equal(t, tt.typ, parsed)
		})
	}
}

func TestDeclaration_FirstDeclarationWins(t *testing.T) {
	d := NewDeclaration()
	d.AddFloat("Age", 1)
	d.AddFloat("Age", 2)
	d.AddFloat3("Position", Float3{})

	s := d.Freeze()
	require.Equal(t, 2, s.Size())
	assert.Equal(t, float32(1), s.Default(s.MustIndex("Age")))
}

func TestDeclaration_SameNameDifferentTypeIgnored(t *testing.T) {
	d := NewDeclaration()
	d.AddFloat("Size", 0.5)
	d.AddInt32("Size", 3)

	typ, ok := d.Freeze().TypeOf("Size")
	require.True(t, ok)
	assert.Equal(t, TypeFloat, typ)
}

func TestDeclaration_Merge(t *testing.T) {
	a := NewDeclaration()
	a.AddFloat3("Position", Float3{})
	a.AddFloat("Age", 0)

	b := NewDeclaration()
	b.AddFloat("Age", 5)
	b.AddByte("Kill State", 0)

	a.Merge(b)
	s := a.Freeze()
	assert.Equal(t, []string{"Position", "Age", "Kill State"}, s.Names())
	assert.Equal(t, float32(0), s.Default(s.MustIndex("Age")))

	c := NewDeclaration()
	c.AddColorFloat("Color", RGBAf{1, 1, 1, 1})
	c.MergeSchema(s)
	assert.Equal(t, []string{"Color", "Position", "Age", "Kill State"}, c.Freeze().Names())
}

func TestDeclaration_MismatchedDefaultPanics(t *testing.T) {
	d := NewDeclaration()
	assert.Panics(t, func() { d.add("x", TypeFloat3, float32(1)) })
}

func TestSchema_Lookup(t *testing.T) {
	d := NewDeclaration()
	d.AddFloat3("Position", Float3{})
	s := d.Freeze()

	i, ok := s.Index("Position")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, "Position", s.Name(0))
	assert.Equal(t, TypeFloat3, s.Type(0))

	_, ok = s.Index("Velocity")
	assert.False(t, ok)
	assert.Panics(t, func() { s.MustIndex("Velocity") })
	assert.True(t, s.Has("Position", TypeFloat3))
	assert.False(t, s.Has("Position", TypeFloat))
}

func TestSchema_Equal(t *testing.T) {
	build := func(def float32) *Schema {
		d := NewDeclaration()
		d.AddFloat3("Position", Float3{})
		d.AddFloat("Age", def)
		return d.Freeze()
	}
	assert.True(t, build(0).Equal(build(0)))
	assert.False(t, build(0).Equal(build(1)))
	assert.False(t, build(0).Equal(nil))
}

func TestArrays_TypedViews(t *testing.T) {
	d := NewDeclaration()
	d.AddFloat3("Position", Float3{1, 2, 3})
	d.AddFloat("Age", 0)
	s := d.Freeze()

	a := Allocate(s, 8)
	a.FillDefaults(0, 8)

	pos := a.Float3("Position")
	require.Len(t, pos, 8)
	assert.Equal(t, Float3{1, 2, 3}, pos[7])

	sub := a.Slice(2, 3)
	sub.Float3("Position")[0] = Float3{9, 9, 9}
	assert.Equal(t, Float3{9, 9, 9}, pos[2])

	_, ok := a.TryFloat3("Age")
	assert.False(t, ok)
	assert.Panics(t, func() { a.Float("Position") })
	assert.Panics(t, func() { a.Slice(6, 3) })
}

func TestBuffer_MoveAndGather(t *testing.T) {
	b := NewFilledBuffer(TypeInt32, 4, int32(7))
	Data[int32](b)[3] = 42
	b.Move(3, 0)
	assert.Equal(t, int32(42), Data[int32](b)[0])

	dst := NewBuffer(TypeInt32, 2)
	b.Gather(dst, 0, 2, 4)
	assert.Equal(t, []int32{7, 42}, Data[int32](dst))

	assert.Panics(t, func() { Data[float32](b) })
	assert.Panics(t, func() { b.Fill(float32(1), 0, 1) })
}

func TestFloat3Math(t *testing.T) {
	a := Float3{1, 0, 0}
	b := Float3{0, 1, 0}
	assert.Equal(t, Float3{0, 0, 1}, a.Cross(b))
	assert.Equal(t, float32(0), a.Dot(b))
	assert.InDelta(t, 5.0, float64(Float3{3, 4, 0}.Length()), 1e-6)
	assert.Equal(t, Float3{}, Float3{}.Normalized())
	assert.Equal(t, Float3{0.5, 0.5, 0}, a.Lerp(b, 0.5))
}
