// Package attr describes particle attributes and stores them as typed columns.
//
// A [Declaration] collects named attributes from many independent behaviors
// and freezes into an immutable [Schema]. Column storage is a [Buffer] per
// attribute; [Arrays] views a row range of those columns and hands out typed
// slices through checked accessors:
//
//	d := attr.NewDeclaration()
//	d.AddFloat3("Position", attr.Float3{})
//	d.AddFloat("Age", 0)
//	schema := d.Freeze()
//
//	a := attr.Allocate(schema, 16)
//	pos := a.Float3("Position")
//
// Only fixed-size value types are supported; see [Value].
package attr
