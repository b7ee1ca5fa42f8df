package layout

import (
	"fmt"
	"strings"
)

// Kind discriminates type descriptors.
type Kind uint8

const (
	KindByte   Kind = iota // unsigned byte / byte-alias type
	KindChar               // narrow character
	KindSChar              // signed narrow character
	KindInt                // signed integer of Width bytes
	KindUInt               // unsigned integer of Width bytes
	KindFloat              // floating point of Width bytes
	KindArray              // Count elements of Elem
	KindStruct             // aggregate with Fields
)

// CV is a cv-qualification bitmask. Qualification never affects layout,
// classification, or similarity; it is carried for diagnostics only.
type CV uint8

const (
	CVConst    CV = 1 << iota
	CVVolatile
)

// Field is a named struct member.
type Field struct {
	Name string
	Type *Type
}

// Type is a structural type descriptor consumed by the layout oracle.
// Descriptors are immutable once built; drivers share them freely.
type Type struct {
	Kind   Kind
	Width  uint32 // Int/UInt/Float only
	Elem   *Type  // Array only
	Count  uint32 // Array only
	Fields []Field
	Name   string // Struct only
	Class  bool   // Struct with class semantics (destruction completes the lifetime)
	CV     CV

	// NonContiguous marks a type whose objects may occupy non-contiguous
	// storage. The oracle reports it through Info.Contiguous; such objects
	// still have a representation, but not an arithmetic-addable one.
	NonContiguous bool
}

// Byte returns the unsigned-byte type descriptor.
func Byte() *Type { return &Type{Kind: KindByte} }

// Char returns the narrow character type descriptor.
func Char() *Type { return &Type{Kind: KindChar} }

// SChar returns the signed narrow character type descriptor.
func SChar() *Type { return &Type{Kind: KindSChar} }

// Int returns a signed integer descriptor of width bytes.
func Int(width uint32) *Type { return &Type{Kind: KindInt, Width: width} }

// UInt returns an unsigned integer descriptor of width bytes.
func UInt(width uint32) *Type { return &Type{Kind: KindUInt, Width: width} }

// Float returns a floating point descriptor of width bytes.
func Float(width uint32) *Type { return &Type{Kind: KindFloat, Width: width} }

// ArrayOf returns an array descriptor of count elements.
func ArrayOf(elem *Type, count uint32) *Type {
	return &Type{Kind: KindArray, Elem: elem, Count: count}
}

// StructOf returns an aggregate descriptor.
func StructOf(name string, fields ...Field) *Type {
	return &Type{Kind: KindStruct, Name: name, Fields: fields}
}

// Qualified returns a copy of t carrying the given qualification.
func Qualified(t *Type, cv CV) *Type {
	c := *t
	c.CV = cv
	return &c
}

// SelfRepresenting reports whether objects of t are their own object
// representation: a single unsigned-byte type or an array thereof,
// ignoring cv-qualification.
func (t *Type) SelfRepresenting() bool {
	switch t.Kind {
	case KindByte:
		return true
	case KindArray:
		return t.Elem.SelfRepresenting()
	}
	return false
}

// ByteLike reports whether t may alias any object's storage with specified
// byte values: narrow characters, byte-alias types, and arrays thereof.
func (t *Type) ByteLike() bool {
	switch t.Kind {
	case KindByte, KindChar, KindSChar:
		return true
	case KindArray:
		return t.Elem.ByteLike()
	}
	return false
}

// Similar reports structural equality ignoring cv-qualification at every
// level. Pointer arithmetic requires the static type to be similar to the
// addressed object's type.
func (t *Type) Similar(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt, KindUInt, KindFloat:
		return t.Width == o.Width
	case KindArray:
		return t.Count == o.Count && t.Elem.Similar(o.Elem)
	case KindStruct:
		if t.Name != o.Name || len(t.Fields) != len(o.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Fields[i].Name != o.Fields[i].Name || !t.Fields[i].Type.Similar(o.Fields[i].Type) {
				return false
			}
		}
		return true
	}
	return true
}

func (t *Type) String() string {
	var b strings.Builder
	if t.CV&CVConst != 0 {
		b.WriteString("const ")
	}
	if t.CV&CVVolatile != 0 {
		b.WriteString("volatile ")
	}
	switch t.Kind {
	case KindByte:
		b.WriteString("byte")
	case KindChar:
		b.WriteString("char")
	case KindSChar:
		b.WriteString("signed char")
	case KindInt:
		fmt.Fprintf(&b, "int%d", t.Width*8)
	case KindUInt:
		fmt.Fprintf(&b, "uint%d", t.Width*8)
	case KindFloat:
		fmt.Fprintf(&b, "float%d", t.Width*8)
	case KindArray:
		fmt.Fprintf(&b, "%s[%d]", t.Elem, t.Count)
	case KindStruct:
		if t.Name != "" {
			fmt.Fprintf(&b, "struct %s", t.Name)
		} else {
			b.WriteString("struct")
		}
	default:
		b.WriteString("unknown")
	}
	return b.String()
}
