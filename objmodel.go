package objmodel

import "fmt"

// RegionID identifies a storage region. ID 0 is reserved and always invalid.
type RegionID uint32

// ObjectID identifies a live or destroyed object. ID 0 is reserved.
type ObjectID uint32

// Address is a byte location inside a region. Addresses do not own storage
// and may refer to bytes with no live object.
type Address struct {
	Region RegionID
	Offset uint32
}

func (a Address) String() string {
	return fmt.Sprintf("r%d+%d", a.Region, a.Offset)
}

// ValueKind discriminates the outcome of a read.
type ValueKind uint8

const (
	// ValueConcrete is a fully determined value.
	ValueConcrete ValueKind = iota
	// ValueUnspecified means the read is well-defined but the byte's value
	// is not determined by the model. It is NOT an error.
	ValueUnspecified
)

// Value is the result of a well-defined read. Reads of representation bytes
// of non-byte-like objects are well-defined but carry no determined value;
// those reads yield an unspecified Value, distinct from both a concrete
// value and a violation.
type Value struct {
	bits uint64
	raw  []byte
	kind ValueKind
}

// Concrete returns a determined integer value.
func Concrete(v uint64) Value {
	return Value{bits: v, kind: ValueConcrete}
}

// Raw returns a determined value carried as raw bytes. Used for objects
// wider than 8 bytes.
func Raw(b []byte) Value {
	return Value{raw: b, kind: ValueConcrete}
}

// Unspecified returns the unspecified value.
func Unspecified() Value {
	return Value{kind: ValueUnspecified}
}

// Kind reports whether the value is concrete or unspecified.
func (v Value) Kind() ValueKind { return v.kind }

// IsUnspecified reports whether the value carries no determined bits.
func (v Value) IsUnspecified() bool { return v.kind == ValueUnspecified }

// Uint64 returns the integer bits of a concrete value. Zero for raw or
// unspecified values.
func (v Value) Uint64() uint64 { return v.bits }

// Bytes returns the raw byte form, or nil if the value is integer-carried
// or unspecified.
func (v Value) Bytes() []byte { return v.raw }

func (v Value) String() string {
	if v.kind == ValueUnspecified {
		return "unspecified"
	}
	if v.raw != nil {
		return fmt.Sprintf("%x", v.raw)
	}
	return fmt.Sprintf("%d", v.bits)
}
