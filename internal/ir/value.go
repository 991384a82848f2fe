package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a node in the canonical document tree used for content hashing.
// Only the types in this file implement it. There is no float and no null:
// fractions travel as their "n/d" string form.
type Value interface {
	irValue()
}

// String is a canonical string value.
type String string

func (String) irValue() {}

// Int is a canonical integer value.
type Int int64

func (Int) irValue() {}

// Bool is a canonical boolean value.
type Bool bool

func (Bool) irValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) irValue() {}

// Object maps keys to values. Keys are emitted in RFC 8785 order.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns the keys ordered by UTF-16 code units, which is the
// order RFC 8785 requires and differs from Go's byte order for characters
// outside the BMP.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
