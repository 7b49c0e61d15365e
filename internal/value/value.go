// Package value implements the typed vector values the scripting language
// trades in. A value is a homogeneous vector of one of six element types;
// three orthogonal flags govern printing and ownership.
//
// Go's collector takes care of the actual freeing, but the ownership flags
// are kept with their full semantics: the symbol table copies values it
// does not own outright, externally-owned singletons are never mutated or
// re-flagged, and "temporary" still means what callers expect when they
// decide whether a value may be recycled.
package value

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
)

// Type enumerates the element type of a value vector.
type Type int

const (
	TypeNull Type = iota
	TypeLogical
	TypeInteger
	TypeFloat
	TypeString
	TypeObject
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeLogical:
		return "logical"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	}
	return "unknown"
}

// Value is a typed vector of length >= 0.
type Value interface {
	Type() Type
	Count() int
	Print(w io.Writer)

	// GetAtIndex returns a new one-element value of the same type.
	GetAtIndex(i int) (Value, error)
	// SetAtIndex mutates the element in place; range-checked.
	SetAtIndex(i int, v Value) error
	// Copy deep-copies the receiver with all three flags cleared.
	Copy() Value
	// NewMatchingType returns a new empty value of the same element type.
	NewMatchingType() Value
	// PushFromIndex appends element i of src, which must have a matching type.
	PushFromIndex(src Value, i int) error

	// Type-coerced reads. Requesting a read the element type cannot
	// produce is an error.
	LogicalAt(i int) (bool, error)
	IntAt(i int) (int64, error)
	FloatAt(i int) (float64, error)
	StringAt(i int) (string, error)

	Invisible() bool
	InSymbolTable() bool
	ExternallyOwned() bool
	// IsTemporary reports that no symbol table or host object owns the
	// value; the evaluator frame that produced it may recycle it.
	IsTemporary() bool
	SetInvisible(bool)
	SetInSymbolTable(bool)
	MarkExternallyOwned()
}

// flags is embedded by every concrete value type.
type flags struct {
	invisible       bool
	inSymbolTable   bool
	externallyOwned bool
}

func (f *flags) Invisible() bool        { return f.invisible }
func (f *flags) InSymbolTable() bool    { return f.inSymbolTable }
func (f *flags) ExternallyOwned() bool  { return f.externallyOwned }
func (f *flags) IsTemporary() bool      { return !(f.inSymbolTable || f.externallyOwned) }
func (f *flags) SetInvisible(b bool)    { f.invisible = b }
func (f *flags) SetInSymbolTable(b bool) { f.inSymbolTable = b }
func (f *flags) MarkExternallyOwned() {
	f.externallyOwned = true
	f.inSymbolTable = true
}

func rangeErr(where string, i, count int) error {
	return core.NoposErrf(core.ErrRuntime, where, "index %d out of range for value of length %d", i, count)
}

func coerceErr(where string, from Type) error {
	return core.NoposErrf(core.ErrType, where, "cannot read %s value as requested type", from)
}
