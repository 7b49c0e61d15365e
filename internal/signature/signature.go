// Package signature carries the declarative argument/return typing for
// callables, the checking that enforces it, and the registries used for
// dispatch: one global table of built-in functions and one method table
// per host object class.
package signature

import (
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/value"
)

// Mask is a bitfield admitting a set of value element types, plus three
// flag bits. Masks are additive; a mask may admit several element types.
type Mask uint16

const (
	Logical Mask = 1 << iota
	Integer
	Float
	String
	Object

	// Optional marks an argument that may be omitted.
	Optional
	// Singleton requires the argument's count to be exactly one.
	Singleton
	// NullOK admits a NULL argument.
	NullOK
)

// Convenience combinations.
const (
	Numeric Mask = Integer | Float
	Any     Mask = Logical | Integer | Float | String | Object
	AnyNull Mask = Any | NullOK
)

// Admits reports whether the mask accepts the element type t.
func (m Mask) Admits(t value.Type) bool {
	switch t {
	case value.TypeNull:
		return m&NullOK != 0
	case value.TypeLogical:
		return m&Logical != 0
	case value.TypeInteger:
		return m&Integer != 0
	case value.TypeFloat:
		return m&Float != 0
	case value.TypeString:
		return m&String != 0
	case value.TypeObject:
		return m&Object != 0
	}
	return false
}

// Arg is one declared argument.
type Arg struct {
	Name string
	Mask Mask
}

// Signature describes a callable: its name, return mask, and argument
// masks. Signatures never change after registration.
type Signature struct {
	Name             string
	ReturnMask       Mask
	Args             []Arg
	HasEllipsis      bool
	IsClassMethod    bool
	IsInstanceMethod bool
}

// New begins a signature with the given name and return mask. Arguments
// accumulate through the fluent Arg/Ellipsis calls; declaration-order
// violations are programmer errors and panic at construction time.
func New(name string, returnMask Mask) *Signature {
	return &Signature{Name: name, ReturnMask: returnMask}
}

// Arg declares the next argument. Once any optional argument is declared,
// every subsequent argument must also be optional; nothing may follow an
// ellipsis.
func (s *Signature) Arg(name string, mask Mask) *Signature {
	if s.HasEllipsis {
		panic(core.NoposErrf(core.ErrInvariant, "Signature",
			"%s: argument %s declared after ellipsis", s.Name, name))
	}
	if n := len(s.Args); n > 0 && s.Args[n-1].Mask&Optional != 0 && mask&Optional == 0 {
		panic(core.NoposErrf(core.ErrInvariant, "Signature",
			"%s: required argument %s follows an optional argument", s.Name, name))
	}
	s.Args = append(s.Args, Arg{Name: name, Mask: mask})
	return s
}

// Ellipsis declares that the callable accepts arbitrary trailing arguments.
func (s *Signature) Ellipsis() *Signature {
	if s.HasEllipsis {
		panic(core.NoposErrf(core.ErrInvariant, "Signature", "%s: duplicate ellipsis", s.Name))
	}
	s.HasEllipsis = true
	return s
}

// ClassMethod marks the signature as a class method (no per-instance state).
func (s *Signature) ClassMethod() *Signature {
	s.IsClassMethod = true
	return s
}

// InstanceMethod marks the signature as an instance method.
func (s *Signature) InstanceMethod() *Signature {
	s.IsInstanceMethod = true
	return s
}

// CheckArguments validates an argument list against the signature.
// Omitted trailing arguments are passed as nil.
func (s *Signature) CheckArguments(args []value.Value) error {
	if !s.HasEllipsis && len(args) > len(s.Args) {
		return core.NoposErrf(core.ErrType, s.Name,
			"too many arguments: %d supplied, at most %d accepted", len(args), len(s.Args))
	}
	for i, decl := range s.Args {
		if i >= len(args) || args[i] == nil {
			if decl.Mask&Optional == 0 {
				return core.NoposErrf(core.ErrType, s.Name, "missing required argument %s", decl.Name)
			}
			continue
		}
		arg := args[i]
		if !decl.Mask.Admits(arg.Type()) {
			return core.NoposErrf(core.ErrType, s.Name,
				"argument %s cannot be of type %s", decl.Name, arg.Type())
		}
		if decl.Mask&Singleton != 0 && arg.Count() != 1 {
			return core.NoposErrf(core.ErrType, s.Name,
				"argument %s must be a singleton (length 1), not length %d", decl.Name, arg.Count())
		}
	}
	return nil
}

// CheckReturn validates the value a callable produced. A NULL return is
// always permitted so callables can signal exceptional outcomes without
// every signature enumerating it.
func (s *Signature) CheckReturn(v value.Value) error {
	if v == nil {
		return core.NoposErrf(core.ErrInvariant, s.Name, "callable returned no value")
	}
	if v.Type() == value.TypeNull {
		return nil
	}
	if !s.ReturnMask.Admits(v.Type()) {
		return core.NoposErrf(core.ErrType, s.Name, "return value cannot be of type %s", v.Type())
	}
	if s.ReturnMask&Singleton != 0 && v.Count() != 1 {
		return core.NoposErrf(core.ErrType, s.Name,
			"return value must be a singleton (length 1), not length %d", v.Count())
	}
	return nil
}
