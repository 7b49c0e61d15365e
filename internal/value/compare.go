package value

import (
	"github.com/oxhq/driftsim/internal/core"
)

// Promote returns the common type two operand types are lifted to for a
// binary operator, following the order logical < integer < float < string.
// Null is not promotable and object never mixes with anything.
func Promote(a, b Type) (Type, error) {
	if a == TypeNull || b == TypeNull {
		return TypeNull, core.NoposErrf(core.ErrType, "Promote", "NULL is not promotable")
	}
	if a == TypeObject || b == TypeObject {
		if a == b {
			return TypeObject, nil
		}
		return TypeNull, core.NoposErrf(core.ErrType, "Promote", "object type cannot mix with %s", other(a, b))
	}
	if a > b {
		return a, nil
	}
	return b, nil
}

func other(a, b Type) Type {
	if a == TypeObject {
		return b
	}
	return a
}

// CompareAt compares element ai of a against element bi of b at the
// promoted type t: numerically for logical/integer/float, lexicographically
// for string. Ordering on object type is an error; the interpreter handles
// object equality by element identity.
func CompareAt(a Value, ai int, b Value, bi int, t Type) (int, error) {
	switch t {
	case TypeLogical, TypeInteger:
		x, err := a.IntAt(ai)
		if err != nil {
			return 0, err
		}
		y, err := b.IntAt(bi)
		if err != nil {
			return 0, err
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case TypeFloat:
		x, err := a.FloatAt(ai)
		if err != nil {
			return 0, err
		}
		y, err := b.FloatAt(bi)
		if err != nil {
			return 0, err
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case TypeString:
		x, err := a.StringAt(ai)
		if err != nil {
			return 0, err
		}
		y, err := b.StringAt(bi)
		if err != nil {
			return 0, err
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	}
	return 0, core.NoposErrf(core.ErrType, "CompareAt", "values of type %s cannot be ordered", t)
}

// ElementwiseEqual reports whether two values have the same type, length,
// and elements. Object elements compare by identity.
func ElementwiseEqual(a, b Value) bool {
	if a.Type() != b.Type() || a.Count() != b.Count() {
		return false
	}
	if a.Type() == TypeObject {
		ao, bo := a.(*Object), b.(*Object)
		for i := range ao.Elements {
			if ao.Elements[i] != bo.Elements[i] {
				return false
			}
		}
		return true
	}
	if a.Type() == TypeNull {
		return true
	}
	for i := 0; i < a.Count(); i++ {
		c, err := CompareAt(a, i, b, i, a.Type())
		if err != nil || c != 0 {
			return false
		}
	}
	return true
}
