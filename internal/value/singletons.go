package value

import "math"

// Static singletons for the common constants. All are externally owned and
// must be treated as immutable by every consumer; the symbol table installs
// them without copying.
var (
	StaticNull          = markStatic(NewNull())
	StaticNullInvisible = markStatic(NewNullInvisible())
	StaticTrue          = markStatic(NewLogical(true))
	StaticFalse         = markStatic(NewLogical(false))

	StaticInt0 = markStatic(NewInteger(0))
	StaticInt1 = markStatic(NewInteger(1))
	StaticInt2 = markStatic(NewInteger(2))
	StaticInt3 = markStatic(NewInteger(3))

	StaticPI  = markStatic(NewFloat(math.Pi))
	StaticE   = markStatic(NewFloat(math.E))
	StaticINF = markStatic(NewFloat(math.Inf(1)))
	StaticNAN = markStatic(NewFloat(math.NaN()))

	StaticStringA = markStatic(NewString("A"))
	StaticStringC = markStatic(NewString("C"))
	StaticStringG = markStatic(NewString("G"))
	StaticStringT = markStatic(NewString("T"))
)

func markStatic[V Value](v V) V {
	v.MarkExternallyOwned()
	return v
}

// LogicalSingleton returns the shared T or F value.
func LogicalSingleton(b bool) *Logical {
	if b {
		return StaticTrue
	}
	return StaticFalse
}

// IntegerSingleton returns a shared value for the small integers that come
// up constantly, and a fresh value otherwise.
func IntegerSingleton(n int64) *Integer {
	switch n {
	case 0:
		return StaticInt0
	case 1:
		return StaticInt1
	case 2:
		return StaticInt2
	case 3:
		return StaticInt3
	}
	return NewInteger(n)
}

// NucleotideSingleton returns the shared one-character string for the four
// nucleotides, and nil for anything else.
func NucleotideSingleton(s string) *String {
	switch s {
	case "A":
		return StaticStringA
	case "C":
		return StaticStringC
	case "G":
		return StaticStringG
	case "T":
		return StaticStringT
	}
	return nil
}
