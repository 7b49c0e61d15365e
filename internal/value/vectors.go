package value

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/oxhq/driftsim/internal/core"
)

// Null is the zero-length non-promotable value.
type Null struct{ flags }

func NewNull() *Null { return &Null{} }

// NewNullInvisible returns a fresh invisible NULL, the result of statements
// that deliberately yield nothing (assignments, empty branches).
func NewNullInvisible() *Null {
	n := &Null{}
	n.invisible = true
	return n
}

func (v *Null) Type() Type  { return TypeNull }
func (v *Null) Count() int  { return 0 }
func (v *Null) Print(w io.Writer) { io.WriteString(w, "NULL") }

func (v *Null) GetAtIndex(i int) (Value, error) { return nil, rangeErr("GetAtIndex", i, 0) }
func (v *Null) SetAtIndex(i int, x Value) error { return rangeErr("SetAtIndex", i, 0) }
func (v *Null) Copy() Value                     { return &Null{} }
func (v *Null) NewMatchingType() Value          { return &Null{} }
func (v *Null) PushFromIndex(src Value, i int) error {
	return core.NoposErrf(core.ErrType, "PushFromIndex", "cannot push onto NULL")
}
func (v *Null) LogicalAt(i int) (bool, error)  { return false, coerceErr("LogicalAt", TypeNull) }
func (v *Null) IntAt(i int) (int64, error)     { return 0, coerceErr("IntAt", TypeNull) }
func (v *Null) FloatAt(i int) (float64, error) { return 0, coerceErr("FloatAt", TypeNull) }
func (v *Null) StringAt(i int) (string, error) { return "", coerceErr("StringAt", TypeNull) }

// Logical is a vector of booleans.
type Logical struct {
	flags
	Values []bool
}

func NewLogical(vals ...bool) *Logical { return &Logical{Values: vals} }

func (v *Logical) Type() Type { return TypeLogical }
func (v *Logical) Count() int { return len(v.Values) }
func (v *Logical) Print(w io.Writer) {
	printVector(w, v.Type(), v.Count(), func(i int) string {
		if v.Values[i] {
			return "T"
		}
		return "F"
	})
}

func (v *Logical) GetAtIndex(i int) (Value, error) {
	if i < 0 || i >= len(v.Values) {
		return nil, rangeErr("GetAtIndex", i, len(v.Values))
	}
	return NewLogical(v.Values[i]), nil
}

func (v *Logical) SetAtIndex(i int, x Value) error {
	if i < 0 || i >= len(v.Values) {
		return rangeErr("SetAtIndex", i, len(v.Values))
	}
	b, err := x.LogicalAt(0)
	if err != nil {
		return err
	}
	v.Values[i] = b
	return nil
}

func (v *Logical) Copy() Value {
	return NewLogical(append([]bool(nil), v.Values...)...)
}
func (v *Logical) NewMatchingType() Value { return NewLogical() }

func (v *Logical) PushFromIndex(src Value, i int) error {
	b, err := src.LogicalAt(i)
	if err != nil {
		return err
	}
	v.Values = append(v.Values, b)
	return nil
}

func (v *Logical) LogicalAt(i int) (bool, error) {
	if i < 0 || i >= len(v.Values) {
		return false, rangeErr("LogicalAt", i, len(v.Values))
	}
	return v.Values[i], nil
}
func (v *Logical) IntAt(i int) (int64, error) {
	b, err := v.LogicalAt(i)
	if err != nil {
		return 0, err
	}
	if b {
		return 1, nil
	}
	return 0, nil
}
func (v *Logical) FloatAt(i int) (float64, error) {
	n, err := v.IntAt(i)
	return float64(n), err
}
func (v *Logical) StringAt(i int) (string, error) {
	b, err := v.LogicalAt(i)
	if err != nil {
		return "", err
	}
	if b {
		return "T", nil
	}
	return "F", nil
}

// Integer is a vector of 64-bit signed integers.
type Integer struct {
	flags
	Values []int64
}

func NewInteger(vals ...int64) *Integer { return &Integer{Values: vals} }

func (v *Integer) Type() Type { return TypeInteger }
func (v *Integer) Count() int { return len(v.Values) }
func (v *Integer) Print(w io.Writer) {
	printVector(w, v.Type(), v.Count(), func(i int) string {
		return strconv.FormatInt(v.Values[i], 10)
	})
}

func (v *Integer) GetAtIndex(i int) (Value, error) {
	if i < 0 || i >= len(v.Values) {
		return nil, rangeErr("GetAtIndex", i, len(v.Values))
	}
	return NewInteger(v.Values[i]), nil
}

func (v *Integer) SetAtIndex(i int, x Value) error {
	if i < 0 || i >= len(v.Values) {
		return rangeErr("SetAtIndex", i, len(v.Values))
	}
	n, err := x.IntAt(0)
	if err != nil {
		return err
	}
	v.Values[i] = n
	return nil
}

func (v *Integer) Copy() Value {
	return NewInteger(append([]int64(nil), v.Values...)...)
}
func (v *Integer) NewMatchingType() Value { return NewInteger() }

func (v *Integer) PushFromIndex(src Value, i int) error {
	n, err := src.IntAt(i)
	if err != nil {
		return err
	}
	v.Values = append(v.Values, n)
	return nil
}

func (v *Integer) LogicalAt(i int) (bool, error) {
	n, err := v.IntAt(i)
	return n != 0, err
}
func (v *Integer) IntAt(i int) (int64, error) {
	if i < 0 || i >= len(v.Values) {
		return 0, rangeErr("IntAt", i, len(v.Values))
	}
	return v.Values[i], nil
}
func (v *Integer) FloatAt(i int) (float64, error) {
	n, err := v.IntAt(i)
	return float64(n), err
}
func (v *Integer) StringAt(i int) (string, error) {
	n, err := v.IntAt(i)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

// Float is a vector of doubles.
type Float struct {
	flags
	Values []float64
}

func NewFloat(vals ...float64) *Float { return &Float{Values: vals} }

func (v *Float) Type() Type { return TypeFloat }
func (v *Float) Count() int { return len(v.Values) }
func (v *Float) Print(w io.Writer) {
	printVector(w, v.Type(), v.Count(), func(i int) string {
		return FormatFloat(v.Values[i])
	})
}

func (v *Float) GetAtIndex(i int) (Value, error) {
	if i < 0 || i >= len(v.Values) {
		return nil, rangeErr("GetAtIndex", i, len(v.Values))
	}
	return NewFloat(v.Values[i]), nil
}

func (v *Float) SetAtIndex(i int, x Value) error {
	if i < 0 || i >= len(v.Values) {
		return rangeErr("SetAtIndex", i, len(v.Values))
	}
	f, err := x.FloatAt(0)
	if err != nil {
		return err
	}
	v.Values[i] = f
	return nil
}

func (v *Float) Copy() Value {
	return NewFloat(append([]float64(nil), v.Values...)...)
}
func (v *Float) NewMatchingType() Value { return NewFloat() }

func (v *Float) PushFromIndex(src Value, i int) error {
	f, err := src.FloatAt(i)
	if err != nil {
		return err
	}
	v.Values = append(v.Values, f)
	return nil
}

func (v *Float) LogicalAt(i int) (bool, error) {
	f, err := v.FloatAt(i)
	return f != 0, err
}
func (v *Float) IntAt(i int) (int64, error) {
	f, err := v.FloatAt(i)
	return int64(f), err
}
func (v *Float) FloatAt(i int) (float64, error) {
	if i < 0 || i >= len(v.Values) {
		return 0, rangeErr("FloatAt", i, len(v.Values))
	}
	return v.Values[i], nil
}
func (v *Float) StringAt(i int) (string, error) {
	f, err := v.FloatAt(i)
	if err != nil {
		return "", err
	}
	return FormatFloat(f), nil
}

// String is a vector of byte strings.
type String struct {
	flags
	Values []string
}

func NewString(vals ...string) *String { return &String{Values: vals} }

func (v *String) Type() Type { return TypeString }
func (v *String) Count() int { return len(v.Values) }
func (v *String) Print(w io.Writer) {
	printVector(w, v.Type(), v.Count(), func(i int) string {
		return "\"" + v.Values[i] + "\""
	})
}

func (v *String) GetAtIndex(i int) (Value, error) {
	if i < 0 || i >= len(v.Values) {
		return nil, rangeErr("GetAtIndex", i, len(v.Values))
	}
	return NewString(v.Values[i]), nil
}

func (v *String) SetAtIndex(i int, x Value) error {
	if i < 0 || i >= len(v.Values) {
		return rangeErr("SetAtIndex", i, len(v.Values))
	}
	s, err := x.StringAt(0)
	if err != nil {
		return err
	}
	v.Values[i] = s
	return nil
}

func (v *String) Copy() Value {
	return NewString(append([]string(nil), v.Values...)...)
}
func (v *String) NewMatchingType() Value { return NewString() }

func (v *String) PushFromIndex(src Value, i int) error {
	s, err := src.StringAt(i)
	if err != nil {
		return err
	}
	v.Values = append(v.Values, s)
	return nil
}

// The coerced reads are deliberately permissive, strtoll/strtod style: a
// string is true iff non-empty, and numeric reads parse the longest
// leading number, yielding 0 when there is none.
func (v *String) LogicalAt(i int) (bool, error) {
	s, err := v.StringAt(i)
	if err != nil {
		return false, err
	}
	return len(s) > 0, nil
}
func (v *String) IntAt(i int) (int64, error) {
	s, err := v.StringAt(i)
	if err != nil {
		return 0, err
	}
	return leadingInt(s), nil
}
func (v *String) FloatAt(i int) (float64, error) {
	s, err := v.StringAt(i)
	if err != nil {
		return 0, err
	}
	return leadingFloat(s), nil
}
func (v *String) StringAt(i int) (string, error) {
	if i < 0 || i >= len(v.Values) {
		return "", rangeErr("StringAt", i, len(v.Values))
	}
	return v.Values[i], nil
}

// leadingInt parses the longest leading base-10 integer of s, skipping
// leading whitespace; no integer prefix reads as 0 and an out-of-range
// prefix clamps, matching strtoll.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if digits == 0 {
		return 0
	}
	n, _ := strconv.ParseInt(s[:end], 10, 64)
	return n
}

// leadingFloat parses the longest leading floating-point number of s,
// skipping leading whitespace; no numeric prefix reads as 0, matching
// strtod.
func leadingFloat(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if mark := end; end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		end++
		if end < len(s) && (s[end] == '+' || s[end] == '-') {
			end++
		}
		expDigits := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			expDigits++
		}
		if expDigits == 0 {
			end = mark
		}
	}
	f, _ := strconv.ParseFloat(s[:end], 64)
	return f
}

// FormatFloat renders a double the way the REPL prints it: shortest
// round-trip form, with the INF/NAN spellings matching the constants.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func printVector(w io.Writer, t Type, count int, elem func(int) string) {
	if count == 0 {
		fmt.Fprintf(w, "%s(0)", t)
		return
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			io.WriteString(w, " ")
		}
		io.WriteString(w, elem(i))
	}
}
