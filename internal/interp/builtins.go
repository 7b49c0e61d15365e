package interp

import (
	"io"
	"math"
	"strings"
	"sync"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/fsobj"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

var standardOnce sync.Once

// StandardRegistry returns the process-wide registry with the built-in
// function set installed. Host classes register their method tables into
// the same registry at init time; warm-up happens once and the registry
// is immutable (and safe for concurrent readers) thereafter.
func StandardRegistry() *signature.Registry {
	standardOnce.Do(func() { registerBuiltins(signature.Default) })
	return signature.Default
}

func registerBuiltins(reg *signature.Registry) {
	reg.MustRegisterFunction(
		signature.New("c", signature.AnyNull).Ellipsis(),
		builtinC)
	reg.MustRegisterFunction(
		signature.New("rep", signature.AnyNull).
			Arg("x", signature.AnyNull).
			Arg("count", signature.Integer|signature.Singleton),
		builtinRep)
	reg.MustRegisterFunction(
		signature.New("seq", signature.Numeric).
			Arg("from", signature.Numeric|signature.Singleton).
			Arg("to", signature.Numeric|signature.Singleton).
			Arg("by", signature.Numeric|signature.Singleton|signature.Optional),
		builtinSeq)
	reg.MustRegisterFunction(
		signature.New("size", signature.Integer|signature.Singleton).
			Arg("x", signature.AnyNull),
		builtinSize)
	reg.MustRegisterFunction(
		signature.New("abs", signature.Numeric).
			Arg("x", signature.Numeric),
		builtinAbs)
	reg.MustRegisterFunction(
		signature.New("sum", signature.Numeric|signature.Singleton).
			Arg("x", signature.Logical|signature.Integer|signature.Float),
		builtinSum)
	reg.MustRegisterFunction(
		signature.New("print", signature.NullOK).
			Arg("x", signature.AnyNull),
		builtinPrint)
	reg.MustRegisterFunction(
		signature.New("paste", signature.String|signature.Singleton).
			Arg("x", signature.AnyNull).
			Arg("sep", signature.String|signature.Singleton|signature.Optional),
		builtinPaste)
	reg.MustRegisterFunction(
		signature.New("path", signature.Object|signature.Singleton).
			Arg("base", signature.String|signature.Singleton),
		builtinPath)
	reg.MustRegisterFunction(
		signature.New("filesAtPath", signature.String).
			Arg("base", signature.String|signature.Singleton).
			Arg("pattern", signature.String|signature.Singleton|signature.Optional),
		builtinFilesAtPath)
}

// builtinC concatenates its arguments at their promoted common type.
// NULL arguments drop out; with no non-NULL arguments the result is NULL.
func builtinC(args []value.Value, out io.Writer) (value.Value, error) {
	highest := value.TypeNull
	for _, a := range args {
		t := a.Type()
		if t == value.TypeNull {
			continue
		}
		if highest == value.TypeNull {
			highest = t
			continue
		}
		p, err := value.Promote(highest, t)
		if err != nil {
			return nil, err
		}
		highest = p
	}
	if highest == value.TypeNull {
		return value.StaticNull, nil
	}

	var result value.Value
	switch highest {
	case value.TypeLogical:
		result = value.NewLogical()
	case value.TypeInteger:
		result = value.NewInteger()
	case value.TypeFloat:
		result = value.NewFloat()
	case value.TypeString:
		result = value.NewString()
	case value.TypeObject:
		result = &value.Object{}
	}
	for _, a := range args {
		if a.Type() == value.TypeNull {
			continue
		}
		for i := 0; i < a.Count(); i++ {
			if err := result.PushFromIndex(a, i); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

func builtinRep(args []value.Value, out io.Writer) (value.Value, error) {
	x := args[0]
	count, err := args[1].IntAt(0)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, core.NoposErrf(core.ErrRuntime, "rep", "count must be >= 0, not %d", count)
	}
	result := x.NewMatchingType()
	for rep := int64(0); rep < count; rep++ {
		for i := 0; i < x.Count(); i++ {
			if err := result.PushFromIndex(x, i); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// builtinSeq generates from..to stepping by `by` (default ±1). The result
// is integer when all of from/to/by are integer, float otherwise.
func builtinSeq(args []value.Value, out io.Writer) (value.Value, error) {
	from, _ := args[0].FloatAt(0)
	to, _ := args[1].FloatAt(0)

	allInt := args[0].Type() == value.TypeInteger && args[1].Type() == value.TypeInteger
	by := 1.0
	if to < from {
		by = -1.0
	}
	if len(args) > 2 && args[2] != nil {
		by, _ = args[2].FloatAt(0)
		allInt = allInt && args[2].Type() == value.TypeInteger
	}
	if by == 0 {
		return nil, core.NoposErrf(core.ErrRuntime, "seq", "by must be nonzero")
	}
	if (to-from)*by < 0 {
		return nil, core.NoposErrf(core.ErrRuntime, "seq", "by has the wrong sign for the requested sequence")
	}

	steps := (to - from) / by
	n := int(math.Floor(steps+math.Abs(steps)*1e-10+1e-10)) + 1
	if n > rangeSizeCap {
		return nil, core.NoposErrf(core.ErrRuntime, "seq", "sequence of more than %d entries", rangeSizeCap)
	}
	if allInt {
		result := value.NewInteger()
		for i := 0; i < n; i++ {
			result.Values = append(result.Values, int64(from)+int64(i)*int64(by))
		}
		return result, nil
	}
	result := value.NewFloat()
	for i := 0; i < n; i++ {
		result.Values = append(result.Values, from+float64(i)*by)
	}
	return result, nil
}

func builtinSize(args []value.Value, out io.Writer) (value.Value, error) {
	return value.NewInteger(int64(args[0].Count())), nil
}

func builtinAbs(args []value.Value, out io.Writer) (value.Value, error) {
	x := args[0]
	if x.Type() == value.TypeInteger {
		result := value.NewInteger()
		for i := 0; i < x.Count(); i++ {
			n, _ := x.IntAt(i)
			if n < 0 {
				n = -n
			}
			result.Values = append(result.Values, n)
		}
		return result, nil
	}
	result := value.NewFloat()
	for i := 0; i < x.Count(); i++ {
		f, _ := x.FloatAt(i)
		result.Values = append(result.Values, math.Abs(f))
	}
	return result, nil
}

// builtinSum reduces to integer for logical/integer input, float for float.
func builtinSum(args []value.Value, out io.Writer) (value.Value, error) {
	x := args[0]
	if x.Type() == value.TypeFloat {
		total := 0.0
		for i := 0; i < x.Count(); i++ {
			f, _ := x.FloatAt(i)
			total += f
		}
		return value.NewFloat(total), nil
	}
	var total int64
	for i := 0; i < x.Count(); i++ {
		n, _ := x.IntAt(i)
		total += n
	}
	return value.NewInteger(total), nil
}

func builtinPrint(args []value.Value, out io.Writer) (value.Value, error) {
	args[0].Print(out)
	io.WriteString(out, "\n")
	return value.StaticNullInvisible, nil
}

func builtinPaste(args []value.Value, out io.Writer) (value.Value, error) {
	sep := " "
	if len(args) > 1 && args[1] != nil {
		s, err := args[1].StringAt(0)
		if err != nil {
			return nil, err
		}
		sep = s
	}
	x := args[0]
	parts := make([]string, 0, x.Count())
	for i := 0; i < x.Count(); i++ {
		s, err := x.StringAt(i)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return value.NewString(strings.Join(parts, sep)), nil
}

func builtinPath(args []value.Value, out io.Writer) (value.Value, error) {
	base, err := args[0].StringAt(0)
	if err != nil {
		return nil, err
	}
	return value.NewObject(fsobj.New(base))
}

func builtinFilesAtPath(args []value.Value, out io.Writer) (value.Value, error) {
	base, err := args[0].StringAt(0)
	if err != nil {
		return nil, err
	}
	p := fsobj.New(base)
	defer p.Release()
	var patternArgs []value.Value
	if len(args) > 1 && args[1] != nil {
		patternArgs = []value.Value{args[1]}
	}
	return p.ExecuteMethod("files", patternArgs, out)
}
