package interp

import (
	"math"
	"strconv"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
	"github.com/oxhq/driftsim/internal/value"
)

// rangeSizeCap bounds the number of entries the ':' operator may generate.
const rangeSizeCap = 100000

func parseIntLexeme(lex string) (int64, error) {
	n, err := strconv.ParseInt(lex, 10, 64)
	if err != nil {
		return 0, core.NoposErrf(core.ErrLex, "Evaluate", "malformed integer literal %q", lex)
	}
	return n, nil
}

func parseFloatLexeme(lex string) (float64, error) {
	f, err := strconv.ParseFloat(lex, 64)
	if err != nil {
		return 0, core.NoposErrf(core.ErrLex, "Evaluate", "malformed numeric literal %q", lex)
	}
	return f, nil
}

// broadcast computes the result length of a binary vector operator and
// per-operand index strides: equal lengths pair elementwise, a length-1
// operand broadcasts against the other.
func (in *Interpreter) broadcast(node *ast.Node, l, r value.Value) (n, lstep, rstep int, err error) {
	lc, rc := l.Count(), r.Count()
	switch {
	case lc == rc:
		return lc, 1, 1, nil
	case lc == 1:
		return rc, 0, 1, nil
	case rc == 1:
		return lc, 1, 0, nil
	}
	return 0, 0, 0, in.fatal(node, core.ErrRuntime,
		"the '%s' operator requires operands of equal length, or one of length 1 (lengths %d and %d)",
		node.Token.Kind, lc, rc)
}

func (in *Interpreter) evaluateUnaryPlusMinus(node *ast.Node) (value.Value, error) {
	operand, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	t := operand.Type()
	if t != value.TypeInteger && t != value.TypeFloat {
		return nil, in.fatal(node, core.ErrType,
			"operand type %s is not supported by the unary '%s' operator", t, node.Token.Kind)
	}
	if node.Token.Kind == token.Plus {
		return operand, nil
	}
	switch t {
	case value.TypeInteger:
		out := value.NewInteger()
		for i := 0; i < operand.Count(); i++ {
			n, _ := operand.IntAt(i)
			out.Values = append(out.Values, -n)
		}
		return out, nil
	default:
		out := value.NewFloat()
		for i := 0; i < operand.Count(); i++ {
			f, _ := operand.FloatAt(i)
			out.Values = append(out.Values, -f)
		}
		return out, nil
	}
}

// evaluateArithmetic handles binary + - * / % ^.
func (in *Interpreter) evaluateArithmetic(node *ast.Node) (value.Value, error) {
	l, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}

	op := node.Token.Kind
	lt, rt := l.Type(), r.Type()

	// '+' with a string operand coerces both sides to string and
	// concatenates elementwise.
	if op == token.Plus && (lt == value.TypeString || rt == value.TypeString) {
		if lt == value.TypeObject || rt == value.TypeObject || lt == value.TypeNull || rt == value.TypeNull {
			return nil, in.fatal(node, core.ErrType,
				"operand types %s and %s are not supported by the '+' operator", lt, rt)
		}
		n, ls, rs, err := in.broadcast(node, l, r)
		if err != nil {
			return nil, err
		}
		out := value.NewString()
		for i := 0; i < n; i++ {
			a, err := l.StringAt(i * ls)
			if err != nil {
				return nil, reposition(err, node)
			}
			b, err := r.StringAt(i * rs)
			if err != nil {
				return nil, reposition(err, node)
			}
			out.Values = append(out.Values, a+b)
		}
		return out, nil
	}

	numeric := func(t value.Type) bool { return t == value.TypeInteger || t == value.TypeFloat }
	if !numeric(lt) || !numeric(rt) {
		return nil, in.fatal(node, core.ErrType,
			"operand types %s and %s are not supported by the '%s' operator", lt, rt, op)
	}

	n, ls, rs, err := in.broadcast(node, l, r)
	if err != nil {
		return nil, err
	}

	// / % ^ always produce float; + - * stay integer when both sides are.
	switch op {
	case token.Div:
		// Float division by zero follows IEEE and yields an infinity, but
		// a zero divisor in an all-integer context is an error.
		intContext := lt == value.TypeInteger && rt == value.TypeInteger
		out := value.NewFloat()
		for i := 0; i < n; i++ {
			a, _ := l.FloatAt(i * ls)
			b, _ := r.FloatAt(i * rs)
			if intContext && b == 0 {
				return nil, in.fatal(node, core.ErrRuntime, "integer divide by zero")
			}
			out.Values = append(out.Values, a/b)
		}
		return out, nil
	case token.Mod:
		out := value.NewFloat()
		for i := 0; i < n; i++ {
			a, _ := l.FloatAt(i * ls)
			b, _ := r.FloatAt(i * rs)
			out.Values = append(out.Values, math.Mod(a, b))
		}
		return out, nil
	case token.Exp:
		out := value.NewFloat()
		for i := 0; i < n; i++ {
			a, _ := l.FloatAt(i * ls)
			b, _ := r.FloatAt(i * rs)
			out.Values = append(out.Values, math.Pow(a, b))
		}
		return out, nil
	}

	if lt == value.TypeInteger && rt == value.TypeInteger {
		out := value.NewInteger()
		for i := 0; i < n; i++ {
			a, _ := l.IntAt(i * ls)
			b, _ := r.IntAt(i * rs)
			switch op {
			case token.Plus:
				out.Values = append(out.Values, a+b)
			case token.Minus:
				out.Values = append(out.Values, a-b)
			case token.Mul:
				out.Values = append(out.Values, a*b)
			}
		}
		return out, nil
	}

	out := value.NewFloat()
	for i := 0; i < n; i++ {
		a, _ := l.FloatAt(i * ls)
		b, _ := r.FloatAt(i * rs)
		switch op {
		case token.Plus:
			out.Values = append(out.Values, a+b)
		case token.Minus:
			out.Values = append(out.Values, a-b)
		case token.Mul:
			out.Values = append(out.Values, a*b)
		}
	}
	return out, nil
}

// evaluateRange implements ':'. Both endpoints must be length-1 numeric;
// two integer endpoints produce an integer sequence, otherwise float. The
// sequence steps by one toward the second endpoint, inclusive.
func (in *Interpreter) evaluateRange(node *ast.Node) (value.Value, error) {
	l, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}
	numeric := func(t value.Type) bool { return t == value.TypeInteger || t == value.TypeFloat }
	if !numeric(l.Type()) || !numeric(r.Type()) {
		return nil, in.fatal(node, core.ErrType,
			"operand types %s and %s are not supported by the ':' operator", l.Type(), r.Type())
	}
	if l.Count() != 1 || r.Count() != 1 {
		return nil, in.fatal(node, core.ErrRuntime,
			"the ':' operator requires length-1 operands")
	}

	if l.Type() == value.TypeInteger && r.Type() == value.TypeInteger {
		first, _ := l.IntAt(0)
		second, _ := r.IntAt(0)
		span := second - first
		if span < 0 {
			span = -span
		}
		if span+1 > rangeSizeCap {
			return nil, in.fatal(node, core.ErrRuntime,
				"the ':' operator produced a range of more than %d entries", rangeSizeCap)
		}
		out := value.NewInteger()
		if first <= second {
			for v := first; v <= second; v++ {
				out.Values = append(out.Values, v)
			}
		} else {
			for v := first; v >= second; v-- {
				out.Values = append(out.Values, v)
			}
		}
		return out, nil
	}

	first, _ := l.FloatAt(0)
	second, _ := r.FloatAt(0)
	out := value.NewFloat()
	if first <= second {
		for v := first; v <= second; v++ {
			if len(out.Values) >= rangeSizeCap {
				return nil, in.fatal(node, core.ErrRuntime,
					"the ':' operator produced a range of more than %d entries", rangeSizeCap)
			}
			if v+1 == v && v < second {
				return nil, in.fatal(node, core.ErrRuntime,
					"the ':' operator underflowed: step is below the operand's precision")
			}
			out.Values = append(out.Values, v)
		}
	} else {
		for v := first; v >= second; v-- {
			if len(out.Values) >= rangeSizeCap {
				return nil, in.fatal(node, core.ErrRuntime,
					"the ':' operator produced a range of more than %d entries", rangeSizeCap)
			}
			if v-1 == v && v > second {
				return nil, in.fatal(node, core.ErrRuntime,
					"the ':' operator underflowed: step is below the operand's precision")
			}
			out.Values = append(out.Values, v)
		}
	}
	return out, nil
}

// evaluateComparison handles == != < <= > >=, producing logical vectors.
// Comparing with NULL yields a zero-length logical; ordering on object
// type is an error, though objects may be tested for identity equality.
func (in *Interpreter) evaluateComparison(node *ast.Node) (value.Value, error) {
	l, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}

	if l.Type() == value.TypeNull || r.Type() == value.TypeNull {
		return value.NewLogical(), nil
	}

	op := node.Token.Kind
	if l.Type() == value.TypeObject || r.Type() == value.TypeObject {
		if op != token.Eq && op != token.NotEq {
			return nil, in.fatal(node, core.ErrType, "object values cannot be ordered")
		}
		lo, lok := l.(*value.Object)
		ro, rok := r.(*value.Object)
		if !lok || !rok {
			return nil, in.fatal(node, core.ErrType,
				"object values can be compared only with other object values")
		}
		n, ls, rs, err := in.broadcast(node, l, r)
		if err != nil {
			return nil, err
		}
		out := value.NewLogical()
		for i := 0; i < n; i++ {
			same := lo.Elements[i*ls] == ro.Elements[i*rs]
			if op == token.NotEq {
				same = !same
			}
			out.Values = append(out.Values, same)
		}
		return out, nil
	}

	promoted, err := value.Promote(l.Type(), r.Type())
	if err != nil {
		return nil, reposition(err, node)
	}
	n, ls, rs, err := in.broadcast(node, l, r)
	if err != nil {
		return nil, err
	}
	out := value.NewLogical()
	for i := 0; i < n; i++ {
		c, err := value.CompareAt(l, i*ls, r, i*rs, promoted)
		if err != nil {
			return nil, reposition(err, node)
		}
		var b bool
		switch op {
		case token.Eq:
			b = c == 0
		case token.NotEq:
			b = c != 0
		case token.Lt:
			b = c < 0
		case token.LtEq:
			b = c <= 0
		case token.Gt:
			b = c > 0
		case token.GtEq:
			b = c >= 0
		}
		out.Values = append(out.Values, b)
	}
	return out, nil
}

func (in *Interpreter) evaluateNot(node *ast.Node) (value.Value, error) {
	operand, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	out := value.NewLogical()
	for i := 0; i < operand.Count(); i++ {
		b, err := operand.LogicalAt(i)
		if err != nil {
			return nil, reposition(err, node)
		}
		out.Values = append(out.Values, !b)
	}
	return out, nil
}

// evaluateAndOr handles elementwise & and |, with length-1 broadcast.
func (in *Interpreter) evaluateAndOr(node *ast.Node) (value.Value, error) {
	l, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	r, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}
	n, ls, rs, err := in.broadcast(node, l, r)
	if err != nil {
		return nil, err
	}
	out := value.NewLogical()
	for i := 0; i < n; i++ {
		a, err := l.LogicalAt(i * ls)
		if err != nil {
			return nil, reposition(err, node)
		}
		b, err := r.LogicalAt(i * rs)
		if err != nil {
			return nil, reposition(err, node)
		}
		if node.Token.Kind == token.And {
			out.Values = append(out.Values, a && b)
		} else {
			out.Values = append(out.Values, a || b)
		}
	}
	return out, nil
}
