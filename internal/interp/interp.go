// Package interp evaluates syntax trees by depth-first tree walking. One
// Interpreter serves one evaluation at a time; there is no suspension
// point and no reentry.
package interp

import (
	"fmt"
	"io"
	"strings"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/symbols"
	"github.com/oxhq/driftsim/internal/token"
	"github.com/oxhq/driftsim/internal/value"
)

// Config holds interpreter options.
type Config struct {
	// TraceEval logs every node entry to Log, indented by depth.
	TraceEval bool
	Log       io.Writer
}

// Interpreter walks an AST, consulting the symbol table for identifiers
// and the registry for calls. The three flow flags are shared across
// frames: loops clear nextHit locally, breakHit unwinds one enclosing
// loop, returnHit unwinds to the script-block entry.
type Interpreter struct {
	syms     *symbols.Table
	registry *signature.Registry
	out      io.Writer
	cfg      Config
	depth    int

	nextHit     bool
	breakHit    bool
	returnHit   bool
	returnValue value.Value
}

// New creates an interpreter over a symbol table and callable registry.
// Console output (print, auto-printed REPL results) goes to out.
func New(syms *symbols.Table, registry *signature.Registry, out io.Writer, cfg Config) *Interpreter {
	if out == nil {
		out = io.Discard
	}
	return &Interpreter{syms: syms, registry: registry, out: out, cfg: cfg}
}

// Symbols exposes the symbol table, for hosts that bind before evaluating.
func (in *Interpreter) Symbols() *symbols.Table { return in.syms }

// EvaluateInterpreterBlock runs the statements of an interpreter-block
// node in order and returns the value of the last statement. When echo is
// true each non-invisible statement value is printed, REPL style.
func (in *Interpreter) EvaluateInterpreterBlock(root *ast.Node, echo bool) (value.Value, error) {
	var result value.Value = value.StaticNullInvisible
	for _, stmt := range root.Children {
		v, err := in.evaluate(stmt)
		if err != nil {
			return nil, err
		}
		result = v
		if in.nextHit || in.breakHit {
			in.nextHit, in.breakHit = false, false
			return nil, in.fatal(stmt, core.ErrRuntime, "next/break used outside of a loop")
		}
		if in.returnHit {
			in.returnHit = false
			if in.returnValue != nil {
				result = in.returnValue
				in.returnValue = nil
			}
			break
		}
		if echo && !result.Invisible() {
			result.Print(in.out)
			io.WriteString(in.out, "\n")
		}
	}
	in.nextHit, in.breakHit = false, false
	return result, nil
}

// EvaluateScriptBlockBody runs a script block's compound statement and
// returns the block's value: an explicit return value if one was hit,
// otherwise the value of the last statement executed.
func (in *Interpreter) EvaluateScriptBlockBody(compound *ast.Node) (value.Value, error) {
	var result value.Value = value.StaticNullInvisible
	for _, stmt := range compound.Children {
		v, err := in.evaluate(stmt)
		if err != nil {
			return nil, err
		}
		result = v
		if in.nextHit || in.breakHit {
			in.nextHit, in.breakHit = false, false
			return nil, in.fatal(stmt, core.ErrRuntime, "next/break used outside of a loop")
		}
		if in.returnHit {
			in.returnHit = false
			if in.returnValue != nil {
				result = in.returnValue
				in.returnValue = nil
			}
			break
		}
	}
	return result, nil
}

// reposition fills in a source range on errors raised below the token
// layer, so every diagnostic the user sees carries a character range.
func reposition(err error, node *ast.Node) error {
	if se, ok := err.(*core.ScriptError); ok && !se.Positioned() {
		se.Start = node.Token.Start
		se.End = node.Token.End
	}
	return err
}

func (in *Interpreter) fatal(node *ast.Node, code, format string, args ...any) error {
	return core.Errf(code, "Evaluate", node.Token.Start, node.Token.End, format, args...)
}

func (in *Interpreter) evaluate(node *ast.Node) (value.Value, error) {
	if in.cfg.TraceEval && in.cfg.Log != nil {
		fmt.Fprintf(in.cfg.Log, "%sevaluate %s\n", strings.Repeat("  ", in.depth), node.Token.Kind)
	}
	in.depth++
	defer func() { in.depth-- }()

	switch node.Token.Kind {
	case token.Number:
		return in.evaluateNumber(node)
	case token.String:
		return value.NewString(node.Token.Lexeme), nil
	case token.Identifier:
		v, err := in.syms.Get(node.Token.Lexeme)
		if err != nil {
			return nil, reposition(err, node)
		}
		return v, nil

	case token.Plus, token.Minus:
		if len(node.Children) == 1 {
			return in.evaluateUnaryPlusMinus(node)
		}
		return in.evaluateArithmetic(node)
	case token.Mul, token.Div, token.Mod, token.Exp:
		return in.evaluateArithmetic(node)
	case token.Colon:
		return in.evaluateRange(node)
	case token.Eq, token.NotEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return in.evaluateComparison(node)
	case token.Not:
		return in.evaluateNot(node)
	case token.And, token.Or:
		return in.evaluateAndOr(node)

	case token.LBracket:
		return in.evaluateSubscript(node)
	case token.Dot:
		return in.evaluateMemberAccess(node)
	case token.LParen:
		return in.evaluateCall(node)
	case token.Assign:
		return in.evaluateAssign(node)

	case token.LBrace:
		return in.evaluateCompound(node)
	case token.Semicolon:
		return value.StaticNullInvisible, nil
	case token.If:
		return in.evaluateIf(node)
	case token.Do:
		return in.evaluateDoWhile(node)
	case token.While:
		return in.evaluateWhile(node)
	case token.For:
		return in.evaluateFor(node)
	case token.Next:
		in.nextHit = true
		return value.StaticNullInvisible, nil
	case token.Break:
		in.breakHit = true
		return value.StaticNullInvisible, nil
	case token.Return:
		return in.evaluateReturn(node)
	}
	return nil, in.fatal(node, core.ErrRuntime, "unexpected node token kind %s", node.Token.Kind)
}

// evaluateNumber decides integer versus float when the literal is read: a
// lexeme with a '.' is float; one with an exponent but no '.' is integer
// via float conversion (scientific notation as an integer is deliberate);
// everything else is integer. The parsed value is cached on the node and
// each evaluation hands out a fresh copy, so downstream mutation can never
// reach back into the tree.
func (in *Interpreter) evaluateNumber(node *ast.Node) (value.Value, error) {
	if v, ok := node.Cached.(value.Value); ok {
		return v.Copy(), nil
	}
	lex := node.Token.Lexeme
	var v value.Value
	switch {
	case strings.ContainsRune(lex, '.'):
		f, err := parseFloatLexeme(lex)
		if err != nil {
			return nil, reposition(err, node)
		}
		v = value.NewFloat(f)
	case strings.ContainsAny(lex, "eE"):
		f, err := parseFloatLexeme(lex)
		if err != nil {
			return nil, reposition(err, node)
		}
		v = value.NewInteger(int64(f))
	default:
		n, err := parseIntLexeme(lex)
		if err != nil {
			return nil, reposition(err, node)
		}
		v = value.NewInteger(n)
	}
	node.Cached = v
	return v.Copy(), nil
}

// ---------------------------------------------------------------------------
// flow control
// ---------------------------------------------------------------------------

func (in *Interpreter) evaluateCompound(node *ast.Node) (value.Value, error) {
	var result value.Value = value.StaticNullInvisible
	for _, stmt := range node.Children {
		v, err := in.evaluate(stmt)
		if err != nil {
			return nil, err
		}
		result = v
		if in.nextHit || in.breakHit || in.returnHit {
			break
		}
	}
	return result, nil
}

// conditionValue requires the condition to be a length-1 value coercible
// to logical.
func (in *Interpreter) conditionValue(node *ast.Node) (bool, error) {
	v, err := in.evaluate(node)
	if err != nil {
		return false, err
	}
	if v.Count() != 1 {
		return false, in.fatal(node, core.ErrRuntime,
			"condition has length %d; a condition must have length 1", v.Count())
	}
	b, err := v.LogicalAt(0)
	if err != nil {
		return false, reposition(err, node)
	}
	return b, nil
}

func (in *Interpreter) evaluateIf(node *ast.Node) (value.Value, error) {
	cond, err := in.conditionValue(node.Children[0])
	if err != nil {
		return nil, err
	}
	if cond {
		return in.evaluate(node.Children[1])
	}
	if len(node.Children) > 2 {
		return in.evaluate(node.Children[2])
	}
	return value.StaticNullInvisible, nil
}

func (in *Interpreter) evaluateDoWhile(node *ast.Node) (value.Value, error) {
	var result value.Value = value.StaticNullInvisible
	for {
		v, err := in.evaluate(node.Children[0])
		if err != nil {
			return nil, err
		}
		result = v
		if in.loopUnwound() {
			break
		}
		cond, err := in.conditionValue(node.Children[1])
		if err != nil {
			return nil, err
		}
		if !cond {
			break
		}
	}
	return result, nil
}

func (in *Interpreter) evaluateWhile(node *ast.Node) (value.Value, error) {
	var result value.Value = value.StaticNullInvisible
	for {
		cond, err := in.conditionValue(node.Children[0])
		if err != nil {
			return nil, err
		}
		if !cond {
			break
		}
		v, err := in.evaluate(node.Children[1])
		if err != nil {
			return nil, err
		}
		result = v
		if in.loopUnwound() {
			break
		}
	}
	return result, nil
}

func (in *Interpreter) evaluateFor(node *ast.Node) (value.Value, error) {
	ident := node.Children[0].Token.Lexeme
	rangeValue, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}
	var result value.Value = value.StaticNullInvisible
	for i := 0; i < rangeValue.Count(); i++ {
		element, err := rangeValue.GetAtIndex(i)
		if err != nil {
			return nil, reposition(err, node.Children[1])
		}
		if err := in.syms.SetVariable(ident, element); err != nil {
			return nil, reposition(err, node.Children[0])
		}
		v, err := in.evaluate(node.Children[2])
		if err != nil {
			return nil, err
		}
		result = v
		if in.loopUnwound() {
			break
		}
	}
	return result, nil
}

// loopUnwound consumes next/break at loop scope and reports whether the
// loop must stop; a pending return always stops the loop and stays set.
func (in *Interpreter) loopUnwound() bool {
	if in.returnHit {
		return true
	}
	if in.breakHit {
		in.breakHit = false
		return true
	}
	in.nextHit = false
	return false
}

func (in *Interpreter) evaluateReturn(node *ast.Node) (value.Value, error) {
	if len(node.Children) == 0 {
		in.returnHit = true
		in.returnValue = value.StaticNullInvisible
		return in.returnValue, nil
	}
	v, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	in.returnHit = true
	in.returnValue = v
	return v, nil
}
