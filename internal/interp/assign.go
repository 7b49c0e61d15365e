package interp

import (
	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
	"github.com/oxhq/driftsim/internal/value"
)

// evaluateSubscript implements `x[i]`. A NULL x yields NULL; a NULL index
// yields an empty value of x's type; a logical index must match x in
// length and acts as a mask; a numeric index selects by (truncated)
// position with range checking.
func (in *Interpreter) evaluateSubscript(node *ast.Node) (value.Value, error) {
	x, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	if x.Type() == value.TypeNull {
		return value.StaticNull, nil
	}
	idx, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}

	out := x.NewMatchingType()
	switch idx.Type() {
	case value.TypeNull:
		return out, nil
	case value.TypeLogical:
		if idx.Count() != x.Count() {
			return nil, in.fatal(node, core.ErrRuntime,
				"logical subscript of length %d applied to a value of length %d", idx.Count(), x.Count())
		}
		for i := 0; i < x.Count(); i++ {
			keep, _ := idx.LogicalAt(i)
			if keep {
				if err := out.PushFromIndex(x, i); err != nil {
					return nil, reposition(err, node)
				}
			}
		}
		return out, nil
	case value.TypeInteger, value.TypeFloat:
		for i := 0; i < idx.Count(); i++ {
			k, _ := idx.IntAt(i)
			if k < 0 || k >= int64(x.Count()) {
				return nil, in.fatal(node, core.ErrRuntime,
					"subscript %d out of range for value of length %d", k, x.Count())
			}
			if err := out.PushFromIndex(x, int(k)); err != nil {
				return nil, reposition(err, node)
			}
		}
		return out, nil
	}
	return nil, in.fatal(node, core.ErrType,
		"subscript of type %s is not supported", idx.Type())
}

// evaluateMemberAccess implements `x.name` for reads. The member value of
// each element is fetched and the results are concatenated.
func (in *Interpreter) evaluateMemberAccess(node *ast.Node) (value.Value, error) {
	host, err := in.evaluate(node.Children[0])
	if err != nil {
		return nil, err
	}
	obj, ok := host.(*value.Object)
	if !ok {
		return nil, in.fatal(node, core.ErrType,
			"the '.' operator requires an object operand, not %s", host.Type())
	}
	name := node.Children[1].Token.Lexeme
	if obj.Count() == 0 {
		return nil, in.fatal(node, core.ErrRuntime,
			"member %s accessed on an empty object", name)
	}
	first, err := obj.Elements[0].GetMember(name)
	if err != nil {
		return nil, reposition(err, node.Children[1])
	}
	if obj.Count() == 1 {
		return first, nil
	}
	out := first.NewMatchingType()
	for _, el := range obj.Elements {
		mv, err := el.GetMember(name)
		if err != nil {
			return nil, reposition(err, node.Children[1])
		}
		for i := 0; i < mv.Count(); i++ {
			if err := out.PushFromIndex(mv, i); err != nil {
				return nil, reposition(err, node)
			}
		}
	}
	return out, nil
}

// evaluateAssign dispatches on the lvalue shape. Assignment as an
// expression evaluates to invisible NULL, which deliberately makes
// `if (x = 3)` unusable.
func (in *Interpreter) evaluateAssign(node *ast.Node) (value.Value, error) {
	rv, err := in.evaluate(node.Children[1])
	if err != nil {
		return nil, err
	}
	if err := in.assignToLValue(node.Children[0], rv); err != nil {
		return nil, err
	}
	return value.StaticNullInvisible, nil
}

func (in *Interpreter) assignToLValue(lhs *ast.Node, rv value.Value) error {
	switch lhs.Token.Kind {
	case token.Identifier:
		if err := in.syms.SetVariable(lhs.Token.Lexeme, rv); err != nil {
			return reposition(err, lhs)
		}
		return nil

	case token.Dot:
		host, err := in.evaluate(lhs.Children[0])
		if err != nil {
			return err
		}
		obj, ok := host.(*value.Object)
		if !ok {
			return in.fatal(lhs, core.ErrType,
				"the '.' operator requires an object operand, not %s", host.Type())
		}
		return in.setMemberOnElements(lhs, obj.Elements, lhs.Children[1].Token.Lexeme, rv)

	case token.LBracket:
		return in.assignToSubscript(lhs, rv)
	}
	return in.fatal(lhs, core.ErrSyntax, "invalid assignment target")
}

// setMemberOnElements writes a member across a set of elements: a length-1
// rvalue broadcasts, a length-N rvalue distributes one element each.
func (in *Interpreter) setMemberOnElements(node *ast.Node, elements []value.Element, name string, rv value.Value) error {
	switch {
	case rv.Count() == 1:
		for _, el := range elements {
			if err := el.SetMember(name, rv); err != nil {
				return reposition(err, node)
			}
		}
	case rv.Count() == len(elements):
		for i, el := range elements {
			one, err := rv.GetAtIndex(i)
			if err != nil {
				return reposition(err, node)
			}
			if err := el.SetMember(name, one); err != nil {
				return reposition(err, node)
			}
		}
	default:
		return in.fatal(node, core.ErrRuntime,
			"member assignment requires an rvalue of length 1 or length %d, not %d",
			len(elements), rv.Count())
	}
	return nil
}

// assignToSubscript resolves a chain of subscripts down to its base —
// either a bare identifier or a member access — flattening all index
// expressions into one final index set by composition, then assigns.
// The `host.member[indices]` shape is rewritten to `host[indices].member`,
// relying on the element-sharing semantics of object values.
func (in *Interpreter) assignToSubscript(lhs *ast.Node, rv value.Value) error {
	// Collect subscript nodes, outermost first.
	var chain []*ast.Node
	base := lhs
	for base.Token.Kind == token.LBracket {
		chain = append(chain, base)
		base = base.Children[0]
	}

	var container value.Value
	memberName := ""
	switch base.Token.Kind {
	case token.Identifier:
		name := base.Token.Lexeme
		bound, err := in.syms.Get(name)
		if err != nil {
			return reposition(err, base)
		}
		// An externally-owned binding (a shared singleton) is copied and
		// rebound before any in-place mutation can touch it.
		if bound.ExternallyOwned() {
			bound = bound.Copy()
			if err := in.syms.SetVariable(name, bound); err != nil {
				return reposition(err, base)
			}
		}
		container = bound
	case token.Dot:
		host, err := in.evaluate(base.Children[0])
		if err != nil {
			return err
		}
		if _, ok := host.(*value.Object); !ok {
			return in.fatal(base, core.ErrType,
				"the '.' operator requires an object operand, not %s", host.Type())
		}
		container = host
		memberName = base.Children[1].Token.Lexeme
	default:
		return in.fatal(base, core.ErrSyntax, "invalid assignment target")
	}

	// Compose the index sets innermost-first against the container.
	indices := make([]int, container.Count())
	for i := range indices {
		indices[i] = i
	}
	for i := len(chain) - 1; i >= 0; i-- {
		idxValue, err := in.evaluate(chain[i].Children[1])
		if err != nil {
			return err
		}
		indices, err = in.composeIndices(chain[i], indices, idxValue)
		if err != nil {
			return err
		}
	}

	if memberName != "" {
		obj := container.(*value.Object)
		selected := make([]value.Element, len(indices))
		for j, k := range indices {
			selected[j] = obj.Elements[k]
		}
		return in.setMemberOnElements(lhs, selected, memberName, rv)
	}

	switch {
	case rv.Count() == 1:
		for _, k := range indices {
			if err := container.SetAtIndex(k, rv); err != nil {
				return reposition(err, lhs)
			}
		}
	case rv.Count() == len(indices):
		for j, k := range indices {
			one, err := rv.GetAtIndex(j)
			if err != nil {
				return reposition(err, lhs)
			}
			if err := container.SetAtIndex(k, one); err != nil {
				return reposition(err, lhs)
			}
		}
	default:
		return in.fatal(lhs, core.ErrRuntime,
			"subscript assignment requires an rvalue of length 1 or length %d, not %d",
			len(indices), rv.Count())
	}
	return nil
}

// composeIndices narrows a current index set by one subscript expression.
func (in *Interpreter) composeIndices(node *ast.Node, cur []int, idx value.Value) ([]int, error) {
	switch idx.Type() {
	case value.TypeNull:
		return nil, nil
	case value.TypeLogical:
		if idx.Count() != len(cur) {
			return nil, in.fatal(node, core.ErrRuntime,
				"logical subscript of length %d applied to a target of length %d", idx.Count(), len(cur))
		}
		var out []int
		for i := 0; i < idx.Count(); i++ {
			keep, _ := idx.LogicalAt(i)
			if keep {
				out = append(out, cur[i])
			}
		}
		return out, nil
	case value.TypeInteger, value.TypeFloat:
		out := make([]int, 0, idx.Count())
		for i := 0; i < idx.Count(); i++ {
			k, _ := idx.IntAt(i)
			if k < 0 || k >= int64(len(cur)) {
				return nil, in.fatal(node, core.ErrRuntime,
					"subscript %d out of range for a target of length %d", k, len(cur))
			}
			out = append(out, cur[k])
		}
		return out, nil
	}
	return nil, in.fatal(node, core.ErrType, "subscript of type %s is not supported", idx.Type())
}
