package interp

import (
	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/token"
	"github.com/oxhq/driftsim/internal/value"
)

// evaluateCall dispatches a call node: an identifier callee is a built-in
// function, a member-access callee is a method on an object. Arguments are
// evaluated left to right before the callee body runs.
func (in *Interpreter) evaluateCall(node *ast.Node) (value.Value, error) {
	callee := node.Children[0]

	args := make([]value.Value, 0, len(node.Children)-1)
	for _, argNode := range node.Children[1:] {
		v, err := in.evaluate(argNode)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch callee.Token.Kind {
	case token.Identifier:
		fn, err := in.registry.LookupFunction(callee.Token.Lexeme)
		if err != nil {
			return nil, reposition(err, callee)
		}
		if err := fn.Sig.CheckArguments(args); err != nil {
			return nil, reposition(err, node)
		}
		result, err := fn.Impl(args, in.out)
		if err != nil {
			return nil, reposition(err, node)
		}
		if err := fn.Sig.CheckReturn(result); err != nil {
			return nil, reposition(err, node)
		}
		return result, nil

	case token.Dot:
		return in.evaluateMethodCall(node, callee, args)
	}
	return nil, in.fatal(callee, core.ErrType, "expression is not callable")
}

// evaluateMethodCall resolves the receiver, validates the arguments
// against the class's method table, and executes. A class method runs
// once; an instance method runs once per element, with the per-element
// results concatenated.
func (in *Interpreter) evaluateMethodCall(node, callee *ast.Node, args []value.Value) (value.Value, error) {
	host, err := in.evaluate(callee.Children[0])
	if err != nil {
		return nil, err
	}
	obj, ok := host.(*value.Object)
	if !ok {
		return nil, in.fatal(callee, core.ErrType,
			"method call requires an object receiver, not %s", host.Type())
	}
	name := callee.Children[1].Token.Lexeme
	if obj.Count() == 0 {
		return nil, in.fatal(callee, core.ErrRuntime,
			"method %s() called on an empty object", name)
	}
	sig, err := in.registry.Method(obj.Class(), name)
	if err != nil {
		return nil, reposition(err, callee.Children[1])
	}
	if err := sig.CheckArguments(args); err != nil {
		return nil, reposition(err, node)
	}

	if sig.IsClassMethod || obj.Count() == 1 {
		result, err := obj.Elements[0].ExecuteMethod(name, args, in.out)
		if err != nil {
			return nil, reposition(err, node)
		}
		if err := sig.CheckReturn(result); err != nil {
			return nil, reposition(err, node)
		}
		return result, nil
	}

	var combined value.Value
	for _, el := range obj.Elements {
		result, err := el.ExecuteMethod(name, args, in.out)
		if err != nil {
			return nil, reposition(err, node)
		}
		if err := sig.CheckReturn(result); err != nil {
			return nil, reposition(err, node)
		}
		if result.Type() == value.TypeNull {
			continue
		}
		if combined == nil {
			combined = result.NewMatchingType()
		}
		for i := 0; i < result.Count(); i++ {
			if err := combined.PushFromIndex(result, i); err != nil {
				return nil, reposition(err, node)
			}
		}
	}
	if combined == nil {
		return value.StaticNullInvisible, nil
	}
	return combined, nil
}
