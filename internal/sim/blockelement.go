package sim

import (
	"io"

	"github.com/oxhq/driftsim/internal/block"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// ScriptBlockClass is the script-visible class of script blocks; named
// blocks ("sN") are bound under their ids so scripts can inspect and
// deactivate them.
const ScriptBlockClass = "ScriptBlock"

func init() {
	signature.Default.MustRegisterMethods(ScriptBlockClass)
}

// scriptBlockElement proxies one loaded block; externally managed.
type scriptBlockElement struct {
	value.ExternalElement
	blk *block.ScriptBlock
}

func newScriptBlockElement(blk *block.ScriptBlock) *scriptBlockElement {
	return &scriptBlockElement{blk: blk}
}

func (e *scriptBlockElement) ClassName() string { return ScriptBlockClass }

func (e *scriptBlockElement) ReadOnlyMembers() []string {
	return []string{"id", "type", "start", "end"}
}

func (e *scriptBlockElement) ReadWriteMembers() []string { return []string{"active"} }

func (e *scriptBlockElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.NewString(e.blk.ID), nil
	case "type":
		return value.NewString(string(e.blk.Kind)), nil
	case "start":
		return value.NewInteger(e.blk.StartTick), nil
	case "end":
		return value.NewInteger(e.blk.EndTick), nil
	case "active":
		return value.LogicalSingleton(e.blk.Active), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, ScriptBlockClass)
}

func (e *scriptBlockElement) SetMember(name string, v value.Value) error {
	if name != "active" {
		return core.NoposErrf(core.ErrResolve, "SetMember",
			"member %s on class %s is not writable", name, ScriptBlockClass)
	}
	b, err := v.LogicalAt(0)
	if err != nil {
		return err
	}
	e.blk.Active = b
	return nil
}

func (e *scriptBlockElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, ScriptBlockClass)
}
