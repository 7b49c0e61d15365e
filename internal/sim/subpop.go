package sim

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// SubpopulationClass is the script-visible class of subpopulations.
const SubpopulationClass = "Subpopulation"

func init() {
	signature.Default.MustRegisterMethods(SubpopulationClass,
		signature.New("setSize", signature.NullOK).
			Arg("size", signature.Integer|signature.Singleton).
			InstanceMethod(),
	)
}

// Subpopulation is the kernel's minimal demography unit: an identity and
// an individual count. The mating and migration machinery lives with the
// demography collaborator; the kernel only needs enough state for scripts
// to read and resize subpopulations.
type Subpopulation struct {
	ID   string // conventionally "pN"
	Size int64
}

// subpopElement proxies a subpopulation; externally managed.
type subpopElement struct {
	value.ExternalElement
	sub *Subpopulation
}

func newSubpopElement(sub *Subpopulation) *subpopElement {
	return &subpopElement{sub: sub}
}

func (e *subpopElement) ClassName() string { return SubpopulationClass }

func (e *subpopElement) ReadOnlyMembers() []string  { return []string{"id", "individualCount"} }
func (e *subpopElement) ReadWriteMembers() []string { return nil }

func (e *subpopElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.NewString(e.sub.ID), nil
	case "individualCount":
		return value.NewInteger(e.sub.Size), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, SubpopulationClass)
}

func (e *subpopElement) SetMember(name string, v value.Value) error {
	return core.NoposErrf(core.ErrResolve, "SetMember",
		"member %s on class %s is not writable", name, SubpopulationClass)
}

func (e *subpopElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	if name == "setSize" {
		size, err := args[0].IntAt(0)
		if err != nil {
			return nil, err
		}
		if size < 0 {
			return nil, core.NoposErrf(core.ErrRuntime, "setSize", "size must be >= 0, not %d", size)
		}
		e.sub.Size = size
		return value.StaticNullInvisible, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, SubpopulationClass)
}
