package gene

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// MutationTypeClass is the script-visible class of mutation types.
const MutationTypeClass = "MutationType"

func init() {
	signature.Default.MustRegisterMethods(MutationTypeClass,
		signature.New("setDominanceCoeff", signature.NullOK).
			Arg("coeff", signature.Numeric|signature.Singleton).
			InstanceMethod(),
	)
}

// MutationTypeElement proxies a mutation type; externally managed.
type MutationTypeElement struct {
	value.ExternalElement
	mtype *MutationType
}

// NewMutationTypeElement wraps a mutation type.
func NewMutationTypeElement(mtype *MutationType) *MutationTypeElement {
	return &MutationTypeElement{mtype: mtype}
}

func (e *MutationTypeElement) ClassName() string { return MutationTypeClass }

func (e *MutationTypeElement) ReadOnlyMembers() []string {
	return []string{"id", "distributionType", "distributionParams"}
}

func (e *MutationTypeElement) ReadWriteMembers() []string { return []string{"dominanceCoeff"} }

func (e *MutationTypeElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.NewString(e.mtype.ID), nil
	case "dominanceCoeff":
		return value.NewFloat(e.mtype.Dominance.Realized()), nil
	case "distributionType":
		return value.NewString(string(e.mtype.DFE)), nil
	case "distributionParams":
		return value.NewFloat(e.mtype.DFEParams...), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, MutationTypeClass)
}

func (e *MutationTypeElement) SetMember(name string, v value.Value) error {
	if name != "dominanceCoeff" {
		return core.NoposErrf(core.ErrResolve, "SetMember",
			"member %s on class %s is not writable", name, MutationTypeClass)
	}
	h, err := v.FloatAt(0)
	if err != nil {
		return err
	}
	e.mtype.Dominance = Coefficient(h)
	return nil
}

func (e *MutationTypeElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	if name == "setDominanceCoeff" {
		coeff, err := args[0].FloatAt(0)
		if err != nil {
			return nil, err
		}
		e.mtype.Dominance = Coefficient(coeff)
		return value.StaticNullInvisible, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, MutationTypeClass)
}
