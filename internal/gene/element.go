package gene

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// Script-visible class names.
const (
	MutationClass     = "Mutation"
	SubstitutionClass = "Substitution"
)

func init() {
	signature.Default.MustRegisterMethods(MutationClass,
		signature.New("setSelectionCoeff", signature.NullOK).
			Arg("coeff", signature.Numeric|signature.Singleton).
			InstanceMethod(),
		signature.New("setDominanceCoeff", signature.NullOK).
			Arg("coeff", signature.Numeric|signature.Singleton).
			InstanceMethod(),
	)
	signature.Default.MustRegisterMethods(SubstitutionClass)
}

// MutationElement proxies one pool mutation into the script layer. The
// element is externally managed: the pool governs the mutation's lifetime
// and retain/release are no-ops.
type MutationElement struct {
	value.ExternalElement
	pool *Pool
	idx  Index
}

// NewMutationElement wraps the mutation at idx.
func NewMutationElement(pool *Pool, idx Index) *MutationElement {
	return &MutationElement{pool: pool, idx: idx}
}

// Index returns the wrapped pool index.
func (e *MutationElement) Index() Index { return e.idx }

func (e *MutationElement) ClassName() string { return MutationClass }

func (e *MutationElement) ReadOnlyMembers() []string {
	return []string{"id", "mutationType", "position", "originTick", "subpopID", "selectionCoeff", "dominanceCoeff", "isNeutral"}
}

func (e *MutationElement) ReadWriteMembers() []string { return []string{"tag"} }

func (e *MutationElement) GetMember(name string) (value.Value, error) {
	mut := e.pool.Get(e.idx)
	switch name {
	case "id":
		return value.NewInteger(int64(mut.ID)), nil
	case "mutationType":
		return value.NewString(mut.TypeID), nil
	case "position":
		return value.NewInteger(mut.Position), nil
	case "originTick":
		return value.NewInteger(mut.OriginTick), nil
	case "subpopID":
		return value.NewString(mut.SubpopID), nil
	case "selectionCoeff":
		return value.NewFloat(e.pool.Trait(e.idx, 0).Effect), nil
	case "dominanceCoeff":
		return value.NewFloat(e.pool.Trait(e.idx, 0).Dom.Realized()), nil
	case "isNeutral":
		return value.LogicalSingleton(mut.IsNeutral()), nil
	case "tag":
		return value.NewInteger(mut.Tag), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, MutationClass)
}

func (e *MutationElement) SetMember(name string, v value.Value) error {
	if name != "tag" {
		return core.NoposErrf(core.ErrResolve, "SetMember",
			"member %s on class %s is not writable", name, MutationClass)
	}
	n, err := v.IntAt(0)
	if err != nil {
		return err
	}
	e.pool.Get(e.idx).Tag = n
	return nil
}

func (e *MutationElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	switch name {
	case "setSelectionCoeff":
		coeff, err := args[0].FloatAt(0)
		if err != nil {
			return nil, err
		}
		for t := 0; t < e.pool.TraitCount(); t++ {
			e.pool.SetEffect(e.idx, t, coeff)
		}
		return value.StaticNullInvisible, nil
	case "setDominanceCoeff":
		coeff, err := args[0].FloatAt(0)
		if err != nil {
			return nil, err
		}
		for t := 0; t < e.pool.TraitCount(); t++ {
			e.pool.SetDominance(e.idx, t, Coefficient(coeff))
		}
		return value.StaticNullInvisible, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, MutationClass)
}

// SubstitutionElement proxies a fixed-substitution record; externally
// managed and entirely read-only.
type SubstitutionElement struct {
	value.ExternalElement
	sub *Substitution
}

// NewSubstitutionElement wraps a substitution record.
func NewSubstitutionElement(sub *Substitution) *SubstitutionElement {
	return &SubstitutionElement{sub: sub}
}

func (e *SubstitutionElement) ClassName() string { return SubstitutionClass }

func (e *SubstitutionElement) ReadOnlyMembers() []string {
	return []string{"id", "mutationType", "position", "originTick", "fixationTick", "selectionCoeff"}
}

func (e *SubstitutionElement) ReadWriteMembers() []string { return nil }

func (e *SubstitutionElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.NewInteger(int64(e.sub.MutationID)), nil
	case "mutationType":
		return value.NewString(e.sub.TypeID), nil
	case "position":
		return value.NewInteger(e.sub.Position), nil
	case "originTick":
		return value.NewInteger(e.sub.OriginTick), nil
	case "fixationTick":
		return value.NewInteger(e.sub.FixationTick), nil
	case "selectionCoeff":
		return value.NewFloat(e.sub.Effect), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, SubstitutionClass)
}

func (e *SubstitutionElement) SetMember(name string, v value.Value) error {
	return core.NoposErrf(core.ErrResolve, "SetMember",
		"member %s on class %s is not writable", name, SubstitutionClass)
}

func (e *SubstitutionElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, SubstitutionClass)
}
