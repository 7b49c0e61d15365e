package sim

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/gene"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// SimulationClass is the script-visible class of the simulation object.
const SimulationClass = "Simulation"

func init() {
	signature.Default.MustRegisterMethods(SimulationClass,
		signature.New("addMutation", signature.Object|signature.Singleton).
			Arg("mutType", signature.String|signature.Singleton).
			Arg("position", signature.Integer|signature.Singleton).
			Arg("selectionCoeff", signature.Numeric|signature.Singleton|signature.Optional).
			InstanceMethod(),
		signature.New("mutations", signature.Object).ClassMethod(),
		signature.New("substitutions", signature.Object).ClassMethod(),
	)
}

// simulationElement proxies the running simulation into event blocks as
// the `sim` symbol; externally managed.
type simulationElement struct {
	value.ExternalElement
	sim *Simulation
}

func newSimulationElement(s *Simulation) *simulationElement {
	return &simulationElement{sim: s}
}

func (e *simulationElement) ClassName() string { return SimulationClass }

func (e *simulationElement) ReadOnlyMembers() []string {
	return []string{"tick", "seed", "mutationCount", "substitutionCount"}
}

func (e *simulationElement) ReadWriteMembers() []string { return nil }

func (e *simulationElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "tick":
		return value.NewInteger(e.sim.tick), nil
	case "seed":
		return value.NewInteger(e.sim.seed), nil
	case "mutationCount":
		return value.NewInteger(int64(len(e.sim.registry))), nil
	case "substitutionCount":
		return value.NewInteger(int64(len(e.sim.substitutions))), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, SimulationClass)
}

func (e *simulationElement) SetMember(name string, v value.Value) error {
	return core.NoposErrf(core.ErrResolve, "SetMember",
		"member %s on class %s is not writable", name, SimulationClass)
}

func (e *simulationElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	switch name {
	case "addMutation":
		typeID, err := args[0].StringAt(0)
		if err != nil {
			return nil, err
		}
		position, err := args[1].IntAt(0)
		if err != nil {
			return nil, err
		}
		effect := 0.0
		if len(args) > 2 && args[2] != nil {
			effect, err = args[2].FloatAt(0)
			if err != nil {
				return nil, err
			}
		}
		idx, err := e.sim.AddMutation(typeID, 0, position, "", effect)
		if err != nil {
			return nil, err
		}
		return value.NewObject(gene.NewMutationElement(e.sim.pool, idx))

	case "mutations":
		result := &value.Object{}
		for _, idx := range e.sim.registry {
			if err := result.PushElement(gene.NewMutationElement(e.sim.pool, idx)); err != nil {
				return nil, err
			}
		}
		return result, nil

	case "substitutions":
		result := &value.Object{}
		for i := range e.sim.substitutions {
			if err := result.PushElement(gene.NewSubstitutionElement(&e.sim.substitutions[i])); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, SimulationClass)
}
