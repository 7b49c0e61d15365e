package gene

import (
	"github.com/oxhq/driftsim/internal/core"
)

// DFEKind names a distribution of fitness effects. The draws themselves
// are the host's concern; the type only carries the parameters.
type DFEKind byte

const (
	DFEFixed       DFEKind = 'f'
	DFEExponential DFEKind = 'e'
	DFEGamma       DFEKind = 'g'
)

// MutationType is a category of mutations sharing a dominance policy and
// a distribution of fitness effects.
type MutationType struct {
	ID        string // conventionally "mN"
	Dominance Dominance
	DFE       DFEKind
	// DFEParams holds the distribution parameters: the fixed effect for
	// 'f', the mean for 'e', the mean and shape for 'g'.
	DFEParams []float64
}

// NewMutationType validates the parameter count for the distribution kind.
func NewMutationType(id string, dominance Dominance, dfe DFEKind, params ...float64) (*MutationType, error) {
	want := 1
	if dfe == DFEGamma {
		want = 2
	}
	if dfe != DFEFixed && dfe != DFEExponential && dfe != DFEGamma {
		return nil, core.NoposErrf(core.ErrInvariant, "MutationType",
			"unknown DFE kind %q for mutation type %s", string(dfe), id)
	}
	if len(params) != want {
		return nil, core.NoposErrf(core.ErrInvariant, "MutationType",
			"DFE kind %q requires %d parameters, got %d", string(dfe), want, len(params))
	}
	return &MutationType{ID: id, Dominance: dominance, DFE: dfe, DFEParams: params}, nil
}

// Substitution is the permanent record of a mutation that reached
// fixation and was removed from the registry.
type Substitution struct {
	MutationID   MutationID
	TypeID       string
	Chromosome   int32
	Position     int64
	OriginTick   int64
	FixationTick int64
	Effect       float64
}

// NewSubstitution snapshots a pool mutation at fixation time.
func NewSubstitution(p *Pool, idx Index, fixationTick int64) Substitution {
	mut := p.Get(idx)
	return Substitution{
		MutationID:   mut.ID,
		TypeID:       mut.TypeID,
		Chromosome:   mut.Chromosome,
		Position:     mut.Position,
		OriginTick:   mut.OriginTick,
		FixationTick: fixationTick,
		Effect:       p.Trait(idx, 0).Effect,
	}
}
