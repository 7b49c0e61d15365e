package gene

import (
	"github.com/oxhq/driftsim/internal/core"
)

// Pool is the process-wide arena of mutations. Mutations are addressed by
// Index; a freed slot is recycled through a freelist once all references
// to it have been dropped. A parallel buffer holds the per-trait records,
// traitCount per mutation, fixed at construction. The pool is not safe
// for concurrent mutation creation.
type Pool struct {
	muts       []Mutation
	mti        []TraitInfo
	free       []Index
	traitCount int
	nextID     MutationID
}

// NewPool creates a pool whose mutations each carry traitCount trait
// records.
func NewPool(traitCount int) *Pool {
	if traitCount < 1 {
		traitCount = 1
	}
	return &Pool{traitCount: traitCount}
}

// TraitCount returns the per-mutation trait record count.
func (p *Pool) TraitCount() int { return p.traitCount }

// Live returns the number of allocated, unrecycled slots.
func (p *Pool) Live() int { return len(p.muts) - len(p.free) }

// NewMutation allocates a mutation in state new, assigning the next
// monotonic ID. Trait records start neutral (zero effect, zero dominance).
func (p *Pool) NewMutation(typeID string, chromosome int32, position, originTick int64, subpopID string) Index {
	id := p.nextID
	p.nextID++

	mut := Mutation{
		ID:         id,
		TypeID:     typeID,
		Chromosome: chromosome,
		Position:   position,
		OriginTick: originTick,
		SubpopID:   subpopID,
		state:      StateNew,
		neutral:    true,
	}

	var idx Index
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
		p.muts[idx] = mut
		for t := 0; t < p.traitCount; t++ {
			p.mti[int(idx)*p.traitCount+t] = TraitInfo{}
		}
	} else {
		idx = Index(len(p.muts))
		p.muts = append(p.muts, mut)
		p.mti = append(p.mti, make([]TraitInfo, p.traitCount)...)
	}
	for t := 0; t < p.traitCount; t++ {
		p.mti[int(idx)*p.traitCount+t].recompute()
	}
	return idx
}

// Get resolves an index to its mutation. NoIndex and out-of-range indices
// resolve to nil.
func (p *Pool) Get(idx Index) *Mutation {
	if idx < 0 || int(idx) >= len(p.muts) {
		return nil
	}
	return &p.muts[idx]
}

// Trait resolves the trait record t of the mutation at idx.
func (p *Pool) Trait(idx Index, t int) *TraitInfo {
	return &p.mti[int(idx)*p.traitCount+t]
}

// SetEffect sets the effect size of trait t and recomputes that trait's
// caches and the mutation's neutrality.
func (p *Pool) SetEffect(idx Index, t int, effect float64) {
	ti := p.Trait(idx, t)
	ti.Effect = effect
	ti.recompute()
	p.recomputeNeutral(idx)
}

// SetDominance sets the dominance of trait t. Passing Independent() is the
// only way the independent-dominance flag is ever set; the flag is
// recomputed on every call, so it clears once no trait carries the marker.
func (p *Pool) SetDominance(idx Index, t int, d Dominance) {
	ti := p.Trait(idx, t)
	ti.Dom = d
	ti.recompute()
	p.recomputeIndependent(idx)
}

// SetHemizygousDominance sets the hemizygous dominance of trait t.
func (p *Pool) SetHemizygousDominance(idx Index, t int, h float64) {
	ti := p.Trait(idx, t)
	ti.HemiDom = h
	ti.recompute()
}

func (p *Pool) recomputeNeutral(idx Index) {
	mut := p.Get(idx)
	mut.neutral = true
	for t := 0; t < p.traitCount; t++ {
		if p.Trait(idx, t).Effect != 0 {
			mut.neutral = false
			return
		}
	}
}

func (p *Pool) recomputeIndependent(idx Index) {
	mut := p.Get(idx)
	mut.independentDominance = false
	for t := 0; t < p.traitCount; t++ {
		if p.Trait(idx, t).Dom.IsIndependent() {
			mut.independentDominance = true
			return
		}
	}
}

// RealizedDominanceForTrait returns the dominance coefficient a
// heterozygote experiences for trait t.
func (p *Pool) RealizedDominanceForTrait(idx Index, t int) float64 {
	return p.Trait(idx, t).Dom.Realized()
}

// Register moves a new mutation into the registry.
func (p *Pool) Register(idx Index) error {
	return p.Get(idx).transition(StateInRegistry)
}

// BeginSubstitution marks a registry mutation as removed pending
// substitution; part of the tick-boundary fixation sweep.
func (p *Pool) BeginSubstitution(idx Index) error {
	return p.Get(idx).transition(StateRemovedWithSubstitution)
}

// CommitSubstitution promotes a pending substitution to fixed.
func (p *Pool) CommitSubstitution(idx Index) error {
	return p.Get(idx).transition(StateFixedAndSubstituted)
}

// RollbackSubstitution restores a pending substitution to the registry;
// used when a fixation sweep aborts.
func (p *Pool) RollbackSubstitution(idx Index) error {
	return p.Get(idx).transition(StateInRegistry)
}

// MarkLost moves a registry mutation to lost.
func (p *Pool) MarkLost(idx Index) error {
	return p.Get(idx).transition(StateLostAndRemoved)
}

// Reclaim recycles the slot of a lost or fixed mutation. The caller is
// responsible for having dropped every reference first.
func (p *Pool) Reclaim(idx Index) error {
	mut := p.Get(idx)
	if mut == nil {
		return core.NoposErrf(core.ErrInvariant, "Reclaim", "index %d is not live", idx)
	}
	if mut.state != StateLostAndRemoved && mut.state != StateFixedAndSubstituted {
		return core.NoposErrf(core.ErrInvariant, "Reclaim",
			"mutation %d cannot be reclaimed in state %s", mut.ID, mut.state)
	}
	p.free = append(p.free, idx)
	return nil
}
