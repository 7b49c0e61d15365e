// Package gene holds the genetic data model: mutations in a shared pool
// referenced by compact 32-bit indices, their per-trait effect records,
// mutation types, and the substitutions produced when mutations fix.
package gene

import (
	"fmt"

	"github.com/oxhq/driftsim/internal/core"
)

// Index is a handle into the mutation pool; it serves as a compact
// pointer inside genome runs.
type Index int32

// NoIndex is the null handle.
const NoIndex Index = -1

// MutationID is the stable identity used for serialization; it is
// assigned from a monotonic counter and survives pool compaction.
type MutationID int64

// State is one station in a mutation's lifecycle.
type State int8

const (
	StateNew State = iota
	StateInRegistry
	// StateRemovedWithSubstitution is transient: it is visible only during
	// the fixation sweep of a tick, and by tick-end the mutation is either
	// promoted to fixed or restored to the registry.
	StateRemovedWithSubstitution
	StateFixedAndSubstituted
	StateLostAndRemoved
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInRegistry:
		return "in-registry"
	case StateRemovedWithSubstitution:
		return "removed-with-substitution"
	case StateFixedAndSubstituted:
		return "fixed-and-substituted"
	case StateLostAndRemoved:
		return "lost-and-removed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// transitions lists the legal moves of the state machine.
var transitions = map[State][]State{
	StateNew:        {StateInRegistry},
	StateInRegistry: {StateRemovedWithSubstitution, StateLostAndRemoved},
	StateRemovedWithSubstitution: {
		StateFixedAndSubstituted,
		StateInRegistry, // rollback of an aborted fixation sweep
	},
}

// Mutation is an immutable positional record. Its trait-effect data lives
// in the pool's parallel MTI storage, addressed by the mutation's index.
type Mutation struct {
	ID         MutationID
	TypeID     string
	Chromosome int32
	Position   int64
	OriginTick int64
	SubpopID   string
	Nucleotide string
	Tag        int64

	state State

	// neutral caches "every trait effect size is zero"; the pool
	// recomputes it whenever an effect is set.
	neutral bool
	// independentDominance is set only by explicit assignment of the
	// independent-dominance sentinel, never as a byproduct of a
	// coefficient landing on any particular numeric value.
	independentDominance bool
}

// State returns the current lifecycle state.
func (m *Mutation) State() State { return m.state }

// IsNeutral reports whether every trait effect size is zero. Neutrality is
// judged across all traits, fitness-contributing or not.
func (m *Mutation) IsNeutral() bool { return m.neutral }

// HasIndependentDominance reports whether any trait carries the
// independent-dominance sentinel.
func (m *Mutation) HasIndependentDominance() bool { return m.independentDominance }

// transition moves the mutation to next, asserting the move is legal.
func (m *Mutation) transition(next State) error {
	for _, legal := range transitions[m.state] {
		if legal == next {
			m.state = next
			return nil
		}
	}
	return core.NoposErrf(core.ErrInvariant, "Mutation",
		"illegal state transition %s -> %s for mutation %d", m.state, next, m.ID)
}
