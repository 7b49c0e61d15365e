package sim

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/driftsim/db"
	"github.com/oxhq/driftsim/internal/block"
	"github.com/oxhq/driftsim/internal/config"
	"github.com/oxhq/driftsim/internal/gene"
	"github.com/oxhq/driftsim/internal/value"
	"github.com/oxhq/driftsim/models"
)

func newTestSim(t *testing.T) *Simulation {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(&config.Config{Seed: 42, LogLevel: "error"}, log, io.Discard)
}

func TestLoadScriptExtractsBlocks(t *testing.T) {
	s := newTestSim(t)
	err := s.LoadScript(`
"s1" 1 { x = 1; }
1:10 { y = 2; }
100 fitness(m1) { return relFitness; }
`)
	require.NoError(t, err)
	require.Len(t, s.Blocks(), 3)
	assert.Equal(t, block.KindEvent, s.Blocks()[0].Kind)
	assert.Equal(t, block.KindFitness, s.Blocks()[2].Kind)
}

func TestAdvanceTickRunsEligibleEvents(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	require.NoError(t, s.LoadScript(`
2 { sim.addMutation("m1", 1000, 0.05); }
`))
	require.NoError(t, s.AdvanceTick())
	assert.Empty(t, s.RegistryMutations(), "block must not fire before its tick")

	require.NoError(t, s.AdvanceTick())
	muts := s.RegistryMutations()
	require.Len(t, muts, 1)
	mut := s.Pool().Get(muts[0])
	assert.Equal(t, gene.StateInRegistry, mut.State())
	assert.EqualValues(t, 1000, mut.Position)
	assert.Equal(t, 0.05, s.Pool().Trait(muts[0], 0).Effect)
	assert.EqualValues(t, 2, mut.OriginTick)
}

func TestBindSymbolsFollowsUsage(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(1.0), gene.DFEFixed, 0.0)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	// The first block never mentions m1, so it must not be bound; the
	// second reads its dominance coefficient through the bound instance.
	require.NoError(t, s.LoadScript(`
1 { x = 1; }
2 { h = m1.dominanceCoeff; }
`))
	require.NoError(t, s.Run(2))
}

func TestBindSymbolsSubpopsAndGenomicTypes(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))
	getype, err := gene.NewGenomicElementType("g1", []string{"m1"}, []float64{1.0})
	require.NoError(t, err)
	require.NoError(t, s.DefineGenomicElementType(getype))
	require.NoError(t, s.DefineSubpopulation(&Subpopulation{ID: "p1", Size: 500}))

	var out strings.Builder
	s.out = &out
	require.NoError(t, s.LoadScript(`
1 { print(p1.individualCount); p1.setSize(250); }
2 { print(g1.mutationFractions); }
`))
	require.NoError(t, s.Run(2))
	assert.Equal(t, "500\n1\n", out.String())
	assert.EqualValues(t, 250, s.Subpopulation("p1").Size)
}

func TestScriptBlockDeactivation(t *testing.T) {
	s := newTestSim(t)
	var out strings.Builder
	s.out = &out
	require.NoError(t, s.LoadScript(`
"s1" 1:10 { print("fired"); }
2 { s1.active = F; }
`))
	require.NoError(t, s.Run(3))
	assert.Equal(t, "\"fired\"\n\"fired\"\n", out.String(),
		"s1 must fire at ticks 1 and 2 only; tick 2 deactivates it")
	assert.False(t, s.Blocks()[0].Active)
}

func TestRunCallbacks(t *testing.T) {
	s := newTestSim(t)
	require.NoError(t, s.LoadScript(`
fitness(m1) { return relFitness * 2.0; }
`))
	require.NoError(t, s.AdvanceTick())

	results, err := s.RunCallbacks(block.KindFitness, map[string]value.Value{
		"relFitness": value.NewFloat(1.5),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	f, err := results[0].FloatAt(0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
}

// Each block receives only the callback parameters its usage summary
// references: unused parameters stay unbound, and a parameter the block
// reads but the caller did not supply surfaces as an unknown identifier.
func TestRunCallbacksBindsOnlyUsedParams(t *testing.T) {
	s := newTestSim(t)
	require.NoError(t, s.LoadScript(`
fitness(m1) { return relFitness; }
`))
	require.NoError(t, s.AdvanceTick())

	results, err := s.RunCallbacks(block.KindFitness, map[string]value.Value{
		"relFitness": value.NewFloat(1.0),
		"homozygous": value.StaticTrue,
		"mut":        value.NewFloat(99),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, s.table.Defined("homozygous"), "unused parameter must not be bound")
	assert.False(t, s.table.Defined("mut"), "unused parameter must not be bound")

	_, err = s.RunCallbacks(block.KindFitness, map[string]value.Value{
		"homozygous": value.StaticTrue,
	})
	require.Error(t, err, "block reads relFitness, which the caller did not supply")
}

func TestSweepFixedCommitsAtomically(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	a, err := s.AddMutation("m1", 0, 10, "p1", 0.1)
	require.NoError(t, err)
	b, err := s.AddMutation("m1", 0, 20, "p1", 0.2)
	require.NoError(t, err)

	require.NoError(t, s.SweepFixed([]gene.Index{a, b}))
	assert.Equal(t, gene.StateFixedAndSubstituted, s.Pool().Get(a).State())
	assert.Equal(t, gene.StateFixedAndSubstituted, s.Pool().Get(b).State())
	assert.Len(t, s.Substitutions(), 2)
	assert.Empty(t, s.RegistryMutations())
}

func TestSweepFixedRollsBack(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	a, err := s.AddMutation("m1", 0, 10, "p1", 0.1)
	require.NoError(t, err)
	b, err := s.AddMutation("m1", 0, 20, "p1", 0.2)
	require.NoError(t, err)
	require.NoError(t, s.MarkLost(b)) // b can no longer transition

	err = s.SweepFixed([]gene.Index{a, b})
	require.Error(t, err)
	assert.Equal(t, gene.StateInRegistry, s.Pool().Get(a).State(), "a must roll back to the registry")
	assert.Empty(t, s.Substitutions())
}

func TestMarkLostReclaims(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	idx, err := s.AddMutation("m1", 0, 10, "p1", 0.1)
	require.NoError(t, err)
	require.NoError(t, s.MarkLost(idx))
	assert.Empty(t, s.RegistryMutations())
	assert.Equal(t, 0, s.Pool().Live())
}

func TestSimulationElementThroughScript(t *testing.T) {
	s := newTestSim(t)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	var out strings.Builder
	s.out = &out
	require.NoError(t, s.LoadScript(`
1 {
	m = sim.addMutation("m1", 500, 0.1);
	m.setSelectionCoeff(0.25);
	print(sim.mutationCount);
}
2 {
	print(size(sim.mutations()));
}
`))
	require.NoError(t, s.Run(2))
	assert.Equal(t, "1\n1\n", out.String())

	muts := s.RegistryMutations()
	require.Len(t, muts, 1)
	assert.Equal(t, 0.25, s.Pool().Trait(muts[0], 0).Effect)
}

func TestRunPersistsToDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	gdb, err := db.Connect(dbPath, false)
	require.NoError(t, err)

	s := newTestSim(t)
	s.AttachDB(gdb)
	mtype, err := gene.NewMutationType("m1", gene.Coefficient(0.5), gene.DFEFixed, 0.1)
	require.NoError(t, err)
	require.NoError(t, s.DefineMutationType(mtype))

	require.NoError(t, s.LoadScript(`
"s1" 1 { sim.addMutation("m1", 42, 0.1); }
`))
	require.NoError(t, s.AdvanceTick())
	require.NoError(t, s.SweepFixed(s.RegistryMutations()))
	require.NoError(t, s.Run(3))

	var run models.Run
	require.NoError(t, gdb.First(&run).Error)
	assert.EqualValues(t, 42, run.Seed)
	assert.Equal(t, "finished", run.Status)
	assert.EqualValues(t, 3, run.Ticks)

	var blockCount int64
	require.NoError(t, gdb.Model(&models.BlockRecord{}).Count(&blockCount).Error)
	assert.EqualValues(t, 1, blockCount)

	var sub models.Substitution
	require.NoError(t, gdb.First(&sub).Error)
	assert.EqualValues(t, 42, sub.Position)
	assert.Equal(t, "m1", sub.MutationType)
	assert.EqualValues(t, 1, sub.FixationTick)
}
