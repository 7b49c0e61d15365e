// Package sim is the minimal simulation kernel: it owns the mutation
// pool, the mutation types, and the parsed script blocks, advances the
// tick counter, hands eligible blocks to the interpreter with only the
// symbols their pre-scan demands, and runs the tick-boundary fixation
// sweep.
package sim

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/oxhq/driftsim/internal/block"
	"github.com/oxhq/driftsim/internal/config"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/gene"
	"github.com/oxhq/driftsim/internal/interp"
	"github.com/oxhq/driftsim/internal/parser"
	"github.com/oxhq/driftsim/internal/scanner"
	"github.com/oxhq/driftsim/internal/symbols"
	"github.com/oxhq/driftsim/internal/value"
	"github.com/oxhq/driftsim/models"
)

// Simulation is one forward-time run.
type Simulation struct {
	cfg *config.Config
	log *logrus.Entry
	out io.Writer

	pool       *gene.Pool
	types      map[string]*gene.MutationType
	typeList   []string
	getypes    map[string]*gene.GenomicElementType
	getypeList []string
	subpops    map[string]*Subpopulation
	subpopList []string

	blocks []*block.ScriptBlock
	source string
	tick   int64
	seed   int64

	// registry holds the currently segregating mutations; pending holds
	// mutations mid-fixation during a sweep.
	registry []gene.Index
	pending  []gene.Index

	substitutions []gene.Substitution

	table *symbols.Table

	gdb   *gorm.DB
	runID uint
}

// New creates a simulation with a single-trait mutation pool.
func New(cfg *config.Config, log *logrus.Logger, out io.Writer) *Simulation {
	if out == nil {
		out = io.Discard
	}
	return &Simulation{
		cfg:     cfg,
		log:     log.WithField("component", "sim"),
		out:     out,
		pool:    gene.NewPool(1),
		types:   make(map[string]*gene.MutationType),
		getypes: make(map[string]*gene.GenomicElementType),
		subpops: make(map[string]*Subpopulation),
		table:   symbols.NewTable(),
		seed:    cfg.EffectiveSeed(),
	}
}

// Pool exposes the mutation pool.
func (s *Simulation) Pool() *gene.Pool { return s.pool }

// Tick returns the current tick.
func (s *Simulation) Tick() int64 { return s.tick }

// Blocks returns the loaded script blocks.
func (s *Simulation) Blocks() []*block.ScriptBlock { return s.blocks }

// Substitutions returns the fixation records accumulated so far.
func (s *Simulation) Substitutions() []gene.Substitution { return s.substitutions }

// AttachDB enables run persistence.
func (s *Simulation) AttachDB(gdb *gorm.DB) { s.gdb = gdb }

// LoadScript tokenizes and parses a simulation source and extracts its
// script blocks.
func (s *Simulation) LoadScript(source string) error {
	toks, err := scanner.New(source, scanner.Config{
		LogTokens: s.cfg.LogTokens,
		Log:       s.out,
	}).Tokenize()
	if err != nil {
		return err
	}
	file, err := parser.New(toks, parser.Config{LogAST: s.cfg.LogAST, Log: s.out}).ParseSimulationFile()
	if err != nil {
		return err
	}
	blocks, err := block.BlocksFromFile(file)
	if err != nil {
		return err
	}
	s.blocks = blocks
	s.source = source
	s.log.WithFields(logrus.Fields{"blocks": len(blocks), "seed": s.seed}).Info("script loaded")
	if s.gdb != nil {
		return s.recordRun()
	}
	return nil
}

// DefineMutationType registers a mutation type under its script id.
func (s *Simulation) DefineMutationType(mtype *gene.MutationType) error {
	if _, exists := s.types[mtype.ID]; exists {
		return core.NoposErrf(core.ErrInvariant, "DefineMutationType",
			"mutation type %s is already defined", mtype.ID)
	}
	s.types[mtype.ID] = mtype
	s.typeList = append(s.typeList, mtype.ID)
	return nil
}

// DefineGenomicElementType registers a genomic element type under its
// script id.
func (s *Simulation) DefineGenomicElementType(getype *gene.GenomicElementType) error {
	if _, exists := s.getypes[getype.ID]; exists {
		return core.NoposErrf(core.ErrInvariant, "DefineGenomicElementType",
			"genomic element type %s is already defined", getype.ID)
	}
	s.getypes[getype.ID] = getype
	s.getypeList = append(s.getypeList, getype.ID)
	return nil
}

// DefineSubpopulation registers a subpopulation under its script id.
func (s *Simulation) DefineSubpopulation(sub *Subpopulation) error {
	if _, exists := s.subpops[sub.ID]; exists {
		return core.NoposErrf(core.ErrInvariant, "DefineSubpopulation",
			"subpopulation %s is already defined", sub.ID)
	}
	s.subpops[sub.ID] = sub
	s.subpopList = append(s.subpopList, sub.ID)
	return nil
}

// Subpopulation returns a defined subpopulation, or nil.
func (s *Simulation) Subpopulation(id string) *Subpopulation { return s.subpops[id] }

// AddMutation creates a mutation of a defined type, registers it, and
// returns its pool index.
func (s *Simulation) AddMutation(typeID string, chromosome int32, position int64, subpopID string, effect float64) (gene.Index, error) {
	mtype, ok := s.types[typeID]
	if !ok {
		return gene.NoIndex, core.NoposErrf(core.ErrResolve, "AddMutation",
			"unknown mutation type %s", typeID)
	}
	idx := s.pool.NewMutation(typeID, chromosome, position, s.tick, subpopID)
	s.pool.SetEffect(idx, 0, effect)
	s.pool.SetDominance(idx, 0, mtype.Dominance)
	if err := s.pool.Register(idx); err != nil {
		return gene.NoIndex, err
	}
	s.registry = append(s.registry, idx)
	return idx, nil
}

// RegistryMutations returns the currently segregating mutation indices.
func (s *Simulation) RegistryMutations() []gene.Index {
	return append([]gene.Index(nil), s.registry...)
}

// AdvanceTick increments the clock and runs every eligible event block.
func (s *Simulation) AdvanceTick() error {
	s.tick++
	for _, b := range s.blocks {
		if b.Kind != block.KindEvent || !b.AppliesAtTick(s.tick) {
			continue
		}
		if _, err := s.runBlock(b, nil); err != nil {
			return err
		}
	}
	s.log.WithFields(logrus.Fields{
		"tick":          s.tick,
		"segregating":   len(s.registry),
		"substitutions": len(s.substitutions),
	}).Debug("tick complete")
	return nil
}

// Run advances the clock until the given tick.
func (s *Simulation) Run(until int64) error {
	for s.tick < until {
		if err := s.AdvanceTick(); err != nil {
			return err
		}
	}
	if s.gdb != nil {
		return s.finishRun()
	}
	return nil
}

// RunCallbacks evaluates every eligible callback block of a kind. The
// caller supplies the callback parameters by name (relFitness, mut,
// subpop, …); each block receives only the parameters its usage summary
// references. The values of the blocks are returned in order.
func (s *Simulation) RunCallbacks(kind block.Kind, params map[string]value.Value) ([]value.Value, error) {
	var results []value.Value
	for _, b := range s.blocks {
		if b.Kind != kind || !b.AppliesAtTick(s.tick) {
			continue
		}
		v, err := s.runBlock(b, params)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return results, nil
}

// runBlock evaluates one block over the reusable symbol table, binding
// only what the block's usage summary asks for.
func (s *Simulation) runBlock(b *block.ScriptBlock, params map[string]value.Value) (value.Value, error) {
	s.table.RemoveAllVariables()
	if err := s.bindSymbols(b); err != nil {
		return nil, err
	}
	for name, v := range params {
		if !b.Usage.UsesParam(name) {
			continue
		}
		if err := s.table.SetVariable(name, v); err != nil {
			return nil, err
		}
	}
	in := interp.New(s.table, interp.StandardRegistry(), s.out, interp.Config{
		TraceEval: s.cfg.LogEval,
		Log:       s.out,
	})
	return in.EvaluateScriptBlockBody(b.Compound)
}

// bindSymbols installs the host objects a block references: the
// simulation object and the subpopulation, genomic-element-type,
// mutation-type, and named-script-block instances.
func (s *Simulation) bindSymbols(b *block.ScriptBlock) error {
	if b.Usage.Sim {
		simValue := value.MustObject(newSimulationElement(s))
		if err := s.table.SetVariable("sim", simValue); err != nil {
			return err
		}
	}
	if b.Usage.Subpops {
		for _, id := range s.subpopList {
			pv := value.MustObject(newSubpopElement(s.subpops[id]))
			if err := s.table.SetVariable(id, pv); err != nil {
				return err
			}
		}
	}
	if b.Usage.Genomes {
		for _, id := range s.getypeList {
			gv := value.MustObject(gene.NewGenomicElementTypeElement(s.getypes[id]))
			if err := s.table.SetVariable(id, gv); err != nil {
				return err
			}
		}
	}
	if b.Usage.MutTypes {
		for _, id := range s.typeList {
			mv := value.MustObject(gene.NewMutationTypeElement(s.types[id]))
			if err := s.table.SetVariable(id, mv); err != nil {
				return err
			}
		}
	}
	if b.Usage.ScriptBlocks {
		for _, blk := range s.blocks {
			if blk.ID == "" {
				continue
			}
			bv := value.MustObject(newScriptBlockElement(blk))
			if err := s.table.SetVariable(blk.ID, bv); err != nil {
				return err
			}
		}
	}
	return nil
}

// SweepFixed runs the fixation sweep over the given registry mutations:
// all of them move through removed-with-substitution, and only when every
// transition succeeds are they committed to fixed and recorded as
// substitutions. On any failure the sweep rolls back atomically.
func (s *Simulation) SweepFixed(fixed []gene.Index) error {
	var begun []gene.Index
	for _, idx := range fixed {
		if err := s.pool.BeginSubstitution(idx); err != nil {
			for _, b := range begun {
				if rbErr := s.pool.RollbackSubstitution(b); rbErr != nil {
					return rbErr
				}
			}
			return err
		}
		begun = append(begun, idx)
	}
	for _, idx := range begun {
		if err := s.pool.CommitSubstitution(idx); err != nil {
			return err
		}
		sub := gene.NewSubstitution(s.pool, idx, s.tick)
		s.substitutions = append(s.substitutions, sub)
		s.dropFromRegistry(idx)
		if s.gdb != nil {
			if err := s.recordSubstitution(sub); err != nil {
				return err
			}
		}
	}
	s.log.WithFields(logrus.Fields{"tick": s.tick, "fixed": len(begun)}).Info("fixation sweep")
	return nil
}

// MarkLost drops a registry mutation as lost and reclaims its slot.
func (s *Simulation) MarkLost(idx gene.Index) error {
	if err := s.pool.MarkLost(idx); err != nil {
		return err
	}
	s.dropFromRegistry(idx)
	return s.pool.Reclaim(idx)
}

func (s *Simulation) dropFromRegistry(idx gene.Index) {
	for i, r := range s.registry {
		if r == idx {
			s.registry[i] = s.registry[len(s.registry)-1]
			s.registry = s.registry[:len(s.registry)-1]
			return
		}
	}
}

// ---------------------------------------------------------------------------
// persistence
// ---------------------------------------------------------------------------

func (s *Simulation) recordRun() error {
	run := models.Run{Seed: s.seed, Source: s.source}
	if err := s.gdb.Create(&run).Error; err != nil {
		return err
	}
	s.runID = run.ID
	for _, b := range s.blocks {
		usage, err := json.Marshal(b.Usage)
		if err != nil {
			return err
		}
		rec := models.BlockRecord{
			RunID:     run.ID,
			BlockID:   b.ID,
			Kind:      string(b.Kind),
			StartTick: b.StartTick,
			EndTick:   b.EndTick,
			Usage:     usage,
		}
		if err := s.gdb.Create(&rec).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) recordSubstitution(sub gene.Substitution) error {
	rec := models.Substitution{
		RunID:        s.runID,
		MutationID:   int64(sub.MutationID),
		MutationType: sub.TypeID,
		Chromosome:   sub.Chromosome,
		Position:     sub.Position,
		OriginTick:   sub.OriginTick,
		FixationTick: sub.FixationTick,
		Effect:       sub.Effect,
	}
	return s.gdb.Create(&rec).Error
}

func (s *Simulation) finishRun() error {
	now := time.Now()
	return s.gdb.Model(&models.Run{}).Where("id = ?", s.runID).
		Updates(map[string]any{"ticks": s.tick, "status": "finished", "finished_at": &now}).Error
}
