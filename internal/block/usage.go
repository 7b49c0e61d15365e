package block

import (
	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/token"
)

// UsageSummary records which identifiers a block references, so the
// scheduler can bind only the symbols a block will actually read.
type UsageSummary struct {
	// Wildcard is set by identifiers that could reach any symbol; it
	// forces every other bit on.
	Wildcard bool

	// Well-known constants. These are installed in every symbol table
	// regardless; the bits serve introspection and tooling.
	ConstT    bool
	ConstF    bool
	ConstNull bool
	ConstPI   bool
	ConstE    bool
	ConstINF  bool
	ConstNAN  bool

	// Instance identifiers by prefix-plus-digits pattern.
	Subpops      bool // p<N>
	Genomes      bool // g<N>
	MutTypes     bool // m<N>
	ScriptBlocks bool // s<N>

	// The simulation object itself.
	Sim bool

	// Callback parameters.
	Mut          bool
	RelFitness   bool
	Homozygous   bool
	Genome1      bool
	Genome2      bool
	Subpop       bool
	SourceSubpop bool
	Weights      bool
	ChildGenome1 bool
	ChildGenome2 bool
	ChildIsFemale bool
	Parent1Genome1 bool
	Parent1Genome2 bool
	Parent2Genome1 bool
	Parent2Genome2 bool
}

// UsesParam reports whether the summary references the named callback
// parameter; the kernel binds only the parameters a block reads.
func (u *UsageSummary) UsesParam(name string) bool {
	if u.Wildcard {
		return true
	}
	switch name {
	case "mut":
		return u.Mut
	case "relFitness":
		return u.RelFitness
	case "homozygous":
		return u.Homozygous
	case "genome1":
		return u.Genome1
	case "genome2":
		return u.Genome2
	case "subpop":
		return u.Subpop
	case "sourceSubpop":
		return u.SourceSubpop
	case "weights":
		return u.Weights
	case "childGenome1":
		return u.ChildGenome1
	case "childGenome2":
		return u.ChildGenome2
	case "childIsFemale":
		return u.ChildIsFemale
	case "parent1Genome1":
		return u.Parent1Genome1
	case "parent1Genome2":
		return u.Parent1Genome2
	case "parent2Genome1":
		return u.Parent2Genome1
	case "parent2Genome2":
		return u.Parent2Genome2
	}
	return false
}

// wildcardIdentifiers are the meta-functions that can reach arbitrary
// symbols, defeating the pre-scan.
var wildcardIdentifiers = map[string]bool{
	"globals":       true,
	"executeLambda": true,
	"apply":         true,
}

// ScanUsage walks a subtree depth-first and summarizes its identifier use.
func ScanUsage(root *ast.Node) UsageSummary {
	var u UsageSummary
	root.Visit(func(n *ast.Node) {
		if n.Token.Kind != token.Identifier {
			return
		}
		name := n.Token.Lexeme
		if wildcardIdentifiers[name] {
			u.Wildcard = true
			return
		}
		switch name {
		case "T":
			u.ConstT = true
		case "F":
			u.ConstF = true
		case "NULL":
			u.ConstNull = true
		case "PI":
			u.ConstPI = true
		case "E":
			u.ConstE = true
		case "INF":
			u.ConstINF = true
		case "NAN":
			u.ConstNAN = true
		case "sim":
			u.Sim = true
		case "mut":
			u.Mut = true
		case "relFitness":
			u.RelFitness = true
		case "homozygous":
			u.Homozygous = true
		case "genome1":
			u.Genome1 = true
		case "genome2":
			u.Genome2 = true
		case "subpop":
			u.Subpop = true
		case "sourceSubpop":
			u.SourceSubpop = true
		case "weights":
			u.Weights = true
		case "childGenome1":
			u.ChildGenome1 = true
		case "childGenome2":
			u.ChildGenome2 = true
		case "childIsFemale":
			u.ChildIsFemale = true
		case "parent1Genome1":
			u.Parent1Genome1 = true
		case "parent1Genome2":
			u.Parent1Genome2 = true
		case "parent2Genome1":
			u.Parent2Genome1 = true
		case "parent2Genome2":
			u.Parent2Genome2 = true
		default:
			if kind, ok := instancePattern(name); ok {
				switch kind {
				case 'p':
					u.Subpops = true
				case 'g':
					u.Genomes = true
				case 'm':
					u.MutTypes = true
				case 's':
					u.ScriptBlocks = true
				}
			}
		}
	})
	if u.Wildcard {
		u.setAll()
	}
	return u
}

// instancePattern matches p<N>, g<N>, m<N>, s<N>.
func instancePattern(name string) (byte, bool) {
	if len(name) < 2 {
		return 0, false
	}
	prefix := name[0]
	if prefix != 'p' && prefix != 'g' && prefix != 'm' && prefix != 's' {
		return 0, false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	return prefix, true
}

func (u *UsageSummary) setAll() {
	*u = UsageSummary{
		Wildcard: true,
		ConstT:   true, ConstF: true, ConstNull: true,
		ConstPI: true, ConstE: true, ConstINF: true, ConstNAN: true,
		Subpops: true, Genomes: true, MutTypes: true, ScriptBlocks: true,
		Sim: true,
		Mut: true, RelFitness: true, Homozygous: true,
		Genome1: true, Genome2: true, Subpop: true, SourceSubpop: true, Weights: true,
		ChildGenome1: true, ChildGenome2: true, ChildIsFemale: true,
		Parent1Genome1: true, Parent1Genome2: true, Parent2Genome1: true, Parent2Genome2: true,
	}
}
