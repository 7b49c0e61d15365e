package block

import (
	"testing"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/parser"
	"github.com/oxhq/driftsim/internal/scanner"
)

func parseFile(t *testing.T, src string) *ast.Node {
	t.Helper()
	toks, err := scanner.New(src, scanner.Config{}).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	file, err := parser.New(toks, parser.Config{}).ParseSimulationFile()
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func TestBlockMetadata(t *testing.T) {
	src := `
"s1" 1 { x = 1; }
1000:1999 { x = 2; }
100 fitness(m1, p2) { return relFitness; }
mateChoice(p1) { return weights; }
modifyChild() { return T; }
`
	blocks, err := BlocksFromFile(parseFile(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 5 {
		t.Fatalf("got %d blocks, want 5", len(blocks))
	}

	b := blocks[0]
	if b.ID != "s1" || b.Kind != KindEvent || b.StartTick != 1 || b.EndTick != 1 || !b.HasRange {
		t.Errorf("block 0 metadata = %+v", b)
	}

	b = blocks[1]
	if b.ID != "" || b.StartTick != 1000 || b.EndTick != 1999 {
		t.Errorf("block 1 metadata = %+v", b)
	}

	b = blocks[2]
	if b.Kind != KindFitness || b.MutTypeFilter != "m1" || b.SubpopFilter != "p2" {
		t.Errorf("block 2 metadata = %+v", b)
	}

	b = blocks[3]
	if b.Kind != KindMateChoice || b.SubpopFilter != "p1" || b.HasRange {
		t.Errorf("block 3 metadata = %+v", b)
	}

	b = blocks[4]
	if b.Kind != KindModifyChild || b.SubpopFilter != "" {
		t.Errorf("block 4 metadata = %+v", b)
	}
}

func TestAppliesAtTick(t *testing.T) {
	src := `
1000:1999 { 1; }
fitness(m1) { return relFitness; }
500 { 1; }
`
	blocks, err := BlocksFromFile(parseFile(t, src))
	if err != nil {
		t.Fatal(err)
	}

	ranged := blocks[0]
	for tick, want := range map[int64]bool{999: false, 1000: true, 1500: true, 1999: true, 2000: false} {
		if got := ranged.AppliesAtTick(tick); got != want {
			t.Errorf("ranged block at tick %d = %v, want %v", tick, got, want)
		}
	}

	unranged := blocks[1]
	if !unranged.AppliesAtTick(1) || !unranged.AppliesAtTick(99999) {
		t.Errorf("unranged callback block should apply at every tick")
	}

	single := blocks[2]
	if !single.AppliesAtTick(500) || single.AppliesAtTick(501) {
		t.Errorf("single-tick block range wrong")
	}

	single.Active = false
	if single.AppliesAtTick(500) {
		t.Errorf("inactive block applied")
	}
}

func TestUsageSummary(t *testing.T) {
	src := `
100 { x = T; y = PI; if (F) z = NULL; }
100 { p1; g2; m3; s4; }
100 fitness(m1) { return relFitness * mut.selectionCoeff; }
100 { sim; childGenome1; sourceSubpop; }
100 { x = 1; }
`
	blocks, err := BlocksFromFile(parseFile(t, src))
	if err != nil {
		t.Fatal(err)
	}

	u := blocks[0].Usage
	if !u.ConstT || !u.ConstPI || !u.ConstF || !u.ConstNull {
		t.Errorf("constants not recorded: %+v", u)
	}
	if u.ConstE || u.ConstINF || u.ConstNAN || u.Subpops {
		t.Errorf("unreferenced bits set: %+v", u)
	}

	u = blocks[1].Usage
	if !u.Subpops || !u.Genomes || !u.MutTypes || !u.ScriptBlocks {
		t.Errorf("instance patterns not recorded: %+v", u)
	}

	u = blocks[2].Usage
	if !u.RelFitness || !u.Mut {
		t.Errorf("callback parameters not recorded: %+v", u)
	}

	u = blocks[3].Usage
	if !u.Sim || !u.ChildGenome1 || !u.SourceSubpop {
		t.Errorf("host identifiers not recorded: %+v", u)
	}

	u = blocks[4].Usage
	if u.ConstT || u.Sim || u.Mut || u.Subpops {
		t.Errorf("plain block has spurious bits: %+v", u)
	}
}

func TestUsageWildcard(t *testing.T) {
	src := `100 { globals(); }`
	blocks, err := BlocksFromFile(parseFile(t, src))
	if err != nil {
		t.Fatal(err)
	}
	u := blocks[0].Usage
	if !u.Wildcard {
		t.Fatalf("wildcard not detected")
	}
	if !u.ConstT || !u.ConstNAN || !u.Subpops || !u.Mut || !u.Parent2Genome2 || !u.Sim {
		t.Errorf("wildcard did not force all bits: %+v", u)
	}
}

func TestUsesParam(t *testing.T) {
	src := `100 fitness(m1) { return relFitness * mut.selectionCoeff; }`
	blocks, err := BlocksFromFile(parseFile(t, src))
	if err != nil {
		t.Fatal(err)
	}
	u := blocks[0].Usage
	if !u.UsesParam("relFitness") || !u.UsesParam("mut") {
		t.Errorf("referenced parameters not reported: %+v", u)
	}
	if u.UsesParam("homozygous") || u.UsesParam("subpop") {
		t.Errorf("unreferenced parameters reported: %+v", u)
	}
	if u.UsesParam("notAParameter") {
		t.Errorf("unknown name reported as a parameter")
	}

	wild, err := BlocksFromFile(parseFile(t, `100 { globals(); }`))
	if err != nil {
		t.Fatal(err)
	}
	if !wild[0].Usage.UsesParam("parent2Genome2") {
		t.Errorf("wildcard must report every parameter")
	}
}

func TestInstancePatternEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"p1", true},
		{"g42", true},
		{"m0", true},
		{"s999", true},
		{"p", false},
		{"px", false},
		{"p1x", false},
		{"q1", false},
	}
	for _, tt := range tests {
		_, ok := instancePattern(tt.name)
		if ok != tt.want {
			t.Errorf("instancePattern(%q) = %v, want %v", tt.name, ok, tt.want)
		}
	}
}
