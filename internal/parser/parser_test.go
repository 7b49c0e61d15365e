package parser

import (
	"testing"

	"github.com/oxhq/driftsim/internal/ast"
	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/scanner"
	"github.com/oxhq/driftsim/internal/token"
)

func parseBlock(t *testing.T, src string) *ast.Node {
	t.Helper()
	toks, err := scanner.New(src, scanner.Config{}).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", src, err)
	}
	root, err := New(toks, Config{}).ParseInterpreterBlock()
	if err != nil {
		t.Fatalf("ParseInterpreterBlock(%q) error = %v", src, err)
	}
	return root
}

func parseFile(t *testing.T, src string) *ast.Node {
	t.Helper()
	toks, err := scanner.New(src, scanner.Config{}).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", src, err)
	}
	root, err := New(toks, Config{}).ParseSimulationFile()
	if err != nil {
		t.Fatalf("ParseSimulationFile(%q) error = %v", src, err)
	}
	return root
}

// shape renders the tree structure as "op(child child)" for terse
// precedence assertions.
func shape(n *ast.Node) string {
	if len(n.Children) == 0 {
		return n.Token.Lexeme
	}
	s := n.Token.Kind.String() + "("
	for i, c := range n.Children {
		if i > 0 {
			s += " "
		}
		s += shape(c)
	}
	return s + ")"
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "+(1 *(2 3))"},
		{"1 * 2 + 3;", "+(*(1 2) 3)"},
		{"1 - 2 - 3;", "-(-(1 2) 3)"},
		{"1 < 2 == T;", "==(<(1 2) T)"},
		{"a & b | c;", "|(&(a b) c)"},
		{"1:5 * 2;", "*(:(1 5) 2)"},
		{"2 ^ 3 ^ 2;", "^(^(2 3) 2)"},
		{"-2 ^ 2;", "^(-(2) 2)"},
		{"!a == b;", "==(!(a) b)"},
		{"x = 1 + 2;", "=(x +(1 2))"},
		{"(1 + 2) * 3;", "*(+(1 2) 3)"},
	}
	for _, tt := range tests {
		root := parseBlock(t, tt.src)
		if got := shape(root.Children[0]); got != tt.want {
			t.Errorf("parse(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestPostfixComposition(t *testing.T) {
	root := parseBlock(t, "a.b[0](x).c;")
	// .( [( .( a b) 0) x) then .c outermost
	outer := root.Children[0]
	if outer.Token.Kind != token.Dot {
		t.Fatalf("outermost = %s, want '.'", outer.Token.Kind)
	}
	call := outer.Children[0]
	if call.Token.Kind != token.LParen {
		t.Fatalf("next = %s, want call", call.Token.Kind)
	}
	sub := call.Children[0]
	if sub.Token.Kind != token.LBracket {
		t.Fatalf("next = %s, want subscript", sub.Token.Kind)
	}
	member := sub.Children[0]
	if member.Token.Kind != token.Dot {
		t.Fatalf("innermost = %s, want member access", member.Token.Kind)
	}
}

func TestStatements(t *testing.T) {
	for _, src := range []string{
		"{ 1; 2; }",
		"if (x) 1; else 2;",
		"if (x) { 1; }",
		"do x = x + 1; while (x < 10);",
		"while (x < 10) x = x + 1;",
		"for (i in 1:10) { next; }",
		"for (i in x) break;",
		"return;",
		"return 1 + 2;",
		";",
	} {
		parseBlock(t, src)
	}
}

func TestInterpreterBlockContainer(t *testing.T) {
	root := parseBlock(t, "1; 2;")
	if root.Token.Kind != token.InterpreterBlock {
		t.Errorf("container kind = %s, want interpreter-block", root.Token.Kind)
	}
	if len(root.Children) != 2 {
		t.Errorf("container has %d children, want 2", len(root.Children))
	}
}

func TestSimulationFile(t *testing.T) {
	src := `
// setup
"s1" 1 { x = 1; }
1000:1999 { x = 2; }
"s2" 100 fitness(m1) { return relFitness; }
2000 fitness(m2, p1) { return 1.0; }
mateChoice(p1) { return weights; }
modifyChild() { return T; }
`
	root := parseFile(t, src)
	if root.Token.Kind != token.File {
		t.Fatalf("root kind = %s, want file", root.Token.Kind)
	}
	if len(root.Children) != 6 {
		t.Fatalf("file has %d blocks, want 6", len(root.Children))
	}
	for i, blk := range root.Children {
		if blk.Token.Kind != token.ScriptBlock {
			t.Errorf("block %d kind = %s, want script-block", i, blk.Token.Kind)
		}
		last := blk.Children[len(blk.Children)-1]
		if last.Token.Kind != token.LBrace {
			t.Errorf("block %d missing compound statement", i)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		file bool
	}{
		{"missing semicolon", "1 + 2", false},
		{"missing rparen", "if (x 1;", false},
		{"missing while", "do x; (x < 3);", false},
		{"missing in", "for (i 1:3) x;", false},
		{"unbalanced brace", "{ 1;", false},
		{"bad primary", "1 + ;", false},
		{"fitness without mut type", "100 fitness() { }", true},
		{"block without body", `"s1" 100`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := scanner.New(tt.src, scanner.Config{}).Tokenize()
			if err != nil {
				t.Fatal(err)
			}
			p := New(toks, Config{})
			if tt.file {
				_, err = p.ParseSimulationFile()
			} else {
				_, err = p.ParseInterpreterBlock()
			}
			if err == nil {
				t.Fatalf("parse(%q) succeeded, want error", tt.src)
			}
			se, ok := err.(*core.ScriptError)
			if !ok {
				t.Fatalf("error type = %T, want *core.ScriptError", err)
			}
			if se.Code != core.ErrSyntax {
				t.Errorf("code = %s, want %s", se.Code, core.ErrSyntax)
			}
			if se.Start < 0 || se.Start > len(tt.src) {
				t.Errorf("reported position %d outside source of length %d", se.Start, len(tt.src))
			}
		})
	}
}
