package interp

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/oxhq/driftsim/internal/parser"
	"github.com/oxhq/driftsim/internal/scanner"
	"github.com/oxhq/driftsim/internal/symbols"
	"github.com/oxhq/driftsim/internal/value"
)

// evalScript runs an interpreter block over a fresh symbol table and
// returns the final statement's value.
func evalScript(t *testing.T, src string) (value.Value, error) {
	t.Helper()
	toks, err := scanner.New(src, scanner.Config{}).Tokenize()
	if err != nil {
		return nil, err
	}
	toks = scanner.AppendOptionalSemicolon(toks)
	root, err := parser.New(toks, parser.Config{}).ParseInterpreterBlock()
	if err != nil {
		return nil, err
	}
	in := New(symbols.NewTable(), StandardRegistry(), nil, Config{})
	return in.EvaluateInterpreterBlock(root, false)
}

func assertScriptSuccess(t *testing.T, src string, want value.Value) {
	t.Helper()
	got, err := evalScript(t, src)
	if err != nil {
		t.Fatalf("script %q raised: %v", src, err)
	}
	if !value.ElementwiseEqual(got, want) {
		var gs, ws strings.Builder
		got.Print(&gs)
		want.Print(&ws)
		t.Errorf("script %q = %s (%s), want %s (%s)", src, gs.String(), got.Type(), ws.String(), want.Type())
	}
}

func assertScriptRaise(t *testing.T, src string) {
	t.Helper()
	if got, err := evalScript(t, src); err == nil {
		var sb strings.Builder
		got.Print(&sb)
		t.Errorf("script %q succeeded with %s, want raise", src, sb.String())
	}
}

func TestLiterals(t *testing.T) {
	assertScriptSuccess(t, "3;", value.NewInteger(3))
	assertScriptSuccess(t, "3e2;", value.NewInteger(300))
	assertScriptSuccess(t, "3.1;", value.NewFloat(3.1))
	assertScriptSuccess(t, "3.1e2;", value.NewFloat(3.1e2))
	assertScriptSuccess(t, "3.1e-2;", value.NewFloat(3.1e-2))
	assertScriptSuccess(t, `"foo";`, value.NewString("foo"))
	assertScriptSuccess(t, `"foo\tbar";`, value.NewString("foo\tbar"))
	assertScriptSuccess(t, "T;", value.NewLogical(true))
	assertScriptSuccess(t, "F;", value.NewLogical(false))
}

func TestArithmetic(t *testing.T) {
	assertScriptSuccess(t, "3+4+5;", value.NewInteger(12))
	assertScriptSuccess(t, "1+-1;", value.NewInteger(0))
	assertScriptSuccess(t, "(0:2)+10;", value.NewInteger(10, 11, 12))
	assertScriptSuccess(t, "10+(0:2);", value.NewInteger(10, 11, 12))
	assertScriptSuccess(t, "(1:3)*(1:3);", value.NewInteger(1, 4, 9))
	assertScriptSuccess(t, "2.5 + 1;", value.NewFloat(3.5))
	assertScriptSuccess(t, "7 - 3;", value.NewInteger(4))
	assertScriptSuccess(t, "-(1:3);", value.NewInteger(-1, -2, -3))
	assertScriptSuccess(t, "+5;", value.NewInteger(5))
	assertScriptSuccess(t, "6/3;", value.NewFloat(2))
	assertScriptSuccess(t, "6.0/0;", value.NewFloat(value.StaticINF.Values[0]))
	assertScriptSuccess(t, "5%3;", value.NewFloat(2))
	assertScriptSuccess(t, "2^10;", value.NewFloat(1024))
	assertScriptSuccess(t, `"ab" + "cd";`, value.NewString("abcd"))
	assertScriptSuccess(t, `"x" + (1:3);`, value.NewString("x1", "x2", "x3"))
}

func TestArithmeticErrors(t *testing.T) {
	assertScriptRaise(t, "6/0;")
	assertScriptRaise(t, "T + F;")
	assertScriptRaise(t, `"a" - "b";`)
	assertScriptRaise(t, "-T;")
	assertScriptRaise(t, "(1:3) + (1:4);")
	assertScriptRaise(t, "$foo;")
}

func TestComparisons(t *testing.T) {
	assertScriptSuccess(t, "rep(1:3, 2) == 2;", value.NewLogical(false, true, false, false, true, false))
	assertScriptSuccess(t, "rep(1:3, 2) != 2;", value.NewLogical(true, false, true, true, false, true))
	assertScriptSuccess(t, "rep(1:3, 2) < 2;", value.NewLogical(true, false, false, true, false, false))
	assertScriptSuccess(t, "rep(1:3, 2) <= 2;", value.NewLogical(true, true, false, true, true, false))
	assertScriptSuccess(t, "rep(1:3, 2) > 2;", value.NewLogical(false, false, true, false, false, true))
	assertScriptSuccess(t, "rep(1:3, 2) >= 2;", value.NewLogical(false, true, true, false, true, true))
	assertScriptSuccess(t, `"a" == "a";`, value.NewLogical(true))
	assertScriptSuccess(t, `1 == "1";`, value.NewLogical(true))
	assertScriptSuccess(t, "1 == NULL;", value.NewLogical())
	assertScriptSuccess(t, "NULL < 3;", value.NewLogical())
}

func TestLogicalOperators(t *testing.T) {
	assertScriptSuccess(t, "T & F;", value.NewLogical(false))
	assertScriptSuccess(t, "T | F;", value.NewLogical(true))
	assertScriptSuccess(t, "!T;", value.NewLogical(false))
	assertScriptSuccess(t, "!(1:3 == 2);", value.NewLogical(true, false, true))
	assertScriptSuccess(t, "T & c(T, F, T);", value.NewLogical(true, false, true))
	assertScriptSuccess(t, "c(T, F) | c(F, F);", value.NewLogical(true, false))
}

// Strings coerce to logical as "non-empty", strtod-style, so they are
// usable as operands of ! & | and as conditions.
func TestStringTruthiness(t *testing.T) {
	assertScriptSuccess(t, `!"abc";`, value.NewLogical(false))
	assertScriptSuccess(t, `!"";`, value.NewLogical(true))
	assertScriptSuccess(t, `"abc" & T;`, value.NewLogical(true))
	assertScriptSuccess(t, `"" | F;`, value.NewLogical(false))
	assertScriptSuccess(t, `if ("x") 1; else 2;`, value.NewInteger(1))
	assertScriptSuccess(t, `if ("") 1; else 2;`, value.NewInteger(2))
}

func TestRangeOperator(t *testing.T) {
	assertScriptSuccess(t, "1:5;", value.NewInteger(1, 2, 3, 4, 5))
	assertScriptSuccess(t, "5:1;", value.NewInteger(5, 4, 3, 2, 1))
	assertScriptSuccess(t, "1.5:4;", value.NewFloat(1.5, 2.5, 3.5))
	assertScriptRaise(t, "1:200000;")
	assertScriptRaise(t, "(1:2):3;")
	assertScriptRaise(t, `"a":3;`)
}

func TestSubscripts(t *testing.T) {
	assertScriptSuccess(t, "x = 1:5; x[0];", value.NewInteger(1))
	assertScriptSuccess(t, "x = 1:5; x[c(0, 4)];", value.NewInteger(1, 5))
	assertScriptSuccess(t, "x = 1:5; x[x > 3];", value.NewInteger(4, 5))
	assertScriptSuccess(t, "x = 1:5; x[NULL];", value.NewInteger())
	assertScriptSuccess(t, "NULL[0];", value.NewNull())
	assertScriptSuccess(t, "x = 1:5; x[1.9];", value.NewInteger(2))
	assertScriptRaise(t, "x = 1:5; x[5];")
	assertScriptRaise(t, "x = 1:5; x[c(T, F)];")
}

func TestAssignment(t *testing.T) {
	assertScriptSuccess(t, "x = 10; x;", value.NewInteger(10))
	assertScriptSuccess(t, "x = 1:5; x[x % 2 == 1] = 10; x;", value.NewInteger(10, 2, 10, 4, 10))
	assertScriptSuccess(t, "x = 1:5; x[1:3] = c(9, 8, 7); x;", value.NewInteger(1, 9, 8, 7, 5))
	assertScriptSuccess(t, "x = 1:5; x[x > 2][0] = 99; x;", value.NewInteger(1, 2, 99, 4, 5))
	assertScriptSuccess(t, "x = T; x[0] = F; x;", value.NewLogical(false))
	assertScriptRaise(t, "x = 1:5; x[0:1] = c(1, 2, 3);")
	assertScriptRaise(t, "1 = 2;")
	assertScriptRaise(t, "T = F;")
	assertScriptRaise(t, "if (x = 3) 1;")
}

func TestAssignmentIsInvisible(t *testing.T) {
	v, err := evalScript(t, "x = 3;")
	if err != nil {
		t.Fatal(err)
	}
	if v.Type() != value.TypeNull || !v.Invisible() {
		t.Errorf("assignment evaluated to %s (invisible=%v), want invisible NULL", v.Type(), v.Invisible())
	}
}

func TestFlowControl(t *testing.T) {
	assertScriptSuccess(t, "if (T) 1; else 2;", value.NewInteger(1))
	assertScriptSuccess(t, "if (F) 1; else 2;", value.NewInteger(2))
	assertScriptSuccess(t, "x = 0; while (x < 5) x = x + 1; x;", value.NewInteger(5))
	assertScriptSuccess(t, "x = 0; do x = x + 1; while (x < 5); x;", value.NewInteger(5))
	assertScriptSuccess(t, "s = 0; for (i in 1:10) s = s + i; s;", value.NewInteger(55))
	assertScriptSuccess(t, "s = 0; for (i in 1:10) { if (i % 2 == 0) next; s = s + i; } s;", value.NewInteger(25))
	assertScriptSuccess(t, "s = 0; for (i in 1:10) { if (i == 4) break; s = s + i; } s;", value.NewInteger(6))
	assertScriptSuccess(t, "for (i in 1:3) if (i == 2) return 42; 7;", value.NewInteger(42))
	assertScriptRaise(t, "if (1:3) 1;")
	assertScriptRaise(t, "while (c(T, T)) 1;")
	assertScriptRaise(t, "next;")
	assertScriptRaise(t, "break;")
}

func TestBuiltins(t *testing.T) {
	assertScriptSuccess(t, "c(1, 2, 3);", value.NewInteger(1, 2, 3))
	assertScriptSuccess(t, "c(1, 2.5);", value.NewFloat(1, 2.5))
	assertScriptSuccess(t, `c(1, "a");`, value.NewString("1", "a"))
	assertScriptSuccess(t, "c(NULL, 1, NULL);", value.NewInteger(1))
	assertScriptSuccess(t, "c();", value.NewNull())
	assertScriptSuccess(t, "rep(1:2, 3);", value.NewInteger(1, 2, 1, 2, 1, 2))
	assertScriptSuccess(t, "seq(1, 5);", value.NewInteger(1, 2, 3, 4, 5))
	assertScriptSuccess(t, "seq(5, 1);", value.NewInteger(5, 4, 3, 2, 1))
	assertScriptSuccess(t, "size(1:10);", value.NewInteger(10))
	assertScriptSuccess(t, "size(NULL);", value.NewInteger(0))
	assertScriptSuccess(t, "abs(c(-1, 2, -3));", value.NewInteger(1, 2, 3))
	assertScriptSuccess(t, "abs(-1.5);", value.NewFloat(1.5))
	assertScriptSuccess(t, "sum(1:10);", value.NewInteger(55))
	assertScriptSuccess(t, "sum(c(T, F, T));", value.NewInteger(2))
	assertScriptSuccess(t, "sum(c(0.5, 1.5));", value.NewFloat(2))
	assertScriptSuccess(t, `paste(1:3);`, value.NewString("1 2 3"))
	assertScriptSuccess(t, `paste(1:3, ",");`, value.NewString("1,2,3"))
	assertScriptRaise(t, "rep(1:3);")
	assertScriptRaise(t, "seq(1, 5, 0);")
	assertScriptRaise(t, "nosuchfunction(1);")
}

func TestSeqFloatTolerance(t *testing.T) {
	assertScriptSuccess(t,
		"(seq(1, 2, 0.2) - c(1, 1.2, 1.4, 1.6, 1.8, 2.0)) < 0.000000001;",
		value.NewLogical(true, true, true, true, true, true))
}

func TestPathObject(t *testing.T) {
	dir := t.TempDir()
	src := `p = path("` + dir + `"); p.path;`
	assertScriptSuccess(t, src, value.NewString(dir))

	src = `p = path("` + dir + `"); ok = p.writeFile("out.txt", c("line1", "line2")); ok;`
	assertScriptSuccess(t, src, value.NewLogical(true))

	src = `p = path("` + dir + `"); p.writeFile("out.txt", c("line1", "line2")); p.readFile("out.txt");`
	assertScriptSuccess(t, src, value.NewString("line1", "line2"))

	globDir := t.TempDir()
	src = `p = path("` + globDir + `"); p.writeFile("a.txt", "x"); filesAtPath("` + globDir + `", "*.txt");`
	assertScriptSuccess(t, src, value.NewString("a.txt"))

	assertScriptRaise(t, `p = path("/nowhere"); p.nosuchmember;`)
	assertScriptRaise(t, `p = path("/nowhere"); p.nosuchmethod();`)
}

// REPL-style echo output, golden-tested with a diff for readability.
func TestInterpreterBlockEcho(t *testing.T) {
	src := "1 + 1; x = 5; x * 2; \"done\";"
	toks, err := scanner.New(src, scanner.Config{}).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	root, err := parser.New(toks, parser.Config{}).ParseInterpreterBlock()
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	in := New(symbols.NewTable(), StandardRegistry(), &out, Config{})
	if _, err := in.EvaluateInterpreterBlock(root, true); err != nil {
		t.Fatal(err)
	}
	want := "2\n10\n\"done\"\n"
	if out.String() != want {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(out.String()),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		t.Errorf("echo output mismatch:\n%s", diff)
	}
}

func TestPrintBuiltin(t *testing.T) {
	src := "print(1:3);"
	toks, _ := scanner.New(src, scanner.Config{}).Tokenize()
	root, err := parser.New(toks, parser.Config{}).ParseInterpreterBlock()
	if err != nil {
		t.Fatal(err)
	}
	var out strings.Builder
	in := New(symbols.NewTable(), StandardRegistry(), &out, Config{})
	if _, err := in.EvaluateInterpreterBlock(root, true); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1 2 3\n" {
		t.Errorf("print output = %q, want %q", out.String(), "1 2 3\n")
	}
}
