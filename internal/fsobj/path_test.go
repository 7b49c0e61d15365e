package fsobj

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oxhq/driftsim/internal/value"
)

func TestPathMembers(t *testing.T) {
	p := New("/some/dir")
	got, err := p.GetMember("path")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := got.StringAt(0)
	if s != "/some/dir" {
		t.Errorf("path member = %q", s)
	}

	if err := p.SetMember("path", value.NewString("/other")); err != nil {
		t.Fatal(err)
	}
	got, _ = p.GetMember("path")
	s, _ = got.StringAt(0)
	if s != "/other" {
		t.Errorf("path member after set = %q", s)
	}

	if _, err := p.GetMember("bogus"); err == nil {
		t.Errorf("unknown member read succeeded")
	}
}

func TestPathFilesGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := New(dir)
	got, err := p.ExecuteMethod("files", []value.Value{value.NewString("*.txt")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Count() != 2 {
		t.Errorf("files(*.txt) matched %d entries, want 2", got.Count())
	}

	all, err := p.ExecuteMethod("files", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if all.Count() != 3 {
		t.Errorf("files() matched %d entries, want 3", all.Count())
	}
}

func TestPathReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	ok, err := p.ExecuteMethod("writeFile", []value.Value{
		value.NewString("f.txt"),
		value.NewString("one", "two", "three"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := ok.LogicalAt(0); !b {
		t.Fatalf("writeFile reported failure")
	}

	lines, err := p.ExecuteMethod("readFile", []value.Value{value.NewString("f.txt")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two", "three"}
	if lines.Count() != len(want) {
		t.Fatalf("readFile returned %d lines, want %d", lines.Count(), len(want))
	}
	for i, w := range want {
		got, _ := lines.StringAt(i)
		if got != w {
			t.Errorf("line %d = %q, want %q", i, got, w)
		}
	}
}

func TestPathReadMissingFile(t *testing.T) {
	p := New(t.TempDir())
	if _, err := p.ExecuteMethod("readFile", []value.Value{value.NewString("nope.txt")}, nil); err == nil {
		t.Errorf("reading a missing file succeeded")
	}
}

func TestPathIsInternalElement(t *testing.T) {
	p := New("/x")
	if p.ExternallyManaged() {
		t.Errorf("Path must be an internal element")
	}
	if p.Refs() != 1 {
		t.Errorf("fresh refcount = %d, want 1", p.Refs())
	}
	obj := value.MustObject(p)
	copied := obj.Copy()
	if p.Refs() != 2 {
		t.Errorf("refcount after object copy = %d, want 2", p.Refs())
	}
	_ = copied
	p.Release()
	if p.Refs() != 1 {
		t.Errorf("refcount after release = %d, want 1", p.Refs())
	}
}
