// Package symbols implements the identifier-to-value table used by one
// script evaluation.
package symbols

import (
	"math"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/value"
)

const initialCapacity = 16

type entry struct {
	name     string
	val      value.Value
	constant bool
}

// Table is a flat searchable list of bindings. Lookup scans linearly,
// rejecting on name length before comparing strings; storage doubles when
// full. Order is not meaningful and Remove does not preserve it.
type Table struct {
	entries []entry
}

// NewTable returns a table pre-loaded with the built-in constants, all
// installed as externally-owned singletons.
func NewTable() *Table {
	t := &Table{entries: make([]entry, 0, initialCapacity)}
	for _, c := range []struct {
		name string
		val  value.Value
	}{
		{"T", value.StaticTrue},
		{"F", value.StaticFalse},
		{"NULL", value.StaticNull},
		{"PI", value.StaticPI},
		{"E", value.StaticE},
		{"INF", value.StaticINF},
		{"NAN", value.StaticNAN},
	} {
		if err := t.InstallPrebuiltConstant(c.name, c.val); err != nil {
			panic(err)
		}
	}
	return t
}

// NewEmptyTable returns a table with no bindings at all, for callers that
// want full control (tests, mostly).
func NewEmptyTable() *Table {
	return &Table{entries: make([]entry, 0, initialCapacity)}
}

func (t *Table) find(name string) int {
	for i := range t.entries {
		e := &t.entries[i]
		if len(e.name) == len(name) && e.name == name {
			return i
		}
	}
	return -1
}

// Get returns the value bound to name, or an unknown-identifier error.
func (t *Table) Get(name string) (value.Value, error) {
	if i := t.find(name); i >= 0 {
		return t.entries[i].val, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "Get", "undefined identifier %s", name)
}

// GetOrNull never fails; unknown names read as the NULL singleton.
func (t *Table) GetOrNull(name string) value.Value {
	if i := t.find(name); i >= 0 {
		return t.entries[i].val
	}
	return value.StaticNull
}

// Defined reports whether name is bound.
func (t *Table) Defined(name string) bool { return t.find(name) >= 0 }

// IsConstant reports whether name is bound as a constant.
func (t *Table) IsConstant(name string) bool {
	i := t.find(name)
	return i >= 0 && t.entries[i].constant
}

// Names returns the bound names, in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.entries))
	for i := range t.entries {
		out[i] = t.entries[i].name
	}
	return out
}

// prepare applies the ownership discipline before a value is installed:
// a value some other slot already owns is copied so the table owns its own
// instance, and an invisible value is copied so visibility does not leak
// into the table.
func prepare(v value.Value) value.Value {
	if v.InSymbolTable() && !v.ExternallyOwned() {
		v = v.Copy()
	} else if v.Invisible() {
		v = v.Copy()
	}
	if !v.ExternallyOwned() {
		v.SetInSymbolTable(true)
	}
	return v
}

// SetVariable binds name to v, replacing any previous variable binding.
// Rebinding a constant is an invariant error.
func (t *Table) SetVariable(name string, v value.Value) error {
	if i := t.find(name); i >= 0 {
		if t.entries[i].constant {
			return core.NoposErrf(core.ErrInvariant, "SetVariable", "identifier %s is a constant", name)
		}
		t.entries[i].val = prepare(v)
		return nil
	}
	t.grow()
	t.entries = append(t.entries, entry{name: name, val: prepare(v)})
	return nil
}

// SetConstant binds a previously-unused name as a constant.
func (t *Table) SetConstant(name string, v value.Value) error {
	if t.find(name) >= 0 {
		return core.NoposErrf(core.ErrInvariant, "SetConstant", "identifier %s is already defined", name)
	}
	t.grow()
	t.entries = append(t.entries, entry{name: name, val: prepare(v), constant: true})
	return nil
}

// Remove unbinds name. The vacated slot is filled by swapping in the last
// entry, so table order is not preserved.
func (t *Table) Remove(name string) error {
	i := t.find(name)
	if i < 0 {
		return core.NoposErrf(core.ErrResolve, "Remove", "undefined identifier %s", name)
	}
	last := len(t.entries) - 1
	t.entries[i] = t.entries[last]
	t.entries[last] = entry{}
	t.entries = t.entries[:last]
	return nil
}

// InstallPrebuiltConstant inserts a pre-allocated {name, value} pair with
// zero copying. The value must be externally owned, in-table, and visible;
// the name must be unused.
func (t *Table) InstallPrebuiltConstant(name string, v value.Value) error {
	if !v.ExternallyOwned() || !v.InSymbolTable() || v.Invisible() {
		return core.NoposErrf(core.ErrInvariant, "InstallPrebuiltConstant",
			"prebuilt value for %s must be externally owned, in-table, and visible", name)
	}
	if t.find(name) >= 0 {
		return core.NoposErrf(core.ErrInvariant, "InstallPrebuiltConstant",
			"identifier %s is already defined", name)
	}
	t.grow()
	t.entries = append(t.entries, entry{name: name, val: v, constant: true})
	return nil
}

// RemoveAllVariables drops every non-constant binding, letting one table be
// reused across sequential evaluations.
func (t *Table) RemoveAllVariables() {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.constant {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = entry{}
	}
	t.entries = kept
}

// grow doubles the backing storage when full, mirroring the inline-buffer
// promotion of the original design.
func (t *Table) grow() {
	if len(t.entries) < cap(t.entries) {
		return
	}
	newCap := cap(t.entries) * 2
	if newCap == 0 {
		newCap = initialCapacity
	}
	if newCap > math.MaxInt/2 {
		return
	}
	grown := make([]entry, len(t.entries), newCap)
	copy(grown, t.entries)
	t.entries = grown
}
