package gene

import (
	"io"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/signature"
	"github.com/oxhq/driftsim/internal/value"
)

// GenomicElementTypeClass is the script-visible class of genomic element
// types.
const GenomicElementTypeClass = "GenomicElementType"

func init() {
	signature.Default.MustRegisterMethods(GenomicElementTypeClass)
}

// GenomicElementType is a category of genomic element: the mutation types
// that can arise in it and their relative proportions.
type GenomicElementType struct {
	ID         string // conventionally "gN"
	MutTypeIDs []string
	Fractions  []float64
}

// NewGenomicElementType validates that each mutation type has a fraction.
func NewGenomicElementType(id string, mutTypeIDs []string, fractions []float64) (*GenomicElementType, error) {
	if len(mutTypeIDs) != len(fractions) {
		return nil, core.NoposErrf(core.ErrInvariant, "GenomicElementType",
			"%s: %d mutation types but %d fractions", id, len(mutTypeIDs), len(fractions))
	}
	if len(mutTypeIDs) == 0 {
		return nil, core.NoposErrf(core.ErrInvariant, "GenomicElementType",
			"%s: at least one mutation type is required", id)
	}
	return &GenomicElementType{ID: id, MutTypeIDs: mutTypeIDs, Fractions: fractions}, nil
}

// GenomicElementTypeElement proxies a genomic element type; externally
// managed and read-only.
type GenomicElementTypeElement struct {
	value.ExternalElement
	getype *GenomicElementType
}

// NewGenomicElementTypeElement wraps a genomic element type.
func NewGenomicElementTypeElement(getype *GenomicElementType) *GenomicElementTypeElement {
	return &GenomicElementTypeElement{getype: getype}
}

func (e *GenomicElementTypeElement) ClassName() string { return GenomicElementTypeClass }

func (e *GenomicElementTypeElement) ReadOnlyMembers() []string {
	return []string{"id", "mutationTypes", "mutationFractions"}
}

func (e *GenomicElementTypeElement) ReadWriteMembers() []string { return nil }

func (e *GenomicElementTypeElement) GetMember(name string) (value.Value, error) {
	switch name {
	case "id":
		return value.NewString(e.getype.ID), nil
	case "mutationTypes":
		return value.NewString(e.getype.MutTypeIDs...), nil
	case "mutationFractions":
		return value.NewFloat(e.getype.Fractions...), nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "GetMember", "unknown member %s on class %s", name, GenomicElementTypeClass)
}

func (e *GenomicElementTypeElement) SetMember(name string, v value.Value) error {
	return core.NoposErrf(core.ErrResolve, "SetMember",
		"member %s on class %s is not writable", name, GenomicElementTypeClass)
}

func (e *GenomicElementTypeElement) ExecuteMethod(name string, args []value.Value, out io.Writer) (value.Value, error) {
	return nil, core.NoposErrf(core.ErrResolve, "ExecuteMethod", "unknown method %s() on class %s", name, GenomicElementTypeClass)
}
