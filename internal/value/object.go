package value

import (
	"fmt"
	"io"

	"github.com/oxhq/driftsim/internal/core"
)

// Element is the protocol a host class implements so that its instances
// can travel through the script layer inside Object values. Elements come
// in two lifetimes: externally-managed elements belong to the simulator
// kernel and ignore retain/release; internal elements are created by
// script and carry a real reference count.
type Element interface {
	ClassName() string
	ReadOnlyMembers() []string
	ReadWriteMembers() []string
	GetMember(name string) (Value, error)
	SetMember(name string, v Value) error
	// ExecuteMethod runs a method by name. The writer receives any
	// console output the method produces.
	ExecuteMethod(name string, args []Value, out io.Writer) (Value, error)

	ExternallyManaged() bool
	Retain()
	Release()
}

// ExternalElement is embedded by kernel-owned host classes; retain and
// release are no-ops because the kernel governs the element's lifetime.
type ExternalElement struct{}

func (ExternalElement) ExternallyManaged() bool { return true }
func (ExternalElement) Retain()                 {}
func (ExternalElement) Release()                {}

// InternalElement is embedded by script-created host classes. The count
// starts at one for the creating reference; Release decrements and the
// element is dead once the count reaches zero (collection is the runtime's
// job, but the count is still the ground truth for ownership tests).
type InternalElement struct {
	refs int32
}

func NewInternalElement() InternalElement { return InternalElement{refs: 1} }

func (e *InternalElement) ExternallyManaged() bool { return false }
func (e *InternalElement) Retain()                 { e.refs++ }
func (e *InternalElement) Release() {
	if e.refs <= 0 {
		panic(core.NoposErrf(core.ErrInvariant, "Release", "release of dead element"))
	}
	e.refs--
}

// Refs exposes the live count for invariant checks.
func (e *InternalElement) Refs() int32 { return e.refs }

// Object is a vector of references to host elements. All elements of one
// Object value share a class.
type Object struct {
	flags
	class    string
	Elements []Element
}

// NewObject creates an object vector; all elements must share a class name.
func NewObject(elements ...Element) (*Object, error) {
	o := &Object{}
	for _, el := range elements {
		if err := o.PushElement(el); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MustObject is NewObject for callers that know the elements are uniform.
func MustObject(elements ...Element) *Object {
	o, err := NewObject(elements...)
	if err != nil {
		panic(err)
	}
	return o
}

// Class returns the shared element class name, or "" for an empty object.
func (v *Object) Class() string { return v.class }

func (v *Object) Type() Type { return TypeObject }
func (v *Object) Count() int { return len(v.Elements) }

func (v *Object) Print(w io.Writer) {
	if len(v.Elements) == 0 {
		io.WriteString(w, "object(0)")
		return
	}
	for i, el := range v.Elements {
		if i > 0 {
			io.WriteString(w, " ")
		}
		fmt.Fprintf(w, "<object: %s>", el.ClassName())
	}
}

func (v *Object) GetAtIndex(i int) (Value, error) {
	if i < 0 || i >= len(v.Elements) {
		return nil, rangeErr("GetAtIndex", i, len(v.Elements))
	}
	return NewObject(v.Elements[i])
}

func (v *Object) SetAtIndex(i int, x Value) error {
	if i < 0 || i >= len(v.Elements) {
		return rangeErr("SetAtIndex", i, len(v.Elements))
	}
	xo, ok := x.(*Object)
	if !ok || xo.Count() != 1 {
		return core.NoposErrf(core.ErrType, "SetAtIndex", "object element assignment requires a singleton object")
	}
	el := xo.Elements[0]
	if v.class != "" && el.ClassName() != v.class {
		return core.NoposErrf(core.ErrType, "SetAtIndex",
			"object of class %s cannot hold element of class %s", v.class, el.ClassName())
	}
	el.Retain()
	v.Elements[i].Release()
	v.Elements[i] = el
	return nil
}

// Copy deep-copies the vector of references, retaining each element.
func (v *Object) Copy() Value {
	out := &Object{class: v.class}
	out.Elements = make([]Element, len(v.Elements))
	for i, el := range v.Elements {
		el.Retain()
		out.Elements[i] = el
	}
	return out
}

func (v *Object) NewMatchingType() Value { return &Object{class: v.class} }

func (v *Object) PushFromIndex(src Value, i int) error {
	so, ok := src.(*Object)
	if !ok {
		return core.NoposErrf(core.ErrType, "PushFromIndex", "cannot push %s onto object", src.Type())
	}
	el, err := so.ElementAt(i)
	if err != nil {
		return err
	}
	return v.PushElement(el)
}

// ElementAt returns the element at index i.
func (v *Object) ElementAt(i int) (Element, error) {
	if i < 0 || i >= len(v.Elements) {
		return nil, rangeErr("ElementAt", i, len(v.Elements))
	}
	return v.Elements[i], nil
}

// PushElement appends an element, enforcing the single-class invariant.
func (v *Object) PushElement(el Element) error {
	if v.class == "" {
		v.class = el.ClassName()
	} else if el.ClassName() != v.class {
		return core.NoposErrf(core.ErrType, "PushElement",
			"object of class %s cannot hold element of class %s", v.class, el.ClassName())
	}
	v.Elements = append(v.Elements, el)
	return nil
}

func (v *Object) LogicalAt(i int) (bool, error)  { return false, coerceErr("LogicalAt", TypeObject) }
func (v *Object) IntAt(i int) (int64, error)     { return 0, coerceErr("IntAt", TypeObject) }
func (v *Object) FloatAt(i int) (float64, error) { return 0, coerceErr("FloatAt", TypeObject) }
func (v *Object) StringAt(i int) (string, error) { return "", coerceErr("StringAt", TypeObject) }
