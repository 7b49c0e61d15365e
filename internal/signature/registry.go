package signature

import (
	"io"
	"sort"
	"sync"

	"github.com/oxhq/driftsim/internal/core"
	"github.com/oxhq/driftsim/internal/value"
)

// Impl is the native implementation of a built-in function. Console output
// goes to out; the returned value must satisfy the registered signature.
type Impl func(args []value.Value, out io.Writer) (value.Value, error)

// Function pairs a signature with its implementation.
type Function struct {
	Sig  *Signature
	Impl Impl
}

// Registry holds the built-in function table and the per-class method
// tables. It is built once at warm-up and safe for concurrent readers.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
	methods   map[string]map[string]*Signature // class -> method name -> signature
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]*Function),
		methods:   make(map[string]map[string]*Signature),
	}
}

// Default is the process-wide registry host classes register into at init.
var Default = NewRegistry()

// RegisterFunction adds a built-in function. Re-registering a name is an
// invariant error; signatures never change after registration.
func (r *Registry) RegisterFunction(sig *Signature, impl Impl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[sig.Name]; exists {
		return core.NoposErrf(core.ErrInvariant, "RegisterFunction",
			"function %s is already registered", sig.Name)
	}
	r.functions[sig.Name] = &Function{Sig: sig, Impl: impl}
	return nil
}

// MustRegisterFunction is RegisterFunction for warm-up paths where a
// duplicate is a programmer error.
func (r *Registry) MustRegisterFunction(sig *Signature, impl Impl) {
	if err := r.RegisterFunction(sig, impl); err != nil {
		panic(err)
	}
}

// LookupFunction resolves a built-in by name.
func (r *Registry) LookupFunction(name string) (*Function, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.functions[name]; ok {
		return f, nil
	}
	return nil, core.NoposErrf(core.ErrResolve, "LookupFunction", "unknown function %s()", name)
}

// FunctionNames returns the registered built-in names, sorted.
func (r *Registry) FunctionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterMethods installs the method table for a host object class.
func (r *Registry) RegisterMethods(class string, sigs ...*Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	table := r.methods[class]
	if table == nil {
		table = make(map[string]*Signature)
		r.methods[class] = table
	}
	for _, sig := range sigs {
		if _, exists := table[sig.Name]; exists {
			return core.NoposErrf(core.ErrInvariant, "RegisterMethods",
				"method %s.%s is already registered", class, sig.Name)
		}
		table[sig.Name] = sig
	}
	return nil
}

// MustRegisterMethods is RegisterMethods for init-time class registration.
func (r *Registry) MustRegisterMethods(class string, sigs ...*Signature) {
	if err := r.RegisterMethods(class, sigs...); err != nil {
		panic(err)
	}
}

// Method resolves a method signature on a class.
func (r *Registry) Method(class, name string) (*Signature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if table, ok := r.methods[class]; ok {
		if sig, ok := table[name]; ok {
			return sig, nil
		}
	}
	return nil, core.NoposErrf(core.ErrResolve, "Method", "unknown method %s() on class %s", name, class)
}

// MethodNames returns the method names registered for a class, sorted.
func (r *Registry) MethodNames(class string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table := r.methods[class]
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
