package facet

import (
	"fmt"
	"maps"
	"reflect"
	"sort"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Reserved operation names. Every capability answers them; builders reject
// attempts to declare them as ordinary operations.
const (
	OpFacetData       = "FacetData"
	OpFacetIdentifier = "FacetIdentifier"
	OpSetupFacet      = "SetupFacet"
)

var reservedOps = map[string]bool{
	OpFacetData:       true,
	OpFacetIdentifier: true,
	OpSetupFacet:      true,
}

// Method is default capability logic. The view it runs on is passed as an
// explicit receiver, so the method may read FacetData or invoke any other
// operation of the same view.
type Method[D any] func(v *View[D], args ...any) (any, error)

// route tells a view where an operation is served from.
type route int

const (
	routeDefault route = iota + 1
	routeForward
)

// operation is one entry of a capability's operation table.
type operation[D any] struct {
	name   string
	route  route
	method Method[D]    // routeDefault only
	shape  reflect.Type // routeForward only: func type the base method must match
}

// Capability describes a facet type: its name, whether it is unique per base
// object, and the operation table views are built from. A Capability is
// immutable once built and safe for concurrent use.
type Capability[D any] struct {
	name     string
	unique   bool
	ops      map[string]operation[D]
	identify func(v *View[D]) (string, error)
	setup    func(initial D) (D, error)
}

// Name returns the capability type name used as the first half of every key.
func (c *Capability[D]) Name() string { return c.name }

// Unique reports whether the capability is limited to one instance per base
// object.
func (c *Capability[D]) Unique() bool { return c.unique }

// Operations returns the declared operation names in sorted order, excluding
// the reserved ones.
func (c *Capability[D]) Operations() []string {
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declares reports whether op is served by views of this capability.
func (c *Capability[D]) Declares(op string) bool {
	if reservedOps[op] {
		return true
	}
	_, ok := c.ops[op]
	return ok
}

// Defaulted reports whether op has default logic. FacetIdentifier is
// defaulted for unique capabilities and for those that set Identify.
func (c *Capability[D]) Defaulted(op string) bool {
	if op == OpFacetIdentifier {
		return c.unique || c.identify != nil
	}
	o, ok := c.ops[op]
	return ok && o.route == routeDefault
}

// setupFacet runs the constructor-equivalent over freshly initialized data.
func (c *Capability[D]) setupFacet(initial D) (D, error) {
	if c.setup == nil {
		return initial, nil
	}
	data, err := c.setup(initial)
	if err != nil {
		return data, fmt.Errorf("setup %s: %w", c.name, err)
	}
	return data, nil
}

// Builder assembles a Capability. Errors are collected and reported by Build.
type Builder[D any] struct {
	c   *Capability[D]
	err error
}

// General starts a capability whose instances are told apart by an
// identifier, so one base object may carry several of them.
func General[D any](name string) *Builder[D] {
	return newBuilder[D](name, false)
}

// Unique starts a capability whose identifier is its own name, which limits
// it to one instance per base object.
func Unique[D any](name string) *Builder[D] {
	return newBuilder[D](name, true)
}

func newBuilder[D any](name string, unique bool) *Builder[D] {
	b := &Builder[D]{c: &Capability[D]{
		name:   name,
		unique: unique,
		ops:    make(map[string]operation[D]),
	}}
	if name == "" {
		b.fail("empty capability name")
	}
	return b
}

func (b *Builder[D]) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf("%w: %s", types.ErrInvalidCapability, fmt.Sprintf(format, args...))
	}
}

func (b *Builder[D]) declare(op string) bool {
	switch {
	case op == "":
		b.fail("%s: empty operation name", b.c.name)
	case reservedOps[op]:
		b.fail("%s: %s is reserved", b.c.name, op)
	default:
		if _, dup := b.c.ops[op]; dup {
			b.fail("%s: %s declared twice", b.c.name, op)
			return false
		}
		return true
	}
	return false
}

// Default declares op with default logic m.
func (b *Builder[D]) Default(op string, m Method[D]) *Builder[D] {
	if m == nil {
		b.fail("%s: nil default for %s", b.c.name, op)
		return b
	}
	if b.declare(op) {
		b.c.ops[op] = operation[D]{name: op, route: routeDefault, method: m}
	}
	return b
}

// Forward declares op without default logic. Operational views forward it to
// the base object's method of the same name whose signature equals that of
// prototype, a function value such as func(string) {} or (func() string)(nil).
func (b *Builder[D]) Forward(op string, prototype any) *Builder[D] {
	shape := reflect.TypeOf(prototype)
	if shape == nil || shape.Kind() != reflect.Func {
		b.fail("%s: prototype for %s is %T, not a func", b.c.name, op, prototype)
		return b
	}
	if b.declare(op) {
		b.c.ops[op] = operation[D]{name: op, route: routeForward, shape: shape}
	}
	return b
}

// Identify sets the default logic of FacetIdentifier. It runs on a setup view
// before the facet is committed, so it may read FacetData and call other
// defaults but not forwarded operations. Unique capabilities cannot override
// their identity.
func (b *Builder[D]) Identify(fn func(v *View[D]) (string, error)) *Builder[D] {
	switch {
	case fn == nil:
		b.fail("%s: nil identity function", b.c.name)
	case b.c.unique:
		b.fail("%s: unique capabilities are identified by name", b.c.name)
	default:
		b.c.identify = fn
	}
	return b
}

// Setup overrides SetupFacet, which turns initializer output into the data
// that is committed. Rarely needed; use it to normalize or validate.
func (b *Builder[D]) Setup(fn func(initial D) (D, error)) *Builder[D] {
	if fn == nil {
		b.fail("%s: nil setup function", b.c.name)
		return b
	}
	b.c.setup = fn
	return b
}

// Build returns the capability or the first declaration error. The builder
// may keep being used; later declarations do not affect built capabilities.
func (b *Builder[D]) Build() (*Capability[D], error) {
	if b.err != nil {
		return nil, b.err
	}
	c := *b.c
	c.ops = maps.Clone(b.c.ops)
	return &c, nil
}

// MustBuild is like Build but panics on error. It is meant for package-level
// capability variables.
func (b *Builder[D]) MustBuild() *Capability[D] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
