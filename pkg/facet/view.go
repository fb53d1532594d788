package facet

import (
	"fmt"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Mode is the phase of a view's life.
type Mode int

const (
	// SetupMode views exist before commit. They serve FacetData from the
	// initial data and run defaults, and refuse everything else.
	SetupMode Mode = iota + 1
	// OperationalMode views are bound to a container and its backend and
	// serve the whole capability contract.
	OperationalMode
)

func (m Mode) String() string {
	switch m {
	case SetupMode:
		return "setup"
	case OperationalMode:
		return "operational"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// handler serves one operation of one view.
type handler func(args []any) (any, error)

// View is a runtime object conforming to a capability. It owns no data: every
// call goes through a dispatch table built when the view is constructed, which
// routes it to the backend, to default logic run with the view as receiver, or
// to the base object. Views are cheap and can be rebuilt at any time; two
// views for the same key behave identically.
type View[D any] struct {
	capability *Capability[D]
	mode       Mode
	key        types.Key
	owner      *Faceted[D]
	data       func() (D, error)
	table      map[string]handler
}

// newSetupView builds a view over initial data that is not yet committed.
// Forwarded operations fail because the base object and the backend hold no
// state for this facet yet.
func newSetupView[D any](c *Capability[D], initial D) *View[D] {
	v := &View[D]{
		capability: c,
		mode:       SetupMode,
		key:        types.Key{FacetType: c.name},
		data:       func() (D, error) { return initial, nil },
	}
	v.table = make(map[string]handler, len(c.ops))
	for name, op := range c.ops {
		switch op.route {
		case routeDefault:
			v.table[name] = v.bindDefault(op.method)
		default:
			v.table[name] = v.refuse(name, "only default operations may run before the facet is committed")
		}
	}
	return v
}

// newOperationalView builds a view bound to a container. It does not touch
// the backend; data is read on each FacetData call.
func newOperationalView[D any](f *Faceted[D], c *Capability[D], key types.Key) *View[D] {
	v := &View[D]{
		capability: c,
		mode:       OperationalMode,
		key:        key,
		owner:      f,
	}
	v.data = func() (D, error) {
		data, ok, err := f.backend.GetFacetData(key.FacetType, key.FacetID)
		if err != nil {
			return data, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			return data, fmt.Errorf("%w: %s", types.ErrMissingFacetData, key)
		}
		return data, nil
	}
	v.table = make(map[string]handler, len(c.ops))
	for name, op := range c.ops {
		switch op.route {
		case routeDefault:
			v.table[name] = v.bindDefault(op.method)
		case routeForward:
			v.table[name] = bindForward(f.base, c.name, name, op.shape)
		}
	}
	return v
}

func (v *View[D]) bindDefault(m Method[D]) handler {
	return func(args []any) (any, error) {
		return m(v, args...)
	}
}

func (v *View[D]) refuse(op, reason string) handler {
	return func([]any) (any, error) {
		return nil, fmt.Errorf("%w: %s.%s in %s mode: %s",
			types.ErrUnsupportedInvocation, v.capability.name, op, v.mode, reason)
	}
}

// Capability returns the capability the view conforms to.
func (v *View[D]) Capability() *Capability[D] { return v.capability }

// Mode returns the view's phase.
func (v *View[D]) Mode() Mode { return v.mode }

// Key returns the facet's identity. In setup mode the identifier is empty
// because it has not been computed yet.
func (v *View[D]) Key() types.Key { return v.key }

// FacetData is the data accessor. Setup views return the initial data;
// operational views read the backend and report ErrMissingFacetData when the
// entry is gone.
func (v *View[D]) FacetData() (D, error) {
	return v.data()
}

// FacetIdentifier computes the facet's identity. Unique capabilities answer
// with their name. Operational views answer with the identifier they are
// bound to, which stays authoritative even if the data it was derived from
// has since changed.
func (v *View[D]) FacetIdentifier() (string, error) {
	c := v.capability
	switch {
	case c.unique:
		return c.name, nil
	case v.mode == OperationalMode:
		return v.key.FacetID, nil
	case c.identify != nil:
		id, err := c.identify(v)
		if err != nil {
			return "", fmt.Errorf("identify %s: %w", c.name, err)
		}
		if id == "" {
			return "", fmt.Errorf("%w: %s computed an empty identifier", types.ErrInvalidKey, c.name)
		}
		return id, nil
	default:
		return "", fmt.Errorf("%w: %s.%s has no default; attach with an explicit identifier",
			types.ErrUnsupportedInvocation, c.name, OpFacetIdentifier)
	}
}

// StoreFacetData replaces the facet's data in the backend. It needs an
// operational view and a backend implementing types.Updater.
func (v *View[D]) StoreFacetData(data D) error {
	if v.mode != OperationalMode {
		_, err := v.refuse("StoreFacetData", "nothing is committed yet")(nil)
		return err
	}
	u, ok := v.owner.backend.(types.Updater[D])
	if !ok {
		return fmt.Errorf("%w: update %s", types.ErrNotSupported, v.key)
	}
	if err := u.SetFacetData(v.key.FacetType, v.key.FacetID, data); err != nil {
		return fmt.Errorf("update %s: %w", v.key, err)
	}
	return nil
}

// Invoke calls an operation by name. The reserved operations are answered
// directly: SetupFacet runs the capability's setup over its argument, or over
// the view's data when called without one, and returns the result without
// storing it. Anything the capability does not declare fails with
// ErrUnsupportedInvocation.
func (v *View[D]) Invoke(op string, args ...any) (any, error) {
	switch op {
	case OpFacetData:
		return v.FacetData()
	case OpFacetIdentifier:
		return v.FacetIdentifier()
	case OpSetupFacet:
		return v.setupFacet(args)
	}
	h, ok := v.table[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not declare %s",
			types.ErrUnsupportedInvocation, v.capability.name, op)
	}
	return h(args)
}

func (v *View[D]) setupFacet(args []any) (D, error) {
	if len(args) > 0 {
		initial, err := Arg[D](args, 0)
		if err != nil {
			var zero D
			return zero, err
		}
		return v.capability.setupFacet(initial)
	}
	data, err := v.FacetData()
	if err != nil {
		return data, err
	}
	return v.capability.setupFacet(data)
}

// String renders the view for logs.
func (v *View[D]) String() string {
	return fmt.Sprintf("View{%s, %s}", v.key, v.mode)
}
