package facet

import (
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"

	"github.com/mesh-intelligence/facets/pkg/types"
)

// Call invokes op on v and asserts its result to R. A nil result yields R's
// zero value.
//
//	name, err := facet.Call[string](view, "Name")
func Call[R any, D any](v *View[D], op string, args ...any) (R, error) {
	var zero R
	out, err := v.Invoke(op, args...)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	r, ok := out.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s.%s returned %T, want %T",
			types.ErrUnsupportedInvocation, v.capability.name, op, out, zero)
	}
	return r, nil
}

// Do invokes op on v for its effect, discarding any result.
func Do[D any](v *View[D], op string, args ...any) error {
	_, err := v.Invoke(op, args...)
	return err
}

// Arg returns args[i] as T. Default methods use it to read their arguments.
func Arg[T any](args []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, fmt.Errorf("%w: missing argument %d", types.ErrInvalidArgument, i)
	}
	t, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%w: argument %d is %T, want %T", types.ErrInvalidArgument, i, args[i], zero)
	}
	return t, nil
}

// typeNames caches NameOf results by type.
var typeNames sync.Map // key: reflect.Type, val: string

// NameOf derives a stable, globally unique capability name from a Go type:
// its full import path and type name, pointers unwrapped and generic
// instantiation stripped. Unnamed types fall back to their string form.
//
//	facet.NameOf[Driver]() // "github.com/mesh-intelligence/facets/internal/people.Driver"
func NameOf[T any]() string {
	t := reflect.TypeFor[T]()
	if v, ok := typeNames.Load(t); ok {
		return v.(string)
	}
	base := t
	for base.Kind() == reflect.Pointer && base.Name() == "" {
		base = base.Elem()
	}
	name := base.String()
	if base.Name() != "" && base.PkgPath() != "" {
		name = base.PkgPath() + "." + stripTypeParams(base.Name())
	}
	typeNames.Store(t, name)
	return name
}

// ShortName trims a capability name produced by NameOf to "pkg.Type".
func ShortName(name string) string {
	dir, file := path.Split(name)
	if dir == "" {
		return name
	}
	return file
}

// stripTypeParams removes a generic instantiation suffix: "T[int]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
