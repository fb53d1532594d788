package facet

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var errorType = reflect.TypeFor[error]()

// methodKey identifies one forwarding lookup. Resolution depends only on the
// base type, so results are shared by all views of all base objects.
type methodKey struct {
	base  reflect.Type
	name  string
	shape reflect.Type
}

// methodIndex caches resolved method indexes by methodKey; -1 means the base
// type has no matching method.
var methodIndex sync.Map // key: methodKey, val: int

// resolveMethod finds the method of base named name whose signature is shape.
func resolveMethod(base reflect.Value, name string, shape reflect.Type) (reflect.Value, bool) {
	key := methodKey{base: base.Type(), name: name, shape: shape}
	if idx, ok := methodIndex.Load(key); ok {
		if idx.(int) < 0 {
			return reflect.Value{}, false
		}
		return base.Method(idx.(int)), true
	}

	idx := -1
	if m, ok := key.base.MethodByName(name); ok && base.Method(m.Index).Type() == shape {
		idx = m.Index
	}
	methodIndex.Store(key, idx)
	if idx < 0 {
		return reflect.Value{}, false
	}
	return base.Method(idx), true
}

// bindForward returns the handler that forwards op to the base object. A base
// without a matching method yields a handler that always fails, so the
// mismatch surfaces when the operation is called rather than when the view
// is built.
func bindForward(base any, capability, op string, shape reflect.Type) handler {
	unsupported := func(reason string) handler {
		return func([]any) (any, error) {
			return nil, fmt.Errorf("%w: %s.%s: %s",
				types.ErrUnsupportedInvocation, capability, op, reason)
		}
	}
	if base == nil {
		return unsupported("no base object to forward to")
	}
	method, ok := resolveMethod(reflect.ValueOf(base), op, shape)
	if !ok {
		return unsupported(fmt.Sprintf("base %T has no method %s %s", base, op, shape))
	}
	return func(args []any) (any, error) {
		in, err := forwardArgs(shape, args)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", capability, op, err)
		}
		return forwardResults(shape, method.Call(in))
	}
}

// forwardArgs converts call arguments to the parameter types of shape. A nil
// argument becomes the zero value of its parameter.
func forwardArgs(shape reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := shape.NumIn()
	if shape.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", types.ErrInvalidArgument, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", types.ErrInvalidArgument, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if i < fixed {
			pt = shape.In(i)
		} else {
			pt = shape.In(fixed).Elem()
		}
		if arg == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("%w: argument %d is %s, want %s", types.ErrInvalidArgument, i, av.Type(), pt)
		}
		in[i] = av
	}
	return in, nil
}

// forwardResults folds method results into Invoke's (any, error) form. A
// trailing error result becomes the error; a single remaining result is
// returned as is and several are returned as []any.
func forwardResults(shape reflect.Type, out []reflect.Value) (any, error) {
	var err error
	n := len(out)
	if n > 0 && shape.Out(n-1) == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		n--
	}
	switch n {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		vals := make([]any, n)
		for i := range n {
			vals[i] = out[i].Interface()
		}
		return vals, err
	}
}
