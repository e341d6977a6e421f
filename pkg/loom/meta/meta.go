// Package meta is the injection-metadata side of the container: a
// process-wide registry keyed by type identity that records, per constructible
// type, the token it registers under, its constructor function, and its
// constructor-parameter and field injection points.
//
// The container only ever reads this registry. It is populated explicitly
// through the Describe builder (or the inject struct tags scanned during
// Register), typically from an init function or generated bootstrap code:
//
//	var LoggerToken = loom.NewKey("logger")
//
//	meta.Describe((*UserService)(nil)).
//		Constructor(NewUserService).
//		Param(0, LoggerToken).
//		MustRegister()
package meta

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/loom-di/loom/internal/registry"
)

// ParamInjection names the token injected at one constructor parameter
// position. Optional parameters receive the zero value when the token has no
// provider.
type ParamInjection struct {
	Index    int
	Token    any
	Optional bool
}

// FieldInjection names the token injected into one struct field after
// construction. Optional fields are left untouched when the token has no
// provider.
type FieldInjection struct {
	Field    string
	Token    any
	Optional bool
}

// Constructor is a parsed constructor function. Supported signatures are
// func(deps...) T and func(deps...) (T, error).
type Constructor struct {
	fn         reflect.Value
	params     []reflect.Type
	result     reflect.Type
	returnsErr bool
}

// parseConstructor validates fn and extracts its parameter and result types.
// resultType restricts what the constructor may produce; pass nil to accept
// any result.
func parseConstructor(fn any, resultType reflect.Type) (*Constructor, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return T or (T, error), got %d return values", numOut)
	}

	returnsErr := false
	if numOut == 2 {
		errorInterface := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errorInterface) {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsErr = true
	}

	result := fnType.Out(0)
	if resultType != nil && !result.AssignableTo(resultType) {
		return nil, fmt.Errorf("constructor returns %v, which is not assignable to %v", result, resultType)
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}

	return &Constructor{
		fn:         fnValue,
		params:     params,
		result:     result,
		returnsErr: returnsErr,
	}, nil
}

// NumParams returns the constructor's arity.
func (c *Constructor) NumParams() int {
	return len(c.params)
}

// ParamType returns the static type of parameter i.
func (c *Constructor) ParamType(i int) reflect.Type {
	return c.params[i]
}

// Call invokes the constructor with the given arguments.
func (c *Constructor) Call(args []reflect.Value) (any, error) {
	results := c.fn.Call(args)
	if c.returnsErr && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// TypeInfo is the complete injection metadata recorded for one constructible
// type. Token is nil when the type registers under itself.
type TypeInfo struct {
	Type   reflect.Type
	Token  any
	Ctor   *Constructor
	Params []ParamInjection
	Fields []FieldInjection
}

// ParamFor returns the explicit injection record for parameter position i.
func (info *TypeInfo) ParamFor(i int) (ParamInjection, bool) {
	for _, p := range info.Params {
		if p.Index == i {
			return p, true
		}
	}
	return ParamInjection{}, false
}

// Registry is a process-wide table of TypeInfo records keyed by type identity.
// It is safe for concurrent use.
type Registry struct {
	types *registry.Registry[reflect.Type, *TypeInfo]
}

// NewRegistry creates an empty metadata registry.
func NewRegistry() *Registry {
	return &Registry{
		types: registry.New[reflect.Type, *TypeInfo]("metadata", "type"),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the global metadata registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register stores info, replacing any previous record for the same type.
func (r *Registry) Register(info *TypeInfo) error {
	if info == nil || info.Type == nil {
		return fmt.Errorf("metadata: type info cannot be nil")
	}
	return r.types.Register(info.Type, info)
}

// Lookup retrieves the metadata recorded for t.
func (r *Registry) Lookup(t reflect.Type) (*TypeInfo, bool) {
	return r.types.Get(t)
}

// Has reports whether t has a metadata record.
func (r *Registry) Has(t reflect.Type) bool {
	return r.types.Has(t)
}

// Types returns all described types, in no particular order.
func (r *Registry) Types() []reflect.Type {
	return r.types.Keys()
}

// Clear removes all records. Intended for test teardown.
func (r *Registry) Clear() {
	r.types.Clear()
}
