package loom

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/loom-di/loom/pkg/loom/meta"
)

// Initializer is implemented by instances that need a setup step. Init runs
// once per construction, after field injection has completed.
type Initializer interface {
	Init() error
}

// Get resolves a token to its instance. Singleton results are memoized: two
// sequential calls return the identical instance unless the provider was
// replaced in between.
//
// It fails with *InvalidTokenError for a value that is not a token, with
// *NoProviderError for an unregistered token, and with
// *CircularDependencyError when resolution re-enters a token that is already
// being resolved. Dependency failures propagate unchanged.
func (c *Container) Get(token any) (any, error) {
	return c.get(token)
}

// MustGet is Get panicking on error.
func (c *Container) MustGet(token any) any {
	instance, err := c.get(token)
	if err != nil {
		panic(fmt.Sprintf("loom: %v", err))
	}
	return instance
}

func (c *Container) get(token any) (any, error) {
	canonical, err := c.canonicalToken(token)
	if err != nil {
		return nil, err
	}

	if instance, ok := c.instances[canonical]; ok {
		return instance, nil
	}

	p, ok := c.providers[canonical]
	if !ok {
		return nil, &NoProviderError{Token: describeToken(canonical)}
	}

	if err := c.enter(canonical); err != nil {
		return nil, err
	}
	defer c.leave(canonical)

	switch p.kind {
	case kindValue:
		// The stored value is its own cache entry.
		return p.value, nil
	case kindFactory:
		instance, err := c.invokeFactory(canonical, p)
		if err != nil {
			return nil, err
		}
		c.memoize(canonical, instance)
		return instance, nil
	default:
		return c.construct(p.info, canonical)
	}
}

// Construct builds a fresh instance of a constructible prototype, bypassing
// the registry and the instance cache entirely. Two sequential calls return
// two distinct instances.
func (c *Container) Construct(prototype any) (any, error) {
	typ, ok := constructibleType(prototype)
	if !ok {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("%v is not a constructible type (pointer to struct)", prototype),
		}
	}
	info, found := c.metadata.Lookup(typ)
	if !found {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("constructible type %v has no injection metadata; describe it with meta.Describe", typ),
		}
	}
	return c.constructFresh(info)
}

// constructFresh builds an unmemoized instance, guarding re-entry by type so
// ad-hoc constructor cycles fail fast instead of exhausting the stack.
func (c *Container) constructFresh(info *meta.TypeInfo) (any, error) {
	if err := c.enter(info.Type); err != nil {
		return nil, err
	}
	defer c.leave(info.Type)
	return c.construct(info, nil)
}

// enter marks key as currently resolving, failing when it already is.
func (c *Container) enter(key any) error {
	if _, busy := c.resolving[key]; busy {
		path := append(append([]string(nil), c.path...), describeToken(key))
		return &CircularDependencyError{Path: path}
	}
	c.resolving[key] = struct{}{}
	c.path = append(c.path, describeToken(key))
	return nil
}

func (c *Container) leave(key any) {
	delete(c.resolving, key)
	c.path = c.path[:len(c.path)-1]
	if len(c.path) == 0 {
		// The outermost resolution finished; surviving memoizations are final.
		c.pending = c.pending[:0]
	}
}

// memoize caches an instance and records it as part of the in-flight
// resolution, so a failure higher up the chain can roll it back.
func (c *Container) memoize(key any, instance any) {
	c.instances[key] = instance
	c.pending = append(c.pending, key)
}

// rollback forgets every instance memoized since mark. Instances entered
// beneath a failing construction may hold references to the discarded partial
// instance, so the whole subtree goes.
func (c *Container) rollback(mark int) {
	for _, key := range c.pending[mark:] {
		delete(c.instances, key)
	}
	c.pending = c.pending[:mark]
}

// invokeFactory resolves the declared dependency tokens in order and calls
// the factory with them.
func (c *Container) invokeFactory(token any, p *provider) (any, error) {
	fnType := p.fn.Type()
	args := make([]reflect.Value, len(p.deps))
	for i, dep := range p.deps {
		resolved, err := c.get(dep)
		if err != nil {
			return nil, err
		}
		arg, err := conform(resolved, fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("factory for %s, argument %d: %w", describeToken(token), i, err)
		}
		args[i] = arg
	}

	results := p.fn.Call(args)
	if p.rets && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// construct runs the two injection passes for a constructible type: the
// constructor pass produces the instance, then the field pass fills injected
// fields. When memoizeAs is non-nil the instance is cached after the
// constructor returns and before any field resolves, which is what lets a
// cycle expressed purely through field injection terminate. A failing field
// pass or Init rolls back every instance memoized beneath this construction,
// cycle partners included.
func (c *Container) construct(info *meta.TypeInfo, memoizeAs any) (any, error) {
	var instance any
	if info.Ctor != nil {
		args, err := c.constructorArgs(info)
		if err != nil {
			return nil, err
		}
		instance, err = info.Ctor.Call(args)
		if err != nil {
			return nil, fmt.Errorf("constructor for %v: %w", info.Type, err)
		}
	} else {
		instance = reflect.New(info.Type.Elem()).Interface()
	}

	mark := len(c.pending)
	if memoizeAs != nil {
		c.memoize(memoizeAs, instance)
	}

	if err := c.injectFields(info, instance); err != nil {
		c.rollback(mark)
		return nil, err
	}

	if init, ok := instance.(Initializer); ok {
		if err := init.Init(); err != nil {
			c.rollback(mark)
			return nil, fmt.Errorf("init of %v: %w", info.Type, err)
		}
	}

	return instance, nil
}

// constructorArgs resolves one argument per constructor parameter. Explicit
// injection metadata wins; otherwise the static parameter type is resolved by
// token when registered, constructed ad hoc when it is itself constructible,
// and left at its zero value when nothing is known about the position.
func (c *Container) constructorArgs(info *meta.TypeInfo) ([]reflect.Value, error) {
	args := make([]reflect.Value, info.Ctor.NumParams())
	for i := range args {
		paramType := info.Ctor.ParamType(i)

		if p, ok := info.ParamFor(i); ok {
			resolved, err := c.get(p.Token)
			if err != nil {
				if p.Optional && isNoProvider(err) {
					args[i] = reflect.Zero(paramType)
					continue
				}
				return nil, err
			}
			arg, err := conform(resolved, paramType)
			if err != nil {
				return nil, fmt.Errorf("constructor for %v, parameter %d: %w", info.Type, i, err)
			}
			args[i] = arg
			continue
		}

		typeToken := normalizeTypeToken(paramType)
		canonical, err := c.canonicalToken(typeToken)
		if err == nil {
			if _, registered := c.providers[canonical]; registered {
				resolved, err := c.get(typeToken)
				if err != nil {
					return nil, err
				}
				arg, err := conform(resolved, paramType)
				if err != nil {
					return nil, fmt.Errorf("constructor for %v, parameter %d: %w", info.Type, i, err)
				}
				args[i] = arg
				continue
			}
		}

		if depInfo, found := c.metadata.Lookup(paramType); found {
			resolved, err := c.constructFresh(depInfo)
			if err != nil {
				return nil, err
			}
			args[i] = reflect.ValueOf(resolved)
			continue
		}

		args[i] = reflect.Zero(paramType)
	}
	return args, nil
}

// injectFields satisfies the field-injection records on a constructed
// instance. Optional fields tolerate a missing provider and nothing else.
func (c *Container) injectFields(info *meta.TypeInfo, instance any) error {
	if len(info.Fields) == 0 {
		return nil
	}

	target := reflect.ValueOf(instance)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("field injection on %v requires a non-nil pointer instance, got %T", info.Type, instance)
	}
	elem := target.Elem()

	for _, f := range info.Fields {
		resolved, err := c.get(f.Token)
		if err != nil {
			if f.Optional && isNoProvider(err) {
				continue
			}
			return err
		}

		field := elem.FieldByName(f.Field)
		value, err := conform(resolved, field.Type())
		if err != nil {
			return fmt.Errorf("field %s of %v: %w", f.Field, info.Type, err)
		}
		field.Set(value)
	}
	return nil
}

// conform turns a resolved instance into a reflect.Value of the wanted type,
// mapping nil onto the zero value.
func conform(resolved any, want reflect.Type) (reflect.Value, error) {
	if resolved == nil {
		return reflect.Zero(want), nil
	}
	value := reflect.ValueOf(resolved)
	if !value.Type().AssignableTo(want) {
		return reflect.Value{}, fmt.Errorf("resolved %v is not assignable to %v", value.Type(), want)
	}
	return value, nil
}

func isNoProvider(err error) bool {
	var noProvider *NoProviderError
	return errors.As(err, &noProvider)
}
