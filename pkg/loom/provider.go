package loom

import (
	"fmt"
	"reflect"

	"github.com/loom-di/loom/pkg/loom/meta"
)

// Provider is a registration recipe for producing a token's value. It is a
// sealed union with exactly three shapes, built through Value, Factory, and
// Class; shape validation happens when the provider is registered.
type Provider interface {
	declaredToken() any
}

// Value creates a provider that returns v verbatim. The value itself acts as
// the cached instance.
func Value(token, v any) Provider {
	return &valueProvider{tok: token, value: v}
}

// Factory creates a provider that invokes fn with the resolved values of the
// dependency tokens, in declared order. fn must be a function taking one
// argument per dependency and returning T or (T, error).
func Factory(token any, fn any, deps ...any) Provider {
	return &factoryProvider{tok: token, fn: fn, deps: deps}
}

// Class creates a provider that constructs the prototype's type through its
// registered injection metadata. A nil token registers the type under itself;
// an explicit token additionally aliases the bare type to it.
func Class(token any, prototype any) Provider {
	return &classProvider{tok: token, prototype: prototype}
}

type valueProvider struct {
	tok   any
	value any
}

func (p *valueProvider) declaredToken() any { return p.tok }

type factoryProvider struct {
	tok  any
	fn   any
	deps []any
}

func (p *factoryProvider) declaredToken() any { return p.tok }

type classProvider struct {
	tok       any
	prototype any
}

func (p *classProvider) declaredToken() any { return p.tok }

// providerKind tags the normalized provider record.
type providerKind int

const (
	kindValue providerKind = iota
	kindFactory
	kindClass
)

func (k providerKind) String() string {
	switch k {
	case kindValue:
		return "value"
	case kindFactory:
		return "factory"
	case kindClass:
		return "class"
	default:
		return "unknown"
	}
}

// provider is the canonical registration record stored in the container after
// normalization.
type provider struct {
	kind  providerKind
	value any             // kindValue
	fn    reflect.Value   // kindFactory
	rets  bool            // kindFactory: fn returns (T, error)
	deps  []any           // kindFactory: canonical dependency tokens
	typ   reflect.Type    // kindClass: pointer-to-struct type
	info  *meta.TypeInfo  // kindClass
}

// normalized is the result of provider normalization: the canonical token the
// provider registers under, the record itself, and an optional alias entry
// mapping the bare constructible type to the canonical token.
type normalized struct {
	token     any
	provider  *provider
	aliasFrom any
}

// normalizeProvider converts a registration into its canonical record. It
// accepts the three Provider shapes and, as shorthand, a bare constructible
// prototype (or its reflect.Type), which becomes a class provider under its
// own type token.
func (c *Container) normalizeProvider(registration any) (*normalized, error) {
	switch p := registration.(type) {
	case *valueProvider:
		return c.normalizeValue(p)
	case *factoryProvider:
		return c.normalizeFactory(p)
	case *classProvider:
		return c.normalizeClass(p.tok, p.prototype)
	case Provider:
		return nil, &InvalidProviderError{Reason: fmt.Sprintf("unsupported provider implementation %T", p)}
	case nil:
		return nil, &InvalidProviderError{Reason: "registration is nil"}
	}

	if typ, ok := constructibleType(registration); ok {
		return c.normalizeClass(nil, typ)
	}
	return nil, &InvalidProviderError{
		Reason: fmt.Sprintf("%T matches none of the value, factory, or class shapes", registration),
	}
}

func (c *Container) normalizeValue(p *valueProvider) (*normalized, error) {
	token, err := normalizeToken(p.tok)
	if err != nil {
		return nil, err
	}
	return &normalized{
		token:    token,
		provider: &provider{kind: kindValue, value: p.value},
	}, nil
}

func (c *Container) normalizeFactory(p *factoryProvider) (*normalized, error) {
	token, err := normalizeToken(p.tok)
	if err != nil {
		return nil, err
	}

	if p.fn == nil {
		return nil, &InvalidProviderError{Reason: fmt.Sprintf("factory for %s is nil", describeToken(token))}
	}
	fn := reflect.ValueOf(p.fn)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("factory for %s must be a function, got %T", describeToken(token), p.fn),
		}
	}
	if fnType.NumIn() != len(p.deps) {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("factory for %s takes %d arguments but declares %d dependencies",
				describeToken(token), fnType.NumIn(), len(p.deps)),
		}
	}
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("factory for %s must return T or (T, error)", describeToken(token)),
		}
	}
	returnsErr := false
	if numOut == 2 {
		errorInterface := reflect.TypeOf((*error)(nil)).Elem()
		if !fnType.Out(1).Implements(errorInterface) {
			return nil, &InvalidProviderError{
				Reason: fmt.Sprintf("factory for %s: second return value must be error", describeToken(token)),
			}
		}
		returnsErr = true
	}

	deps := make([]any, len(p.deps))
	for i, dep := range p.deps {
		canonical, err := normalizeToken(dep)
		if err != nil {
			return nil, err
		}
		deps[i] = canonical
	}

	return &normalized{
		token:    token,
		provider: &provider{kind: kindFactory, fn: fn, rets: returnsErr, deps: deps},
	}, nil
}

func (c *Container) normalizeClass(explicitToken any, prototype any) (*normalized, error) {
	typ, ok := constructibleType(prototype)
	if !ok {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("%v is not a constructible type (pointer to struct)", prototype),
		}
	}

	// Metadata absence surfaces here, at registration, not at resolution.
	info, found := c.metadata.Lookup(typ)
	if !found {
		return nil, &InvalidProviderError{
			Reason: fmt.Sprintf("constructible type %v has no injection metadata; describe it with meta.Describe", typ),
		}
	}

	token := explicitToken
	if token == nil {
		token = info.Token
	}
	if token == nil {
		token = typ
	}
	canonical, err := normalizeToken(token)
	if err != nil {
		return nil, err
	}

	n := &normalized{
		token:    canonical,
		provider: &provider{kind: kindClass, typ: typ, info: info},
	}
	if canonical != any(typ) {
		n.aliasFrom = typ
	}
	return n, nil
}

// constructibleType extracts the pointer-to-struct type from a prototype
// value or a reflect.Type.
func constructibleType(prototype any) (reflect.Type, bool) {
	typ, ok := prototype.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(prototype)
	}
	if typ == nil || typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	return typ, true
}
