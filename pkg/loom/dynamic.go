package loom

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// ConfigModule builds a module whose sole provider binds a module's
// designated configuration token to the supplied configuration. The
// configuration may be a plain value, one of the Provider shapes (retargeted
// to the configuration token), a bare constructible prototype, or a factory
// function taking no arguments.
//
// An empty name gets a generated one.
func ConfigModule(name string, token any, cfg any) (*Module, error) {
	if !isValidToken(token) {
		return nil, &InvalidTokenError{Value: token}
	}
	if name == "" {
		name = fmt.Sprintf("config-%s", uuid.NewString()[:8])
	}

	p, err := configProvider(token, cfg)
	if err != nil {
		return nil, err
	}

	return &Module{
		Name:      name,
		Providers: []any{p},
		Exports:   []any{token},
	}, nil
}

// configProvider wraps a configuration input into a provider bound to the
// configuration token.
func configProvider(token any, cfg any) (Provider, error) {
	switch v := cfg.(type) {
	case *valueProvider:
		return Value(token, v.value), nil
	case *factoryProvider:
		return Factory(token, v.fn, v.deps...), nil
	case *classProvider:
		return Class(token, v.prototype), nil
	case Provider:
		return nil, &InvalidProviderError{Reason: fmt.Sprintf("unsupported provider implementation %T", v)}
	}

	if typ, ok := constructibleType(cfg); ok {
		return Class(token, typ), nil
	}
	if isFunc(cfg) {
		return Factory(token, cfg), nil
	}
	return Value(token, cfg), nil
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

// ModuleFuture is a deferred module registration: the configuration value is
// still being produced, and the module can only be registered once Await
// returns it.
type ModuleFuture struct {
	done chan struct{}
	mod  *Module
	err  error
}

// ConfigModuleAsync builds a configuration module from a value produced
// asynchronously, sourcing configuration from slow paths without blocking
// module construction. The fetch runs immediately in its own goroutine with
// the given context; the returned future yields the module once the value
// resolves.
func ConfigModuleAsync(ctx context.Context, name string, token any, fetch func(context.Context) (any, error)) *ModuleFuture {
	f := &ModuleFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if fetch == nil {
			f.err = &InvalidProviderError{Reason: "async configuration fetch is nil"}
			return
		}
		cfg, err := fetch(ctx)
		if err != nil {
			f.err = fmt.Errorf("async configuration for %s: %w", describeToken(token), err)
			return
		}
		f.mod, f.err = ConfigModule(name, token, cfg)
	}()
	return f
}

// Done is closed once the configuration has resolved, successfully or not.
func (f *ModuleFuture) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the module is ready or ctx is cancelled.
func (f *ModuleFuture) Await(ctx context.Context) (*Module, error) {
	select {
	case <-f.done:
		return f.mod, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
