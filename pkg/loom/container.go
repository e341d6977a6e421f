package loom

import (
	"github.com/loom-di/loom/pkg/loom/meta"
)

// Container is a process-local registry of providers and the resolver that
// turns tokens into fully-constructed instances.
//
// A container is driven by one logical thread of control at a time; callers
// that resolve from multiple goroutines must synchronize externally.
type Container struct {
	metadata *meta.Registry

	providers map[any]*provider // canonical token -> provider
	aliases   map[any]any       // alias token -> canonical token, single hop
	instances map[any]any       // canonical token -> memoized singleton

	modules     map[*Module]moduleState
	moduleNames []string // load order, for introspection

	resolving map[any]struct{} // tokens and types currently being resolved
	path      []string         // resolution path for cycle diagnostics
	pending   []any            // instances memoized during the current resolution, for rollback
}

// Option configures a container.
type Option func(*Container)

// WithMetadata sets the injection-metadata registry the container consults.
// Without it the process-wide default registry is used.
func WithMetadata(reg *meta.Registry) Option {
	return func(c *Container) {
		if reg != nil {
			c.metadata = reg
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		metadata:  meta.Default(),
		providers: make(map[any]*provider),
		aliases:   make(map[any]any),
		instances: make(map[any]any),
		modules:   make(map[*Module]moduleState),
		resolving: make(map[any]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set is the unified registration entry point. It accepts a *Module (loaded
// through the module loader, transactionally: a failed load leaves no partial
// registrations behind), one of the Provider shapes, or a bare constructible
// prototype, which registers as a class provider under its own type token.
func (c *Container) Set(registration any) error {
	if mod, ok := registration.(*Module); ok {
		return c.loadModuleTx(mod)
	}
	return c.setProvider(registration)
}

// setProvider normalizes and installs a provider registration, transactionally
// retiring stale aliases and cached instances of the token it replaces.
func (c *Container) setProvider(registration any) error {
	n, err := c.normalizeProvider(registration)
	if err != nil {
		return err
	}

	// Replacing a provider drops the cached instance for the token and for
	// every alias pointing at it, and removes those aliases, so the next Get
	// re-resolves from the new provider.
	c.invalidate(n.token)

	// A direct registration also sheds any alias-source role the token held;
	// otherwise the alias would keep shadowing the new provider.
	delete(c.aliases, n.token)

	c.providers[n.token] = n.provider
	if n.aliasFrom != nil {
		c.aliases[n.aliasFrom] = n.token
	}
	return nil
}

// invalidate forgets the cached instance for token and retires every alias
// targeting it.
func (c *Container) invalidate(token any) {
	delete(c.instances, token)
	for alias, target := range c.aliases {
		if target == token {
			delete(c.instances, alias)
			delete(c.aliases, alias)
		}
	}
}

// canonicalToken validates a token and resolves it through the alias map.
// Alias resolution is a single hop; there are no alias chains.
func (c *Container) canonicalToken(token any) (any, error) {
	canonical, err := normalizeToken(token)
	if err != nil {
		return nil, err
	}
	if target, ok := c.aliases[canonical]; ok {
		return target, nil
	}
	return canonical, nil
}

// Has reports whether the token has a registered provider. It never fails:
// invalid tokens report false, making Has a safe existence probe.
func (c *Container) Has(token any) bool {
	canonical, err := c.canonicalToken(token)
	if err != nil {
		return false
	}
	_, ok := c.providers[canonical]
	return ok
}

// CreateChild returns an independent copy of the container's provider, alias,
// instance, and module state at this point in time. Subsequent changes to
// either container do not affect the other.
func (c *Container) CreateChild() *Container {
	child := &Container{
		metadata:  c.metadata,
		providers: make(map[any]*provider, len(c.providers)),
		aliases:   make(map[any]any, len(c.aliases)),
		instances: make(map[any]any, len(c.instances)),
		modules:   make(map[*Module]moduleState, len(c.modules)),
		resolving: make(map[any]struct{}),
	}
	for token, p := range c.providers {
		child.providers[token] = p
	}
	for alias, target := range c.aliases {
		child.aliases[alias] = target
	}
	for token, instance := range c.instances {
		child.instances[token] = instance
	}
	for mod, state := range c.modules {
		child.modules[mod] = state
	}
	child.moduleNames = append([]string(nil), c.moduleNames...)
	return child
}

// Clear drops all providers, instances, modules, and aliases.
func (c *Container) Clear() {
	c.providers = make(map[any]*provider)
	c.aliases = make(map[any]any)
	c.instances = make(map[any]any)
	c.modules = make(map[*Module]moduleState)
	c.moduleNames = nil
	c.resolving = make(map[any]struct{})
	c.path = nil
	c.pending = nil
}

// Listing is the container's introspection snapshot.
type Listing struct {
	Tokens  []string
	Modules []string
}

// List describes the registered tokens and the loaded module names.
func (c *Container) List() Listing {
	listing := Listing{
		Tokens:  make([]string, 0, len(c.providers)),
		Modules: append([]string(nil), c.moduleNames...),
	}
	for token := range c.providers {
		listing.Tokens = append(listing.Tokens, describeToken(token))
	}
	return listing
}
