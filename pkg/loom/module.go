package loom

import (
	"fmt"
)

// Module is a named bundle of provider registrations plus imported modules.
// Imports load before the module's own providers, depth-first. Exports are
// declarative only; the resolution engine does not enforce them.
type Module struct {
	Name      string
	Imports   []*Module
	Providers []any // Provider values or bare constructible prototypes
	Exports   []any
}

// moduleState tracks the loader's per-module state machine. A module starts
// unseen (absent from the map), becomes loading, then loaded.
type moduleState int

const (
	moduleLoading moduleState = iota
	moduleLoaded
)

// loadModuleTx loads a module transactionally: on error the container's
// registry state is restored to the pre-load snapshot, so a failed load leaves
// no partial registrations behind and a corrected module can be retried.
func (c *Container) loadModuleTx(m *Module) error {
	snap := c.snapshotState()
	if err := c.loadModule(m); err != nil {
		c.restoreState(snap)
		return err
	}
	return nil
}

// loadModule merges a module's providers into the registry. A module loads at
// most once per container: requests for a module that is already loaded, or
// currently loading through a circular import chain, return immediately.
//
// On a circular import the back edge is skipped, so the second-encountered
// module finishes registering its own providers first and the first-discovered
// module registers its providers last.
func (c *Container) loadModule(m *Module) error {
	if m == nil {
		return &InvalidModuleError{Reason: "module descriptor is nil"}
	}

	if _, seen := c.modules[m]; seen {
		return nil
	}
	c.modules[m] = moduleLoading

	for i, imported := range m.Imports {
		if imported == nil {
			return &InvalidModuleError{Reason: fmt.Sprintf("module %q: import %d is nil", m.Name, i)}
		}
		if err := c.loadModule(imported); err != nil {
			return err
		}
	}

	for i, registration := range m.Providers {
		if err := c.setProvider(registration); err != nil {
			return fmt.Errorf("module %q: provider %d: %w", m.Name, i, err)
		}
	}

	c.modules[m] = moduleLoaded
	c.moduleNames = append(c.moduleNames, m.Name)
	return nil
}

// loaderSnapshot captures the registry state a module load may touch.
type loaderSnapshot struct {
	providers   map[any]*provider
	aliases     map[any]any
	instances   map[any]any
	modules     map[*Module]moduleState
	moduleNames []string
}

func (c *Container) snapshotState() *loaderSnapshot {
	snap := &loaderSnapshot{
		providers:   make(map[any]*provider, len(c.providers)),
		aliases:     make(map[any]any, len(c.aliases)),
		instances:   make(map[any]any, len(c.instances)),
		modules:     make(map[*Module]moduleState, len(c.modules)),
		moduleNames: append([]string(nil), c.moduleNames...),
	}
	for token, p := range c.providers {
		snap.providers[token] = p
	}
	for alias, target := range c.aliases {
		snap.aliases[alias] = target
	}
	for token, instance := range c.instances {
		snap.instances[token] = instance
	}
	for mod, state := range c.modules {
		snap.modules[mod] = state
	}
	return snap
}

func (c *Container) restoreState(snap *loaderSnapshot) {
	c.providers = snap.providers
	c.aliases = snap.aliases
	c.instances = snap.instances
	c.modules = snap.modules
	c.moduleNames = snap.moduleNames
}
