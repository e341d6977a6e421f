// Package loom is a process-local dependency-injection container: a registry
// mapping tokens to providers, and a resolver that produces fully-constructed
// instances with their own dependencies already satisfied.
//
// Tokens come in three flavors: a constructible type used as its own token
// (written as a typed-nil prototype or a reflect.Type), an explicit *Key
// identity, and a process-unique Symbol. Providers come in three shapes:
// Value (a precomputed instance), Factory (a function plus its dependency
// tokens), and Class (a constructible type resolved through its injection
// metadata, see the meta subpackage).
//
// Basic usage:
//
//	var LoggerToken = loom.NewKey("logger")
//
//	var DBToken = loom.NewKey("db")
//
//	c := loom.New()
//	c.Set(loom.Value(LoggerToken, log))
//	c.Set(loom.Factory(DBToken, NewDB, LoggerToken))
//
//	db, err := c.Get(DBToken)
//
// Modules bundle registrations and import other modules; a module loads at
// most once per container, and circular imports terminate. ConfigModule and
// ConfigModuleAsync bind runtime configuration (possibly fetched from a slow
// path) to a module's configuration token.
//
// Container instances hold ordinary mutable maps and are meant to be driven
// by one goroutine at a time; the metadata registry in the meta subpackage is
// safe for concurrent use.
package loom
