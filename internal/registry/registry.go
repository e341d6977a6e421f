// Package registry provides a small generic, thread-safe map used as the
// backing store for the process-wide metadata tables.
package registry

import (
	"fmt"
	"sync"
)

// Validator checks a key-value pair before it is stored. The existing map is
// passed read-only; mutating it from a validator is not supported.
type Validator[K comparable, V any] func(key K, value V, existing map[K]V) error

// Registry is a generic, thread-safe key-value store with an optional
// validation hook run on every Register call.
type Registry[K comparable, V any] struct {
	mu        sync.RWMutex
	items     map[K]V
	validator Validator[K, V]
	name      string
	keyDesc   string
}

// New creates an empty registry. The name and key descriptor only appear in
// error messages.
func New[K comparable, V any](name, keyDesc string) *Registry[K, V] {
	return &Registry[K, V]{
		items:   make(map[K]V),
		name:    name,
		keyDesc: keyDesc,
	}
}

// SetValidator installs the validation hook for subsequent registrations.
func (r *Registry[K, V]) SetValidator(v Validator[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = v
}

// Register stores value under key, replacing any previous entry that passes
// validation.
func (r *Registry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.validator != nil {
		if err := r.validator(key, value, r.items); err != nil {
			return fmt.Errorf("%s registry: %w", r.name, err)
		}
	}

	r.items[key] = value
	return nil
}

// Get retrieves the value stored under key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	return value, exists
}

// GetOrError retrieves the value stored under key or reports it missing.
func (r *Registry[K, V]) GetOrError(key K) (V, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	if !exists {
		var zero V
		return zero, fmt.Errorf("%s '%v' is not registered", r.keyDesc, key)
	}
	return value, nil
}

// Has reports whether key has an entry.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[key]
	return exists
}

// Keys returns all keys currently registered, in no particular order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, 0, len(r.items))
	for key := range r.items {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// ForEach applies fn to every entry while holding the read lock.
func (r *Registry[K, V]) ForEach(fn func(K, V)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for k, v := range r.items {
		fn(k, v)
	}
}

// Delete removes the entry for key, reporting whether one existed.
func (r *Registry[K, V]) Delete(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		delete(r.items, key)
		return true
	}
	return false
}

// Clear removes all entries.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[K]V)
}
