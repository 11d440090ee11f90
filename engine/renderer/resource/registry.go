// Package resource provides the owning registry for GPU-backed objects. The registry is the only
// owner of a resource; every other consumer refers to it through a Handle and never releases it.
package resource

import (
	"fmt"
	"sync"
)

// Handle is a non-owning reference into a Registry. The zero Handle is never issued and can be
// used as "no resource".
type Handle uint32

// InvalidHandle is the zero Handle.
const InvalidHandle Handle = 0

// Valid reports whether h could refer to a live resource.
func (h Handle) Valid() bool {
	return h != InvalidHandle
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d)", uint32(h))
}

// Registry owns resources of type T keyed by Handle. Handles are never reused within the
// lifetime of a Registry, so a stale handle can never alias a newer resource.
type Registry[T any] struct {
	mu      *sync.Mutex
	next    Handle
	entries map[Handle]T
}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - *Registry[T]: the new registry
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		mu:      &sync.Mutex{},
		entries: make(map[Handle]T),
	}
}

// Insert takes ownership of v and returns its handle.
//
// Parameters:
//   - v: the resource to own
//
// Returns:
//   - Handle: the handle now referring to v
func (r *Registry[T]) Insert(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.entries[r.next] = v
	return r.next
}

// Get looks up the resource behind h.
//
// Parameters:
//   - h: the handle to resolve
//
// Returns:
//   - T: the resource, or the zero value
//   - bool: false if h is unknown or was removed
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[h]
	return v, ok
}

// Remove gives up ownership of the resource behind h and returns it so the caller can destroy it.
//
// Parameters:
//   - h: the handle to remove
//
// Returns:
//   - T: the removed resource, or the zero value
//   - bool: false if h was not live
func (r *Registry[T]) Remove(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[h]
	if ok {
		delete(r.entries, h)
	}
	return v, ok
}

// Replace swaps the resource behind a live handle, keeping the handle stable. The previous
// resource is returned so the caller can destroy it.
//
// Parameters:
//   - h: the live handle
//   - v: the new resource
//
// Returns:
//   - T: the previous resource, or the zero value
//   - bool: false if h was not live (nothing is stored in that case)
func (r *Registry[T]) Replace(h Handle, v T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entries[h]
	if ok {
		r.entries[h] = v
	}
	return prev, ok
}

// Len returns the number of live resources.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
