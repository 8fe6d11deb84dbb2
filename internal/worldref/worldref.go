// Package worldref implements the opaque-handle indirection described in
// SPEC_FULL.md's design notes: cross-document references (electrodes ->
// solution points -> MRI) are modelled as handles into a per-process
// registry rather than owning pointers, so no document ever outlives
// another through a raw reference and there is no cyclic ownership.
package worldref

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Handle is an opaque reference to a value held by a Registry. The zero
// Handle never resolves.
type Handle uuid.UUID

// String renders the handle for logging.
func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// IsZero reports whether h was never assigned by Registry.Put.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// Registry is a single-writer-discipline store mapping Handle to *T. Puts
// are append-only from the registry's point of view: a handle, once
// issued, is never reassigned to a different value. Reads take a shared
// lock; writes take an exclusive one, following the stats-accumulator
// fast/safe split in SPEC_FULL.md's concurrency model.
type Registry[T any] struct {
	mu      sync.RWMutex
	byID    map[Handle]*T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{byID: make(map[Handle]*T)}
}

// Put stores v and returns a fresh handle for it.
func (r *Registry[T]) Put(v *T) Handle {
	h := Handle(uuid.New())
	r.mu.Lock()
	r.byID[h] = v
	r.mu.Unlock()
	return h
}

// Get resolves h to its value. ok is false if h was never Put or has been
// Released.
func (r *Registry[T]) Get(h Handle) (v *T, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok = r.byID[h]
	return v, ok
}

// MustGet resolves h or panics; for use only where the caller has already
// established h is live (e.g. within the same request that created it).
func (r *Registry[T]) MustGet(h Handle) *T {
	v, ok := r.Get(h)
	if !ok {
		panic(fmt.Sprintf("worldref: dangling handle %s", h))
	}
	return v
}

// Release drops h from the registry. Safe to call on an already-released
// or unknown handle.
func (r *Registry[T]) Release(h Handle) {
	r.mu.Lock()
	delete(r.byID, h)
	r.mu.Unlock()
}

// Len reports how many live handles the registry holds.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
