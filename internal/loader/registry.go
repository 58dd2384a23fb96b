package loader

import (
	"sync"

	"github.com/rebbleos/appmanager/internal/types"
)

// EntryRegistry maps a header's byte offset to the Go function that stands
// in for the compiled code living at that offset in the real binary. A
// position-independent ARM binary cannot be executed by the Go runtime, so
// this is the one indirection the Go port adds over the original
// jump-to-address mechanism. See SPEC_FULL.md §3.
type EntryRegistry struct {
	mu      sync.RWMutex
	entries map[uint32]types.EntryFunc
}

// NewEntryRegistry creates an empty registry.
func NewEntryRegistry() *EntryRegistry {
	return &EntryRegistry{entries: make(map[uint32]types.EntryFunc)}
}

// Register associates offset with fn. Re-registering the same offset
// replaces the previous entry.
func (r *EntryRegistry) Register(offset uint32, fn types.EntryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[offset] = fn
}

// Resolve looks up the entry function for offset.
func (r *EntryRegistry) Resolve(offset uint32) (types.EntryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.entries[offset]
	return fn, ok
}
