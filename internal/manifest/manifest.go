// Package manifest implements the ordered collection of installed
// applications: a singly linked, append-only list populated at boot and
// never freed, mutated only before the controller task starts (spec.md
// §4.1).
package manifest

import "github.com/rebbleos/appmanager/internal/types"

// Manifest is a singly linked list of Application records in insertion
// order. It carries no concurrency guard by design: records are only added
// during boot, before any controller or guest goroutine runs.
type Manifest struct {
	head *types.Application
	tail *types.Application
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{}
}

// Add appends record to the tail. Duplicate names are not rejected: lookup
// always resolves to the first match, so the first add of a given name
// wins (spec.md §9, "Duplicate names").
func (m *Manifest) Add(record *types.Application) {
	record.Next = nil
	if m.head == nil {
		m.head = record
		m.tail = record
		return
	}
	m.tail.Next = record
	m.tail = record
}

// Head returns the first record, for UI-style enumeration, or nil if the
// manifest is empty.
func (m *Manifest) Head() *types.Application {
	return m.head
}

// LookupPrefix finds the first record whose stored name is a prefix of
// query using the stored name's length, the anomaly documented in
// spec.md §9 ("System" matches a query "SystemFoo"). This is the default
// lookup behavior, preserved intentionally.
func (m *Manifest) LookupPrefix(query string) *types.Application {
	for n := m.head; n != nil; n = n.Next {
		if len(query) >= len(n.Name) && query[:len(n.Name)] == n.Name {
			return n
		}
	}
	return nil
}

// LookupExact finds the first record whose name exactly equals query. Not
// the default; selectable via config.Config.Manifest.ExactNameMatch for deployments
// that would rather not preserve the prefix-match anomaly.
func (m *Manifest) LookupExact(query string) *types.Application {
	for n := m.head; n != nil; n = n.Next {
		if n.Name == query {
			return n
		}
	}
	return nil
}

// Len counts the records currently in the manifest.
func (m *Manifest) Len() int {
	n := 0
	for c := m.head; c != nil; c = c.Next {
		n++
	}
	return n
}
