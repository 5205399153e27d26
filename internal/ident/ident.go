// Package ident allocates the session-scoped identifiers used to name every
// remote object this process creates.
package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Allocator produces collision-free identifiers of the form
// {namespace}_{session}_{counter}. The counter is fixed-width hexadecimal so
// allocation order and lexicographic order agree, and it is never reused:
// the remote side may hold stale references long after a slot is removed.
type Allocator struct {
	namespace string
	session   string
	next      atomic.Uint64
}

// NewAllocator builds an allocator scoped to one connected session.
func NewAllocator(namespace, session string) *Allocator {
	return &Allocator{namespace: namespace, session: session}
}

// Allocate returns the next identifier. It never fails and never repeats.
func (a *Allocator) Allocate() string {
	counter := a.next.Add(1)
	return fmt.Sprintf("%s_%s_%08x", a.namespace, a.session, counter)
}

// Allocated reports how many identifiers have been handed out.
func (a *Allocator) Allocated() uint64 {
	if a == nil {
		return 0
	}
	return a.next.Load()
}

// ProcessToken returns a fresh time-ordered token identifying this process
// instance, used as the namespace fallback and in the connect handshake.
func ProcessToken() string {
	return uuid.Must(uuid.NewV7()).String()
}
