// Package snapshot provides the single-slot exchange used between the
// perception/telemetry producers and the control cycle. A producer
// overwrites the slot atomically; readers always get the latest published
// value without blocking the producer.
package snapshot

import "sync/atomic"

// Mailbox is a single-slot, single-writer, multi-reader exchange.
type Mailbox[T any] struct {
	slot atomic.Pointer[T]
}

// Publish replaces the stored value. Earlier values are discarded, never
// mutated in place.
func (m *Mailbox[T]) Publish(v T) {
	m.slot.Store(&v)
}

// Latest returns the most recently published value, or false if nothing
// has been published yet.
func (m *Mailbox[T]) Latest() (T, bool) {
	p := m.slot.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}
