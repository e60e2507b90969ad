// Package store holds parameter values on both sides of the thread
// boundary: a MainStore owned by the control thread and a ProcessingStore
// owned by the audio thread, linked by a bounded single-producer
// single-consumer snapshot queue.
package store

import (
	"sync/atomic"

	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// slotUpdate is one queued cell write: a slot index and a packed value.
type slotUpdate struct {
	slot int
	bits uint64
}

// ProcessingStore is the audio thread's canonical value list: a flat array
// of atomic cells indexed by parameter slot. No method blocks, allocates
// or takes a lock.
//
// Audio-thread code is the only writer during processing; the control
// thread may read individual cells atomically, so a single scalar is never
// observed torn even though a multi-cell read can mix pre- and post-update
// values.
type ProcessingStore struct {
	table *param.Table
	cells []atomic.Uint64
	queue <-chan []slotUpdate
}

// newProcessingStore seeds the cell array from the control-thread values.
func newProcessingStore(table *param.Table, values []param.Value, queue <-chan []slotUpdate) *ProcessingStore {
	p := &ProcessingStore{
		table: table,
		cells: make([]atomic.Uint64, len(values)),
		queue: queue,
	}
	for slot, v := range values {
		p.cells[slot].Store(v.Pack())
	}
	return p
}

// SyncFromMainThread drains every pending control-thread snapshot and
// applies it to the cells. Called at the start of each process call,
// before automation is evaluated. Never blocks.
func (p *ProcessingStore) SyncFromMainThread() {
	for {
		select {
		case batch := <-p.queue:
			for _, u := range batch {
				p.cells[u.slot].Store(u.bits)
			}
		default:
			return
		}
	}
}

// Value returns the current value of a slot.
func (p *ProcessingStore) Value(slot int) param.Value {
	return param.Unpack(p.cells[slot].Load())
}

// SetValue writes a slot, typically the final value of an automation curve
// at the end of a buffer.
func (p *ProcessingStore) SetValue(slot int, v param.Value) {
	p.cells[slot].Store(v.Pack())
}

// Count returns the number of slots.
func (p *ProcessingStore) Count() int { return len(p.cells) }

// Table returns the descriptor table the store was built from.
func (p *ProcessingStore) Table() *param.Table { return p.table }
