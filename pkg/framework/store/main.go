package store

import (
	"errors"
	"fmt"

	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// ErrQueueTooFull reports cross-thread synchronization backpressure: the
// snapshot queue had no room, so the oldest-undelivered write could not be
// handed to the audio thread. The control-thread copy is still updated;
// the host may retry once the audio thread has drained the queue.
var ErrQueueTooFull = errors.New("parameter sync queue full")

// DefaultQueueDepth is the snapshot queue capacity used when the caller
// does not choose one.
const DefaultQueueDepth = 64

// Listener observes control-thread-visible store changes.
type Listener interface {
	// ParameterChanged fires after a programmatic edit or a state load
	// changes a single value.
	ParameterChanged(id string, value param.Value)
	// GrabbedChanged fires at the beginning and end of an edit gesture.
	GrabbedChanged(id string, grabbed bool)
	// StateChanged fires after a whole snapshot replaces the store.
	StateChanged()
}

// MainStore is the control thread's view of parameter state. All methods
// are control-thread-only; the protocol guarantees they never run
// concurrently with each other. SnapshotValues alone may overlap audio
// processing, which is safe because live cells are read atomically.
type MainStore struct {
	table     *param.Table
	values    []param.Value
	grabbed   []bool
	listeners []Listener

	// Non-nil only between Activate and Deactivate.
	proc  *ProcessingStore
	queue chan []slotUpdate
}

// NewMainStore creates a store holding every parameter's default.
func NewMainStore(table *param.Table) *MainStore {
	return &MainStore{
		table:   table,
		values:  table.Defaults(),
		grabbed: make([]bool, table.Count()),
	}
}

// Table returns the descriptor table.
func (m *MainStore) Table() *param.Table { return m.table }

// Activate builds the audio-thread counterpart, seeded with the current
// control-thread values, and the queue connecting the two. queueDepth <= 0
// selects DefaultQueueDepth.
func (m *MainStore) Activate(queueDepth int) *ProcessingStore {
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	m.queue = make(chan []slotUpdate, queueDepth)
	m.proc = newProcessingStore(m.table, m.values, m.queue)
	return m.proc
}

// Deactivate tears down the audio-thread counterpart, first pulling its
// latest values back into the control-thread copy so a subsequent save
// reflects processed automation.
func (m *MainStore) Deactivate() {
	if m.proc == nil {
		return
	}
	for slot := range m.values {
		m.values[slot] = m.proc.Value(slot)
	}
	m.proc = nil
	m.queue = nil
}

// Active reports whether an audio-thread counterpart exists.
func (m *MainStore) Active() bool { return m.proc != nil }

// Get returns a parameter's current value.
func (m *MainStore) Get(id string) (param.Value, error) {
	slot, ok := m.table.SlotByID(id)
	if !ok {
		return param.Value{}, fmt.Errorf("%w: %q", param.ErrNotFound, id)
	}
	if m.proc != nil {
		return m.proc.Value(slot), nil
	}
	return m.values[slot], nil
}

// Set applies a programmatic edit. The value is validated against the
// descriptor before any mutation; when active, the edit travels to the
// audio thread through the snapshot queue rather than being written into
// the processing cells directly.
func (m *MainStore) Set(id string, v param.Value) error {
	slot, ok := m.table.SlotByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", param.ErrNotFound, id)
	}
	if err := m.table.BySlot(slot).CheckValue(v); err != nil {
		return err
	}
	m.values[slot] = v
	m.notifyChanged(id, v)
	return m.push([]slotUpdate{{slot: slot, bits: v.Pack()}})
}

// SetNormalized applies a programmatic edit in the protocol's [0, 1]
// domain.
func (m *MainStore) SetNormalized(id string, normalized float64) error {
	slot, ok := m.table.SlotByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", param.ErrNotFound, id)
	}
	if normalized < 0 || normalized > 1 || normalized != normalized {
		return fmt.Errorf("%w: normalized value %v outside [0, 1]", param.ErrInvalidValue, normalized)
	}
	return m.Set(id, m.table.BySlot(slot).Denormalize(normalized))
}

// SetGrabbed marks the beginning or end of an edit gesture on a parameter.
func (m *MainStore) SetGrabbed(id string, grabbed bool) error {
	slot, ok := m.table.SlotByID(id)
	if !ok {
		return fmt.Errorf("%w: %q", param.ErrNotFound, id)
	}
	if m.grabbed[slot] == grabbed {
		return nil
	}
	m.grabbed[slot] = grabbed
	for _, l := range m.listeners {
		l.GrabbedChanged(id, grabbed)
	}
	return nil
}

// IsGrabbed reports whether a parameter is inside an edit gesture.
func (m *MainStore) IsGrabbed(id string) bool {
	slot, ok := m.table.SlotByID(id)
	return ok && m.grabbed[slot]
}

// ReplaceAll swaps in a whole snapshot, slot-indexed. Used by state loads.
// Values must already match descriptor kinds.
func (m *MainStore) ReplaceAll(values []param.Value) error {
	if len(values) != len(m.values) {
		return fmt.Errorf("snapshot has %d values, store has %d", len(values), len(m.values))
	}
	batch := make([]slotUpdate, len(values))
	for slot, v := range values {
		m.values[slot] = v
		batch[slot] = slotUpdate{slot: slot, bits: v.Pack()}
	}
	for _, l := range m.listeners {
		l.StateChanged()
	}
	return m.push(batch)
}

// SnapshotValues returns a tearing-tolerant copy of every value, indexed
// by slot. While active it reads the live audio-thread cells, so it
// reflects the latest processed automation; individual scalars are read
// atomically but the set as a whole may mix pre- and post-update values
// across parameters.
func (m *MainStore) SnapshotValues() []param.Value {
	out := make([]param.Value, len(m.values))
	if m.proc != nil {
		for slot := range out {
			out[slot] = m.proc.Value(slot)
		}
		return out
	}
	copy(out, m.values)
	return out
}

// AddListener registers a change listener. Control-thread-only.
func (m *MainStore) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

func (m *MainStore) notifyChanged(id string, v param.Value) {
	for _, l := range m.listeners {
		l.ParameterChanged(id, v)
	}
}

// push hands a batch to the audio thread. Inactive stores have no
// counterpart to notify, which is not an error. A full queue surfaces
// ErrQueueTooFull instead of blocking.
func (m *MainStore) push(batch []slotUpdate) error {
	if m.queue == nil {
		return nil
	}
	select {
	case m.queue <- batch:
		return nil
	default:
		return ErrQueueTooFull
	}
}
