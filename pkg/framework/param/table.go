package param

import "fmt"

// Table is the static, read-only catalog of an instance's parameters.
// It is built exactly once, during component initialization, and assigns
// each parameter a stable integer slot used for audio-thread dispatch.
type Table struct {
	descs  []Descriptor
	byID   map[string]int
	byHash map[uint32]int
	hashes []uint32
}

// NewTable builds a table from descriptors in registration order.
//
// A malformed descriptor, a duplicate id or a hash collision between two
// ids is a fatal configuration error: continuing with an ambiguous
// parameter catalog cannot be made safe, so NewTable panics rather than
// returning an error.
func NewTable(descs []Descriptor) *Table {
	t := &Table{
		descs:  make([]Descriptor, len(descs)),
		byID:   make(map[string]int, len(descs)),
		byHash: make(map[uint32]int, len(descs)),
		hashes: make([]uint32, len(descs)),
	}
	copy(t.descs, descs)

	for slot := range t.descs {
		d := &t.descs[slot]
		if err := d.Validate(); err != nil {
			panic(fmt.Sprintf("param: invalid descriptor: %v", err))
		}
		if prev, dup := t.byID[d.ID]; dup {
			panic(fmt.Sprintf("param: duplicate parameter id %q (slots %d and %d)", d.ID, prev, slot))
		}
		hash := HashID(d.ID)
		if prev, collision := t.byHash[hash]; collision {
			panic(fmt.Sprintf("param: id hash collision between %q and %q", t.descs[prev].ID, d.ID))
		}
		t.byID[d.ID] = slot
		t.byHash[hash] = slot
		t.hashes[slot] = hash
	}
	return t
}

// Count returns the number of parameters.
func (t *Table) Count() int { return len(t.descs) }

// BySlot returns the descriptor at a slot. Panics on an invalid slot, as
// slots only come from the table itself.
func (t *Table) BySlot(slot int) *Descriptor { return &t.descs[slot] }

// Hash returns the dispatch hash of the parameter at a slot.
func (t *Table) Hash(slot int) uint32 { return t.hashes[slot] }

// SlotByID looks up a parameter slot by its string id.
func (t *Table) SlotByID(id string) (int, bool) {
	slot, ok := t.byID[id]
	return slot, ok
}

// SlotByHash looks up a parameter slot by its dispatch hash.
func (t *Table) SlotByHash(hash uint32) (int, bool) {
	slot, ok := t.byHash[hash]
	return slot, ok
}

// ByID looks up a descriptor by its string id.
func (t *Table) ByID(id string) (*Descriptor, bool) {
	slot, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.descs[slot], true
}

// Defaults returns every parameter's default value, indexed by slot.
func (t *Table) Defaults() []Value {
	values := make([]Value, len(t.descs))
	for slot := range t.descs {
		values[slot] = t.descs[slot].DefaultValue()
	}
	return values
}
