// Package state serializes parameter snapshots for host-managed
// persistence and reconstructs them from bytes written by older or newer
// builds of the same plugin.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// Decode errors. A failed decode leaves existing plugin state untouched;
// the caller reports the failure upward.
var (
	// ErrCorrupted indicates structurally malformed bytes.
	ErrCorrupted = errors.New("state bytes corrupted")
	// ErrIncompatible indicates a known parameter id whose stored type
	// differs from the current descriptor. This signals an authoring
	// error, not version skew.
	ErrIncompatible = errors.New("state bytes incompatible with parameter types")
)

// Version is the schema version this build writes. Bytes tagged with a
// newer version decode to all-defaults rather than failing: silently
// running with defaults is safer for the user than refusing to load.
const Version uint32 = 1

var magic = [4]byte{'P', 'C', 'S', 'N'}

// Wire type tags. Fixed, independent of param.Kind ordering.
const (
	tagNumeric byte = 1
	tagEnum    byte = 2
	tagSwitch  byte = 3
)

// Entry is one id/value pair of a snapshot.
type Entry struct {
	ID    string
	Value param.Value
}

// Snapshot is a complete point-in-time mapping of parameter id to value,
// plus the schema version it was written with. Snapshots built by this
// package hold one entry per table slot, in slot order.
type Snapshot struct {
	Version uint32
	Entries []Entry
}

// FromValues builds a snapshot from slot-indexed values.
func FromValues(table *param.Table, values []param.Value) Snapshot {
	entries := make([]Entry, table.Count())
	for slot := range entries {
		entries[slot] = Entry{ID: table.BySlot(slot).ID, Value: values[slot]}
	}
	return Snapshot{Version: Version, Entries: entries}
}

// Defaults builds the all-defaults snapshot for a table.
func Defaults(table *param.Table) Snapshot {
	return FromValues(table, table.Defaults())
}

// Values returns the snapshot's values in entry order.
func (s Snapshot) Values() []param.Value {
	values := make([]param.Value, len(s.Entries))
	for i, e := range s.Entries {
		values[i] = e.Value
	}
	return values
}

// Get returns the value stored for an id.
func (s Snapshot) Get(id string) (param.Value, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e.Value, true
		}
	}
	return param.Value{}, false
}

// Encode serializes a snapshot to an opaque byte stream: magic, schema
// version, entry count, then per entry a length-prefixed id, a type tag
// and the payload. Little-endian throughout.
func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	if err := binary.Write(&buf, binary.LittleEndian, s.Version); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(s.Entries))); err != nil {
		return nil, err
	}
	for _, e := range s.Entries {
		if len(e.ID) > 0xFFFF {
			return nil, fmt.Errorf("parameter id %q too long to encode", e.ID[:32])
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(len(e.ID))); err != nil {
			return nil, err
		}
		buf.WriteString(e.ID)
		switch e.Value.Kind() {
		case param.KindNumeric:
			buf.WriteByte(tagNumeric)
			if err := binary.Write(&buf, binary.LittleEndian, e.Value.Numeric()); err != nil {
				return nil, err
			}
		case param.KindEnum:
			buf.WriteByte(tagEnum)
			if err := binary.Write(&buf, binary.LittleEndian, e.Value.Enum()); err != nil {
				return nil, err
			}
		case param.KindSwitch:
			buf.WriteByte(tagSwitch)
			if e.Value.Switch() {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		default:
			return nil, fmt.Errorf("cannot encode value of kind %v", e.Value.Kind())
		}
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a snapshot against the current descriptor table.
//
// Policy: malformed structure returns ErrCorrupted; a known id with a
// mismatched type tag returns ErrIncompatible; a schema version newer than
// this build decodes to all-defaults and success; unknown ids are dropped;
// ids the table expects but the bytes lack receive their defaults. Stored
// values that no longer pass the descriptor's range check also fall back
// to the default.
func Decode(table *param.Table, data []byte) (Snapshot, error) {
	r := bytes.NewReader(data)

	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return Snapshot{}, fmt.Errorf("%w: missing header", ErrCorrupted)
	}
	if gotMagic != magic {
		return Snapshot{}, fmt.Errorf("%w: bad magic", ErrCorrupted)
	}

	var version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return Snapshot{}, fmt.Errorf("%w: truncated version", ErrCorrupted)
	}
	if version > Version {
		// Forward skew: a newer build wrote these bytes. Load defaults.
		return Defaults(table), nil
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Snapshot{}, fmt.Errorf("%w: truncated entry count", ErrCorrupted)
	}
	if uint64(count) > uint64(len(data)) {
		return Snapshot{}, fmt.Errorf("%w: entry count %d exceeds payload", ErrCorrupted, count)
	}

	decoded := make(map[string]param.Value, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return Snapshot{}, fmt.Errorf("%w: truncated id length", ErrCorrupted)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return Snapshot{}, fmt.Errorf("%w: truncated id", ErrCorrupted)
		}
		id := string(idBytes)

		tag, err := r.ReadByte()
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: truncated type tag", ErrCorrupted)
		}

		var value param.Value
		switch tag {
		case tagNumeric:
			var f float32
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return Snapshot{}, fmt.Errorf("%w: truncated numeric payload", ErrCorrupted)
			}
			value = param.NumericValue(f)
		case tagEnum:
			var idx uint32
			if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
				return Snapshot{}, fmt.Errorf("%w: truncated enum payload", ErrCorrupted)
			}
			value = param.EnumValue(idx)
		case tagSwitch:
			b, err := r.ReadByte()
			if err != nil {
				return Snapshot{}, fmt.Errorf("%w: truncated switch payload", ErrCorrupted)
			}
			value = param.SwitchValue(b != 0)
		default:
			return Snapshot{}, fmt.Errorf("%w: unknown type tag %d", ErrCorrupted, tag)
		}

		desc, known := table.ByID(id)
		if !known {
			// Forward addition from another build; drop silently.
			continue
		}
		if desc.Kind() != value.Kind() {
			return Snapshot{}, fmt.Errorf("%w: parameter %q stored as %s, descriptor is %s",
				ErrIncompatible, id, value.Kind(), desc.Kind())
		}
		decoded[id] = value
	}

	values := table.Defaults()
	for slot := range values {
		desc := table.BySlot(slot)
		v, ok := decoded[desc.ID]
		if !ok {
			continue
		}
		if desc.CheckValue(v) != nil {
			continue // out-of-range for this build, keep the default
		}
		values[slot] = v
	}
	return FromValues(table, values), nil
}
