// Package param provides parameter identity, typing and value conversion
// for plugin components.
package param

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
)

// Errors returned by value validation and lookup.
var (
	// ErrNotFound indicates an unknown parameter id.
	ErrNotFound = errors.New("parameter not found")
	// ErrWrongType indicates a value whose kind does not match the descriptor.
	ErrWrongType = errors.New("parameter value has wrong type")
	// ErrInvalidValue indicates an out-of-range numeric or unknown enum index.
	ErrInvalidValue = errors.New("parameter value out of range")
)

// NumericInfo describes a continuous parameter.
type NumericInfo struct {
	Default float32
	Min     float32
	Max     float32
	Unit    string
}

// EnumInfo describes a discrete parameter with named values.
type EnumInfo struct {
	Default uint32
	Values  []string
}

// SwitchInfo describes a boolean parameter.
type SwitchInfo struct {
	Default bool
}

// TypeInfo is the tagged union of per-kind descriptor data. Only the
// member selected by Kind is meaningful.
type TypeInfo struct {
	Kind    Kind
	Numeric NumericInfo
	Enum    EnumInfo
	Switch  SwitchInfo
}

// Descriptor describes one plugin parameter. Descriptors are immutable
// after table construction.
type Descriptor struct {
	ID          string
	Title       string
	ShortTitle  string
	Automatable bool
	Info        TypeInfo
}

// Numeric creates a numeric parameter descriptor.
func Numeric(id, title string, def, min, max float32) Descriptor {
	return Descriptor{
		ID:          id,
		Title:       title,
		ShortTitle:  title,
		Automatable: true,
		Info: TypeInfo{
			Kind:    KindNumeric,
			Numeric: NumericInfo{Default: def, Min: min, Max: max},
		},
	}
}

// Enum creates an enum parameter descriptor.
func Enum(id, title string, def uint32, values ...string) Descriptor {
	return Descriptor{
		ID:          id,
		Title:       title,
		ShortTitle:  title,
		Automatable: true,
		Info: TypeInfo{
			Kind: KindEnum,
			Enum: EnumInfo{Default: def, Values: values},
		},
	}
}

// Switch creates a switch parameter descriptor.
func Switch(id, title string, def bool) Descriptor {
	return Descriptor{
		ID:          id,
		Title:       title,
		ShortTitle:  title,
		Automatable: true,
		Info: TypeInfo{
			Kind:   KindSwitch,
			Switch: SwitchInfo{Default: def},
		},
	}
}

// WithUnit sets the unit string of a numeric descriptor.
func (d Descriptor) WithUnit(unit string) Descriptor {
	d.Info.Numeric.Unit = unit
	return d
}

// WithShortTitle sets the abbreviated title shown by space-constrained hosts.
func (d Descriptor) WithShortTitle(short string) Descriptor {
	d.ShortTitle = short
	return d
}

// NonAutomatable marks the parameter as not reachable by host automation.
func (d Descriptor) NonAutomatable() Descriptor {
	d.Automatable = false
	return d
}

// Kind returns the descriptor's value kind.
func (d *Descriptor) Kind() Kind { return d.Info.Kind }

// DefaultValue returns the descriptor's default as a typed value.
func (d *Descriptor) DefaultValue() Value {
	switch d.Info.Kind {
	case KindNumeric:
		return NumericValue(d.Info.Numeric.Default)
	case KindEnum:
		return EnumValue(d.Info.Enum.Default)
	default:
		return SwitchValue(d.Info.Switch.Default)
	}
}

// Validate checks the descriptor's own invariants: enum cardinality of at
// least two, and defaults within range.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("parameter has empty id")
	}
	switch d.Info.Kind {
	case KindNumeric:
		n := d.Info.Numeric
		if n.Max < n.Min {
			return fmt.Errorf("parameter %q: max %v below min %v", d.ID, n.Max, n.Min)
		}
		if n.Default < n.Min || n.Default > n.Max {
			return fmt.Errorf("parameter %q: default %v outside [%v, %v]", d.ID, n.Default, n.Min, n.Max)
		}
	case KindEnum:
		e := d.Info.Enum
		if len(e.Values) < 2 {
			return fmt.Errorf("parameter %q: enum needs at least two values, has %d", d.ID, len(e.Values))
		}
		if int(e.Default) >= len(e.Values) {
			return fmt.Errorf("parameter %q: default index %d outside %d values", d.ID, e.Default, len(e.Values))
		}
	case KindSwitch:
	default:
		return fmt.Errorf("parameter %q: unknown kind %d", d.ID, d.Info.Kind)
	}
	return nil
}

// CheckValue verifies that a value matches the descriptor's kind and lies
// within its range or cardinality.
func (d *Descriptor) CheckValue(v Value) error {
	if v.Kind() != d.Info.Kind {
		return fmt.Errorf("%w: parameter %q wants %s, got %s", ErrWrongType, d.ID, d.Info.Kind, v.Kind())
	}
	switch d.Info.Kind {
	case KindNumeric:
		n := d.Info.Numeric
		f := v.Numeric()
		if f < n.Min || f > n.Max || f != f {
			return fmt.Errorf("%w: parameter %q value %v outside [%v, %v]", ErrInvalidValue, d.ID, f, n.Min, n.Max)
		}
	case KindEnum:
		if int(v.Enum()) >= len(d.Info.Enum.Values) {
			return fmt.Errorf("%w: parameter %q enum index %d outside %d values", ErrInvalidValue, d.ID, v.Enum(), len(d.Info.Enum.Values))
		}
	}
	return nil
}

// Normalize converts a typed value to the protocol's [0, 1] domain.
func (d *Descriptor) Normalize(v Value) float64 {
	switch d.Info.Kind {
	case KindNumeric:
		n := d.Info.Numeric
		if n.Max <= n.Min {
			return 0
		}
		normalized := float64(v.Numeric()-n.Min) / float64(n.Max-n.Min)
		return clamp01(normalized)
	case KindEnum:
		count := len(d.Info.Enum.Values)
		return float64(v.Enum()) / float64(count-1)
	default:
		if v.Switch() {
			return 1
		}
		return 0
	}
}

// Denormalize converts a [0, 1] protocol value to a typed native value.
func (d *Descriptor) Denormalize(normalized float64) Value {
	normalized = clamp01(normalized)
	switch d.Info.Kind {
	case KindNumeric:
		n := d.Info.Numeric
		return NumericValue(n.Min + float32(normalized)*(n.Max-n.Min))
	case KindEnum:
		count := len(d.Info.Enum.Values)
		index := uint32(math.Floor(normalized * float64(count-1)))
		if int(index) >= count {
			index = uint32(count - 1)
		}
		return EnumValue(index)
	default:
		return SwitchValue(normalized > 0.5)
	}
}

// HashID derives the fixed-width dispatch hash for a parameter id.
func HashID(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
