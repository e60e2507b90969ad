package param

import "math"

// Kind identifies the value domain of a parameter.
type Kind int32

const (
	// KindNumeric is a continuous float32 value within a range.
	KindNumeric Kind = iota
	// KindEnum is an index into an ordered set of named values.
	KindEnum
	// KindSwitch is a boolean toggle.
	KindSwitch
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindEnum:
		return "enum"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// Value is a tagged union holding one parameter value. The tag always
// matches the owning descriptor's kind.
type Value struct {
	kind Kind
	num  float32
	idx  uint32
	on   bool
}

// NumericValue creates a numeric value.
func NumericValue(v float32) Value {
	return Value{kind: KindNumeric, num: v}
}

// EnumValue creates an enum index value.
func EnumValue(index uint32) Value {
	return Value{kind: KindEnum, idx: index}
}

// SwitchValue creates a switch value.
func SwitchValue(on bool) Value {
	return Value{kind: KindSwitch, on: on}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// Numeric returns the numeric payload. Only meaningful when Kind is KindNumeric.
func (v Value) Numeric() float32 { return v.num }

// Enum returns the enum index payload. Only meaningful when Kind is KindEnum.
func (v Value) Enum() uint32 { return v.idx }

// Switch returns the switch payload. Only meaningful when Kind is KindSwitch.
func (v Value) Switch() bool { return v.on }

// Equal reports whether two values have the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumeric:
		return v.num == o.num
	case KindEnum:
		return v.idx == o.idx
	default:
		return v.on == o.on
	}
}

// Pack encodes the value into a single uint64 bit pattern so it can be
// stored in one atomic cell. The kind lives in the high 32 bits, the
// payload in the low 32.
func (v Value) Pack() uint64 {
	var payload uint32
	switch v.kind {
	case KindNumeric:
		payload = math.Float32bits(v.num)
	case KindEnum:
		payload = v.idx
	case KindSwitch:
		if v.on {
			payload = 1
		}
	}
	return uint64(v.kind)<<32 | uint64(payload)
}

// Unpack decodes a bit pattern produced by Pack.
func Unpack(bits uint64) Value {
	kind := Kind(bits >> 32)
	payload := uint32(bits)
	switch kind {
	case KindEnum:
		return Value{kind: KindEnum, idx: payload}
	case KindSwitch:
		return Value{kind: KindSwitch, on: payload != 0}
	default:
		return Value{kind: KindNumeric, num: math.Float32frombits(payload)}
	}
}
