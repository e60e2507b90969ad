package plugin

import (
	"github.com/russellmcc/plugcore/pkg/framework/bus"
	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// Kind selects one of the supported plugin shapes. The set is closed;
// per-kind behavior lives in a table rather than open polymorphism.
type Kind int32

const (
	// KindEffect processes an input bus into an output bus.
	KindEffect Kind = iota
	// KindSynth generates audio with no input bus.
	KindSynth
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindSynth:
		return "synth"
	default:
		return "unknown"
	}
}

// Built-in parameter ids contributed by the kind table.
const (
	// BypassParamID is the effect bypass switch.
	BypassParamID = "builtin.bypass"
	// PitchBendParamID is the synth pitch bend wheel.
	PitchBendParamID = "builtin.pitchbend"
)

// kindSpec is one row of the kind table: bus layout, built-in parameters,
// and which built-in (if any) acts as the bypass.
type kindSpec struct {
	buses    func() *bus.Configuration
	builtins func() []param.Descriptor
	bypassID string
}

var kindSpecs = [...]kindSpec{
	KindEffect: {
		buses: bus.NewStereoEffect,
		builtins: func() []param.Descriptor {
			return []param.Descriptor{
				param.Switch(BypassParamID, "Bypass", false).WithShortTitle("Byp"),
			}
		},
		bypassID: BypassParamID,
	},
	KindSynth: {
		buses: bus.NewStereoSynth,
		builtins: func() []param.Descriptor {
			return []param.Descriptor{
				param.Numeric(PitchBendParamID, "Pitch Bend", 0, -1, 1).WithShortTitle("Bend"),
			}
		},
		bypassID: "",
	},
}

func specFor(k Kind) kindSpec {
	if int(k) < 0 || int(k) >= len(kindSpecs) {
		return kindSpecs[KindEffect]
	}
	return kindSpecs[k]
}
