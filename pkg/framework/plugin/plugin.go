// Package plugin provides the component at the top of the processing
// core: a lifecycle state machine gating a dual parameter store, the
// automation evaluator and the snapshot codec.
package plugin

import (
	"github.com/russellmcc/plugcore/pkg/framework/param"
	"github.com/russellmcc/plugcore/pkg/framework/process"
)

// Info identifies a plugin.
type Info struct {
	Name    string
	Vendor  string
	Version string
	Kind    Kind
}

// Environment captures the host processing configuration delivered before
// activation.
type Environment struct {
	SampleRate   float64
	MaxBlockSize int
	// Offline is set when the host renders faster than real time.
	Offline bool
}

// Plugin is the authoring surface: identity, the parameter catalog, and a
// processor factory invoked on each activation.
type Plugin interface {
	Info() Info
	Parameters() []param.Descriptor
	CreateProcessor(env Environment) Processor
}

// Processor does the per-buffer audio work. ProcessAudio runs on the
// audio thread and must not allocate, block or panic; parameter values
// arrive through the context's per-sample accessors.
type Processor interface {
	ProcessAudio(ctx *process.Context)
	// Reset clears voice/filter state, called when processing restarts.
	Reset()
}
