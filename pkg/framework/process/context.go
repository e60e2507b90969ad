// Package process provides the audio processing context handed to plugin
// processors on every buffer.
package process

import (
	"github.com/russellmcc/plugcore/pkg/framework/automation"
	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// ChangePoint re-exports the automation event type for host convenience.
type ChangePoint = automation.ChangePoint

// ParamChanges is one parameter's automation queue for a single process
// call. An empty point list is valid and ignored. At most one queue per
// parameter per call is legal.
type ParamChanges struct {
	ID     string
	Points []ChangePoint
}

// Data is the per-call input to Component.Process: audio buffers, the
// frame count, and optional sample-accurate parameter changes. Frames may
// be zero; hosts use zero-length calls to deliver events without audio,
// and then only offset-0 points are legal.
type Data struct {
	Input   [][]float32
	Output  [][]float32
	Frames  int
	Changes []ParamChanges
}

// Context provides buffer access and dense per-sample parameter values
// with zero allocations during processing. One context is built per
// activation, sized to the configured maximum block length, and reused
// across calls.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	frames  int
	table   *param.Table
	cursors []automation.Cursor

	workBuffer []float32
}

// NewContext creates a context with pre-allocated buffers.
func NewContext(maxBlockSize int, sampleRate float64, table *param.Table) *Context {
	return &Context{
		SampleRate: sampleRate,
		table:      table,
		cursors:    make([]automation.Cursor, table.Count()),
		workBuffer: make([]float32, maxBlockSize),
	}
}

// Begin points the context at the current call's buffers. Called by the
// component before each processor invocation.
func (c *Context) Begin(input, output [][]float32, frames int) {
	c.Input = input
	c.Output = output
	c.frames = frames
}

// SetCurve installs one parameter's buffer state, replacing the cursor
// from the previous call.
func (c *Context) SetCurve(slot int, s automation.BufferState) {
	c.cursors[slot] = s.Cursor()
}

// NumSamples returns the number of samples to process this call.
func (c *Context) NumSamples() int { return c.frames }

// NumInputChannels returns the number of input channels.
func (c *Context) NumInputChannels() int { return len(c.Input) }

// NumOutputChannels returns the number of output channels.
func (c *Context) NumOutputChannels() int { return len(c.Output) }

// Slot resolves a parameter id to its dispatch slot.
func (c *Context) Slot(id string) (int, bool) {
	return c.table.SlotByID(id)
}

// Value returns the value of a parameter slot at a sample index. Indices
// must not decrease within one call.
func (c *Context) Value(slot, i int) param.Value {
	return c.cursors[slot].ValueAt(i)
}

// Numeric returns the numeric value of a slot at a sample index.
func (c *Context) Numeric(slot, i int) float32 {
	return c.cursors[slot].Numeric(i)
}

// EnumIndex returns the enum index of a slot at a sample index.
func (c *Context) EnumIndex(slot, i int) uint32 {
	return c.cursors[slot].ValueAt(i).Enum()
}

// On returns the switch value of a slot at a sample index.
func (c *Context) On(slot, i int) bool {
	return c.cursors[slot].ValueAt(i).Switch()
}

// MaxBlockSize returns the configured maximum block length.
func (c *Context) MaxBlockSize() int { return cap(c.workBuffer) }

// WorkBuffer returns a scratch slice sized to the current block. No
// allocation.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.frames]
}

// PassThrough copies input to output, for bypass.
func (c *Context) PassThrough() {
	numChannels := len(c.Input)
	if len(c.Output) < numChannels {
		numChannels = len(c.Output)
	}
	for ch := 0; ch < numChannels; ch++ {
		copy(c.Output[ch][:c.frames], c.Input[ch][:c.frames])
	}
}

// Clear zeros the output buffers.
func (c *Context) Clear() {
	for ch := range c.Output {
		out := c.Output[ch][:c.frames]
		for i := range out {
			out[i] = 0
		}
	}
}
