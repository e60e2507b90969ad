// Package automation turns sparse, time-stamped parameter change events
// into dense per-sample values.
package automation

import (
	"github.com/russellmcc/plugcore/pkg/framework/param"
)

// Point is one automation event in the native value domain. Offset is the
// sample index within the current buffer.
type Point struct {
	Offset int
	Value  param.Value
}

// BufferState describes one parameter's motion over a single buffer:
// either a constant value, or an ordered point list anchored at offset 0.
//
// Numeric points interpolate linearly; enum and switch points step.
// A BufferState is stateless iteration input: evaluating it never
// allocates and restarting from sample zero is free.
type BufferState struct {
	constant param.Value
	points   []Point
}

// Constant creates a buffer state holding a single value for every sample.
func Constant(v param.Value) BufferState {
	return BufferState{constant: v}
}

// Varying creates a buffer state from validated, strictly increasing
// points. Callers must supply the synthetic offset-0 anchor carrying the
// pre-buffer value; points[0].Offset is required to be 0.
func Varying(points []Point) BufferState {
	if len(points) == 0 {
		panic("automation: varying state needs at least one point")
	}
	if points[0].Offset != 0 {
		panic("automation: varying state must be anchored at offset 0")
	}
	return BufferState{points: points}
}

// IsConstant reports whether the state has no motion this buffer.
func (s BufferState) IsConstant() bool { return s.points == nil }

// Final returns the value at the end of the buffer: the constant, or the
// last point's value.
func (s BufferState) Final() param.Value {
	if s.points == nil {
		return s.constant
	}
	return s.points[len(s.points)-1].Value
}

// ValueAt evaluates the state at an arbitrary sample index. For repeated
// forward evaluation use a Cursor, which advances in amortized constant
// time.
func (s BufferState) ValueAt(i int) param.Value {
	c := s.Cursor()
	return c.ValueAt(i)
}

// Cursor returns a fresh forward iterator over the state.
func (s BufferState) Cursor() Cursor {
	return Cursor{state: s}
}

// Cursor evaluates a BufferState sample by sample. ValueAt must be called
// with non-decreasing indices; the cursor tracks the active segment so a
// full buffer sweep costs O(samples + points).
type Cursor struct {
	state BufferState
	seg   int
}

// ValueAt returns the state's value at sample index i.
func (c *Cursor) ValueAt(i int) param.Value {
	points := c.state.points
	if points == nil {
		return c.state.constant
	}

	for c.seg+1 < len(points) && points[c.seg+1].Offset <= i {
		c.seg++
	}
	left := points[c.seg]

	// Past the last point, or exactly on a point: hold its value.
	if c.seg+1 >= len(points) || left.Offset == i {
		return left.Value
	}

	right := points[c.seg+1]
	if left.Value.Kind() != param.KindNumeric {
		// Discrete domains step at each point.
		return left.Value
	}

	t := float32(i-left.Offset) / float32(right.Offset-left.Offset)
	v0 := left.Value.Numeric()
	v1 := right.Value.Numeric()
	return param.NumericValue(v0 + (v1-v0)*t)
}

// Numeric returns the numeric payload at sample index i. Only valid for
// numeric states; it exists so per-sample inner loops avoid the Value
// unwrap.
func (c *Cursor) Numeric(i int) float32 {
	return c.ValueAt(i).Numeric()
}
