// Package oscillator provides simple periodic waveform generators for
// synth processors.
package oscillator

import "math"

// Waveform selects the generated shape.
type Waveform int

const (
	// Sine is a pure sine wave.
	Sine Waveform = iota
	// Saw is a rising sawtooth.
	Saw
	// Square is a 50% duty square wave.
	Square
)

// Oscillator generates one periodic waveform sample at a time.
type Oscillator struct {
	sampleRate float64
	phase      float64
	phaseInc   float64
}

// New creates an oscillator at the given sample rate.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{sampleRate: sampleRate}
	o.SetFrequency(440)
	return o
}

// SetFrequency sets the output frequency in Hz.
func (o *Oscillator) SetFrequency(freq float64) {
	o.phaseInc = freq / o.sampleRate
}

// Reset returns the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Next generates the next sample of the selected waveform.
func (o *Oscillator) Next(w Waveform) float32 {
	var sample float32
	switch w {
	case Saw:
		sample = float32(2*o.phase - 1)
	case Square:
		if o.phase < 0.5 {
			sample = 1
		} else {
			sample = -1
		}
	default:
		sample = float32(math.Sin(2 * math.Pi * o.phase))
	}
	o.phase += o.phaseInc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return sample
}
