package oscillator

import (
	"math"
	"testing"
)

func TestSineStartsAtZero(t *testing.T) {
	o := New(48000)
	if got := o.Next(Sine); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("first sine sample = %v, want 0", got)
	}
}

func TestSquareToggles(t *testing.T) {
	o := New(4)
	o.SetFrequency(1) // one cycle over four samples
	wants := []float32{1, 1, -1, -1}
	for i, want := range wants {
		if got := o.Next(Square); got != want {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}
}

func TestSawRange(t *testing.T) {
	o := New(1000)
	o.SetFrequency(100)
	for i := 0; i < 100; i++ {
		s := o.Next(Saw)
		if s < -1 || s > 1 {
			t.Fatalf("saw sample %d = %v outside [-1, 1]", i, s)
		}
	}
}

func TestResetReturnsPhaseToZero(t *testing.T) {
	o := New(48000)
	o.SetFrequency(1000)
	for i := 0; i < 17; i++ {
		o.Next(Sine)
	}
	o.Reset()
	if got := o.Next(Sine); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("first sample after Reset = %v, want 0", got)
	}
}
