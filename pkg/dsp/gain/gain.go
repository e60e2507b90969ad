// Package gain provides amplitude conversion helpers for per-sample
// processing code.
package gain

import "math"

// MinDB is the floor treated as silence.
const MinDB = -96.0

// DBToLinear converts a decibel value to linear amplitude. Values at or
// below MinDB return 0.
func DBToLinear(db float32) float32 {
	if db <= MinDB {
		return 0
	}
	return float32(math.Pow(10, float64(db)/20))
}

// LinearToDB converts a linear amplitude to decibels. Non-positive values
// return MinDB.
func LinearToDB(linear float32) float32 {
	if linear <= 0 {
		return MinDB
	}
	return float32(20 * math.Log10(float64(linear)))
}

// Apply multiplies a buffer in place by a constant linear gain.
func Apply(buf []float32, linear float32) {
	for i := range buf {
		buf[i] *= linear
	}
}
