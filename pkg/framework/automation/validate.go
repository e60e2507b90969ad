package automation

import (
	"errors"
	"fmt"
)

// ErrInvalidQueue is the sentinel for malformed automation input: unsorted
// or duplicate offsets, offsets beyond the buffer, or normalized values
// outside [0, 1]. A process call carrying any invalid queue is rejected as
// a whole, before any state is mutated.
var ErrInvalidQueue = errors.New("invalid automation queue")

// ChangePoint is one protocol-domain automation event: a sample offset and
// a normalized value in [0, 1].
type ChangePoint struct {
	Offset     int
	Normalized float64
}

// ValidatePoints checks a single parameter's queue against a buffer of
// frames samples. Offsets must be strictly increasing and below frames;
// normalized values must lie in [0, 1]. Empty queues are valid.
//
// frames may be zero: hosts use zero-length process calls to deliver
// events without audio, in which case only offset-0 points are legal.
func ValidatePoints(points []ChangePoint, frames int) error {
	prev := -1
	for i, p := range points {
		if p.Offset <= prev {
			return fmt.Errorf("%w: offset %d at index %d not strictly increasing", ErrInvalidQueue, p.Offset, i)
		}
		if frames == 0 {
			if p.Offset != 0 {
				return fmt.Errorf("%w: offset %d in zero-length buffer", ErrInvalidQueue, p.Offset)
			}
		} else if p.Offset >= frames {
			return fmt.Errorf("%w: offset %d beyond buffer of %d frames", ErrInvalidQueue, p.Offset, frames)
		}
		if p.Normalized < 0 || p.Normalized > 1 || p.Normalized != p.Normalized {
			return fmt.Errorf("%w: normalized value %v at index %d outside [0, 1]", ErrInvalidQueue, p.Normalized, i)
		}
		prev = p.Offset
	}
	return nil
}
