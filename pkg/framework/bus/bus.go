// Package bus provides the static audio bus layouts of the supported
// plugin kinds. Layout negotiation is out of scope; each kind maps to one
// fixed configuration.
package bus

// Direction represents the bus direction.
type Direction int32

const (
	// DirectionInput represents an input bus.
	DirectionInput Direction = 0
	// DirectionOutput represents an output bus.
	DirectionOutput Direction = 1
)

// Info describes one audio bus.
type Info struct {
	Direction    Direction
	ChannelCount int
	Name         string
}

// Configuration is a fixed set of audio buses.
type Configuration struct {
	buses []Info
}

// NewStereoEffect creates the effect layout: stereo in, stereo out.
func NewStereoEffect() *Configuration {
	return &Configuration{
		buses: []Info{
			{Direction: DirectionInput, ChannelCount: 2, Name: "Stereo In"},
			{Direction: DirectionOutput, ChannelCount: 2, Name: "Stereo Out"},
		},
	}
}

// NewStereoSynth creates the synth layout: stereo out only.
func NewStereoSynth() *Configuration {
	return &Configuration{
		buses: []Info{
			{Direction: DirectionOutput, ChannelCount: 2, Name: "Stereo Out"},
		},
	}
}

// Count returns the number of buses in a direction.
func (c *Configuration) Count(direction Direction) int {
	count := 0
	for _, b := range c.buses {
		if b.Direction == direction {
			count++
		}
	}
	return count
}

// Get returns the bus at an index within a direction, or nil.
func (c *Configuration) Get(direction Direction, index int) *Info {
	n := 0
	for i := range c.buses {
		if c.buses[i].Direction == direction {
			if n == index {
				return &c.buses[i]
			}
			n++
		}
	}
	return nil
}

// InputChannels returns the channel count of the main input bus, zero when
// the layout has no input.
func (c *Configuration) InputChannels() int {
	if b := c.Get(DirectionInput, 0); b != nil {
		return b.ChannelCount
	}
	return 0
}

// OutputChannels returns the channel count of the main output bus.
func (c *Configuration) OutputChannels() int {
	if b := c.Get(DirectionOutput, 0); b != nil {
		return b.ChannelCount
	}
	return 0
}
