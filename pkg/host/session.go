// Package host runs plugin components outside a DAW: it loads a render
// session from YAML, drives the component lifecycle block by block with
// sample-accurate automation, and writes or plays the result.
package host

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Stimulus names for effect sessions, which need an input signal.
const (
	StimulusSilence = "silence"
	StimulusImpulse = "impulse"
	StimulusSine    = "sine"
)

// Breakpoint is one automation anchor on a track, in seconds and
// normalized value.
type Breakpoint struct {
	Time  float64 `yaml:"time"`
	Value float64 `yaml:"value"`
}

// Track automates one parameter over the whole session.
type Track struct {
	Param  string       `yaml:"param"`
	Points []Breakpoint `yaml:"points"`
}

// Session describes one offline render.
type Session struct {
	Plugin     string  `yaml:"plugin"`
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	Duration   float64 `yaml:"duration"`

	// Stimulus selects the input signal for effect plugins. Synths
	// ignore it.
	Stimulus     string  `yaml:"stimulus"`
	StimulusFreq float64 `yaml:"stimulus_freq"`

	// Values are initial normalized parameter edits applied before the
	// first block.
	Values map[string]float64 `yaml:"values"`

	Automation []Track `yaml:"automation"`
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("host: read session: %w", err)
	}
	return ParseSession(data)
}

// ParseSession parses session YAML, fills defaults and validates.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, fmt.Errorf("host: parse session: %w", err)
	}
	if s.SampleRate == 0 {
		s.SampleRate = 48000
	}
	if s.BlockSize == 0 {
		s.BlockSize = 512
	}
	if s.Duration == 0 {
		s.Duration = 2
	}
	if s.Stimulus == "" {
		s.Stimulus = StimulusSilence
	}
	if s.StimulusFreq == 0 {
		s.StimulusFreq = 440
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Session) validate() error {
	if s.Plugin == "" {
		return fmt.Errorf("host: session names no plugin")
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("host: sample rate %v is not positive", s.SampleRate)
	}
	if s.BlockSize <= 0 {
		return fmt.Errorf("host: block size %d is not positive", s.BlockSize)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("host: duration %v is not positive", s.Duration)
	}
	switch s.Stimulus {
	case StimulusSilence, StimulusImpulse, StimulusSine:
	default:
		return fmt.Errorf("host: unknown stimulus %q", s.Stimulus)
	}
	for id, v := range s.Values {
		if v < 0 || v > 1 {
			return fmt.Errorf("host: initial value for %q is %v, want [0, 1]", id, v)
		}
	}
	for ti := range s.Automation {
		tr := &s.Automation[ti]
		if tr.Param == "" {
			return fmt.Errorf("host: automation track %d names no parameter", ti)
		}
		if !sort.SliceIsSorted(tr.Points, func(i, j int) bool {
			return tr.Points[i].Time < tr.Points[j].Time
		}) {
			return fmt.Errorf("host: track %q points are not sorted by time", tr.Param)
		}
		for _, p := range tr.Points {
			if p.Time < 0 {
				return fmt.Errorf("host: track %q has negative time %v", tr.Param, p.Time)
			}
			if p.Value < 0 || p.Value > 1 {
				return fmt.Errorf("host: track %q value %v outside [0, 1]", tr.Param, p.Value)
			}
		}
	}
	return nil
}

// TotalFrames returns the session length in frames.
func (s *Session) TotalFrames() int {
	return int(s.Duration * s.SampleRate)
}
