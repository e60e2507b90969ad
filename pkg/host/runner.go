package host

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/russellmcc/plugcore/pkg/framework/bus"
	"github.com/russellmcc/plugcore/pkg/framework/plugin"
	"github.com/russellmcc/plugcore/pkg/framework/process"
	"github.com/russellmcc/plugcore/pkg/framework/store"
	"github.com/russellmcc/plugcore/pkg/telemetry"
)

// Runner renders one session through a plugin component. It owns the
// component's lifecycle from initialize to terminate.
type Runner struct {
	sess    *Session
	comp    *plugin.Component
	metrics *telemetry.Metrics
}

// NewRunner creates the session's plugin, initializes a component for it
// and applies the session's initial values. Metrics may be nil.
func NewRunner(sess *Session, metrics *telemetry.Metrics) (*Runner, error) {
	p, err := Create(sess.Plugin)
	if err != nil {
		return nil, err
	}
	comp := plugin.NewComponent(p)
	if err := comp.Initialize(); err != nil {
		return nil, err
	}
	for id, v := range sess.Values {
		if err := comp.SetParamNormalized(id, v); err != nil {
			comp.Terminate()
			return nil, fmt.Errorf("host: initial value for %q: %w", id, err)
		}
	}
	return &Runner{sess: sess, comp: comp, metrics: metrics}, nil
}

// Component exposes the running component, for preset save and recall.
func (r *Runner) Component() *plugin.Component { return r.comp }

// SetParamNormalized forwards a live edit to the component, counting
// sync backpressure drops.
func (r *Runner) SetParamNormalized(id string, normalized float64) error {
	err := r.comp.SetParamNormalized(id, normalized)
	if errors.Is(err, store.ErrQueueTooFull) && r.metrics != nil {
		r.metrics.QueueFull.Inc()
	}
	return err
}

// Close terminates the component.
func (r *Runner) Close() error {
	if r.comp.IsActive() {
		if err := r.comp.SetActive(false); err != nil {
			return err
		}
	}
	return r.comp.Terminate()
}

// Render processes the whole session and returns one buffer per output
// channel. Cancelling the context stops between blocks.
func (r *Runner) Render(ctx context.Context) ([][]float32, error) {
	sess := r.sess
	total := sess.TotalFrames()

	if err := r.comp.SetupProcessing(plugin.Environment{
		SampleRate:   sess.SampleRate,
		MaxBlockSize: sess.BlockSize,
		Offline:      true,
	}); err != nil {
		return nil, err
	}
	if err := r.comp.SetActive(true); err != nil {
		return nil, err
	}
	if err := r.comp.SetProcessing(true); err != nil {
		return nil, err
	}

	buses := r.comp.Buses()
	inChannels := buses.InputChannels()
	outChannels := buses.OutputChannels()

	input := make([][]float32, inChannels)
	for ch := range input {
		input[ch] = make([]float32, sess.BlockSize)
	}
	output := make([][]float32, outChannels)
	for ch := range output {
		output[ch] = make([]float32, total)
	}

	glog.Infof("rendering %q: %d frames at %.0f Hz in blocks of %d",
		sess.Plugin, total, sess.SampleRate, sess.BlockSize)

	blockIn := make([][]float32, inChannels)
	blockOut := make([][]float32, outChannels)
	for start := 0; start < total; start += sess.BlockSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		frames := sess.BlockSize
		if start+frames > total {
			frames = total - start
		}
		for ch := range input {
			fillStimulus(input[ch][:frames], sess, start)
			blockIn[ch] = input[ch][:frames]
		}
		for ch := range output {
			blockOut[ch] = output[ch][start : start+frames]
		}

		data := process.Data{
			Input:   blockIn,
			Output:  blockOut,
			Frames:  frames,
			Changes: changesForBlock(sess.Automation, sess.SampleRate, start, frames),
		}
		if err := r.comp.Process(&data); err != nil {
			if r.metrics != nil {
				r.metrics.ProcessErrors.Inc()
			}
			return nil, fmt.Errorf("host: block at frame %d: %w", start, err)
		}
		if r.metrics != nil {
			r.metrics.ProcessCalls.Inc()
			r.metrics.FramesRendered.Add(float64(frames))
		}
	}

	if err := r.comp.SetProcessing(false); err != nil {
		return nil, err
	}
	if err := r.comp.SetActive(false); err != nil {
		return nil, err
	}
	glog.Infof("render complete: %d frames on %d channels", total, outChannels)
	return output, nil
}

// OutputChannels returns the component's output channel count.
func (r *Runner) OutputChannels() int {
	return r.comp.Buses().OutputChannels()
}

// HasInput reports whether the plugin takes audio input.
func (r *Runner) HasInput() bool {
	return r.comp.Buses().Count(bus.DirectionInput) > 0
}

// fillStimulus writes the session's input signal for one block starting
// at an absolute frame position.
func fillStimulus(buf []float32, sess *Session, start int) {
	switch sess.Stimulus {
	case StimulusImpulse:
		for i := range buf {
			if start+i == 0 {
				buf[i] = 1
			} else {
				buf[i] = 0
			}
		}
	case StimulusSine:
		step := 2 * math.Pi * sess.StimulusFreq / sess.SampleRate
		for i := range buf {
			buf[i] = float32(math.Sin(float64(start+i) * step))
		}
	default:
		for i := range buf {
			buf[i] = 0
		}
	}
}

// changesForBlock projects session-wide automation tracks onto one
// block's parameter queues. Breakpoints landing on the same frame keep
// the last value so queues stay strictly increasing.
func changesForBlock(tracks []Track, sampleRate float64, start, frames int) []process.ParamChanges {
	var changes []process.ParamChanges
	for ti := range tracks {
		tr := &tracks[ti]
		var points []process.ChangePoint
		for _, bp := range tr.Points {
			frame := int(bp.Time * sampleRate)
			if frame < start || frame >= start+frames {
				continue
			}
			offset := frame - start
			if n := len(points); n > 0 && points[n-1].Offset == offset {
				points[n-1].Normalized = bp.Value
				continue
			}
			points = append(points, process.ChangePoint{Offset: offset, Normalized: bp.Value})
		}
		if len(points) > 0 {
			changes = append(changes, process.ParamChanges{ID: tr.Param, Points: points})
		}
	}
	return changes
}
