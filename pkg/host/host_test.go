package host

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/russellmcc/plugcore/pkg/framework/param"
	"github.com/russellmcc/plugcore/pkg/framework/plugin"
	"github.com/russellmcc/plugcore/pkg/framework/process"
)

type scalePlugin struct{}

func (scalePlugin) Info() plugin.Info {
	return plugin.Info{Name: "Scale", Vendor: "Test", Version: "1.0.0", Kind: plugin.KindEffect}
}

func (scalePlugin) Parameters() []param.Descriptor {
	return []param.Descriptor{
		param.Numeric("scale.amount", "Amount", 1, 0, 1),
	}
}

func (scalePlugin) CreateProcessor(env plugin.Environment) plugin.Processor {
	return &scaleProcessor{}
}

type scaleProcessor struct{}

func (p *scaleProcessor) Reset() {}

func (p *scaleProcessor) ProcessAudio(ctx *process.Context) {
	slot, _ := ctx.Slot("scale.amount")
	for i := 0; i < ctx.NumSamples(); i++ {
		amount := ctx.Numeric(slot, i)
		for ch := range ctx.Output {
			ctx.Output[ch][i] = ctx.Input[ch][i] * amount
		}
	}
}

func init() {
	Register("scale", func() plugin.Plugin { return scalePlugin{} })
}

func TestParseSessionDefaults(t *testing.T) {
	s, err := ParseSession([]byte("plugin: scale\n"))
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	if s.SampleRate != 48000 || s.BlockSize != 512 || s.Duration != 2 {
		t.Errorf("defaults not applied: %+v", s)
	}
	if s.Stimulus != StimulusSilence {
		t.Errorf("default stimulus = %q, want silence", s.Stimulus)
	}
}

func TestParseSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no plugin", "sample_rate: 48000\n"},
		{"unknown field", "plugin: scale\nbogus: 1\n"},
		{"bad stimulus", "plugin: scale\nstimulus: noise\n"},
		{"value out of range", "plugin: scale\nvalues:\n  scale.amount: 1.5\n"},
		{"unsorted track", "plugin: scale\nautomation:\n- param: scale.amount\n  points:\n  - {time: 1.0, value: 0.5}\n  - {time: 0.5, value: 0.5}\n"},
		{"negative time", "plugin: scale\nautomation:\n- param: scale.amount\n  points:\n  - {time: -0.1, value: 0.5}\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ParseSession([]byte(test.yaml)); err == nil {
				t.Errorf("ParseSession accepted invalid session")
			}
		})
	}
}

func TestChangesForBlock(t *testing.T) {
	tracks := []Track{{
		Param: "scale.amount",
		Points: []Breakpoint{
			{Time: 0, Value: 0},
			{Time: 0.5, Value: 1},
			{Time: 2.0, Value: 0.25},
		},
	}}

	// 100 Hz: breakpoints land on frames 0, 50 and 200.
	changes := changesForBlock(tracks, 100, 0, 64)
	if len(changes) != 1 {
		t.Fatalf("got %d queues, want 1", len(changes))
	}
	want := []process.ChangePoint{{Offset: 0, Normalized: 0}, {Offset: 50, Normalized: 1}}
	got := changes[0].Points
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if changes := changesForBlock(tracks, 100, 64, 64); len(changes) != 0 {
		t.Errorf("block with no breakpoints got %d queues", len(changes))
	}

	changes = changesForBlock(tracks, 100, 192, 64)
	if len(changes) != 1 || changes[0].Points[0].Offset != 8 {
		t.Errorf("frame 200 should land at offset 8 in block starting 192, got %+v", changes)
	}
}

func TestChangesForBlockCoincidentFrames(t *testing.T) {
	// At 10 Hz both breakpoints round to frame 5; the later value wins.
	tracks := []Track{{
		Param: "scale.amount",
		Points: []Breakpoint{
			{Time: 0.50, Value: 0.2},
			{Time: 0.54, Value: 0.8},
		},
	}}
	changes := changesForBlock(tracks, 10, 0, 10)
	if len(changes) != 1 || len(changes[0].Points) != 1 {
		t.Fatalf("got %+v, want one merged point", changes)
	}
	p := changes[0].Points[0]
	if p.Offset != 5 || p.Normalized != 0.8 {
		t.Errorf("merged point = %+v, want offset 5 value 0.8", p)
	}
}

func TestRenderSession(t *testing.T) {
	sess, err := ParseSession([]byte(`
plugin: scale
sample_rate: 100
block_size: 16
duration: 0.5
stimulus: sine
stimulus_freq: 10
values:
  scale.amount: 1.0
automation:
- param: scale.amount
  points:
  - {time: 0.25, value: 0.0}
`))
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}

	r, err := NewRunner(sess, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	defer r.Close()

	out, err := r.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d channels, want 2", len(out))
	}
	if len(out[0]) != sess.TotalFrames() {
		t.Errorf("got %d frames, want %d", len(out[0]), sess.TotalFrames())
	}

	// Full scale before the automation point, silence at the end.
	if out[0][2] == 0 {
		t.Errorf("expected signal at frame 2 before automation ramp")
	}
	if got := out[0][len(out[0])-1]; math.Abs(float64(got)) > 1e-6 {
		t.Errorf("expected silence at final frame, got %v", got)
	}
}

func TestRenderCancelled(t *testing.T) {
	sess, err := ParseSession([]byte("plugin: scale\nsample_rate: 100\nblock_size: 16\nduration: 1\n"))
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	r, err := NewRunner(sess, nil)
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx); err != context.Canceled {
		t.Errorf("Render with cancelled context = %v, want context.Canceled", err)
	}
}

func TestWriteWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	channels := [][]float32{
		{0, 0.5, -0.5, 2},
		{1, -1, 0.25, -2},
	}
	if err := WriteWAV(path, channels, 44100); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode written file: %v", err)
	}
	if buf.Format.SampleRate != 44100 || buf.Format.NumChannels != 2 {
		t.Errorf("format = %+v, want 44100 Hz stereo", buf.Format)
	}
	if len(buf.Data) != 8 {
		t.Errorf("got %d samples, want 8", len(buf.Data))
	}
	// Out-of-range input clips instead of wrapping.
	if buf.Data[6] != 32767 || buf.Data[7] != -32767 {
		t.Errorf("clipped samples = %d, %d", buf.Data[6], buf.Data[7])
	}
}

func TestWriteWAVMismatchedChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteWAV(path, [][]float32{{0, 0}, {0}}, 44100); err == nil {
		t.Errorf("WriteWAV accepted mismatched channel lengths")
	}
}

func TestCreateUnknownPlugin(t *testing.T) {
	if _, err := Create("no-such-plugin"); err == nil {
		t.Errorf("Create accepted unknown plugin name")
	}
}
