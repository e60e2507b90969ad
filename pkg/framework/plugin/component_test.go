package plugin

import (
	"errors"
	"math"
	"testing"

	"github.com/russellmcc/plugcore/pkg/framework/automation"
	"github.com/russellmcc/plugcore/pkg/framework/param"
	"github.com/russellmcc/plugcore/pkg/framework/process"
)

type testPlugin struct {
	kind Kind
}

func (p *testPlugin) Info() Info {
	return Info{Name: "Test Gain", Vendor: "plugcore", Version: "1.0.0", Kind: p.kind}
}

func (p *testPlugin) Parameters() []param.Descriptor {
	return []param.Descriptor{
		param.Numeric("gain", "Gain", 1, 0, 10),
		param.Enum("mode", "Mode", 0, "Clean", "Drive"),
	}
}

func (p *testPlugin) CreateProcessor(env Environment) Processor {
	return &gainProcessor{}
}

// gainProcessor multiplies input by the per-sample gain value.
type gainProcessor struct {
	resets int
}

func (g *gainProcessor) Reset() { g.resets++ }

func (g *gainProcessor) ProcessAudio(ctx *process.Context) {
	slot, _ := ctx.Slot("gain")
	for i := 0; i < ctx.NumSamples(); i++ {
		gain := ctx.Numeric(slot, i)
		for ch := range ctx.Output {
			ctx.Output[ch][i] = ctx.Input[ch][i] * gain
		}
	}
}

func testEnv() Environment {
	return Environment{SampleRate: 48000, MaxBlockSize: 128}
}

// readyComponent drives a component to the processing state.
func readyComponent(t *testing.T) *Component {
	t.Helper()
	c := NewComponent(&testPlugin{kind: KindEffect})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.SetupProcessing(testEnv()); err != nil {
		t.Fatalf("SetupProcessing: %v", err)
	}
	if err := c.SetActive(true); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := c.SetProcessing(true); err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	return c
}

func stereoData(frames int) *process.Data {
	in := [][]float32{make([]float32, frames), make([]float32, frames)}
	out := [][]float32{make([]float32, frames), make([]float32, frames)}
	for ch := range in {
		for i := range in[ch] {
			in[ch][i] = 1
		}
	}
	return &process.Data{Input: in, Output: out, Frames: frames}
}

func TestLifecycleOrdering(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Component) error
	}{
		{"terminate before initialize", func(c *Component) error {
			return c.Terminate()
		}},
		{"duplicate initialize", func(c *Component) error {
			if err := c.Initialize(); err != nil {
				return err
			}
			return c.Initialize()
		}},
		{"activate before initialize", func(c *Component) error {
			return c.SetActive(true)
		}},
		{"activate before setupProcessing", func(c *Component) error {
			if err := c.Initialize(); err != nil {
				return err
			}
			return c.SetActive(true)
		}},
		{"setupProcessing while active", func(c *Component) error {
			if err := c.Initialize(); err != nil {
				return err
			}
			if err := c.SetupProcessing(testEnv()); err != nil {
				return err
			}
			if err := c.SetActive(true); err != nil {
				return err
			}
			return c.SetupProcessing(testEnv())
		}},
		{"terminate while active", func(c *Component) error {
			if err := c.Initialize(); err != nil {
				return err
			}
			if err := c.SetupProcessing(testEnv()); err != nil {
				return err
			}
			if err := c.SetActive(true); err != nil {
				return err
			}
			return c.Terminate()
		}},
		{"setProcessing before initialize", func(c *Component) error {
			return c.SetProcessing(true)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := NewComponent(&testPlugin{kind: KindEffect})
			if err := test.run(c); !errors.Is(err, ErrSequenceViolation) {
				t.Errorf("Expected ErrSequenceViolation, got %v", err)
			}
		})
	}
}

func TestProcessRequiresProcessingEnabled(t *testing.T) {
	c := NewComponent(&testPlugin{kind: KindEffect})
	c.Initialize()
	c.SetupProcessing(testEnv())
	c.SetActive(true)

	err := c.Process(stereoData(16))
	if !errors.Is(err, ErrSequenceViolation) {
		t.Fatalf("Expected ErrSequenceViolation before SetProcessing(true), got %v", err)
	}

	if err := c.SetProcessing(true); err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	if err := c.Process(stereoData(16)); err != nil {
		t.Fatalf("Process after enabling: %v", err)
	}
}

func TestTerminateAllowsReinitialize(t *testing.T) {
	c := NewComponent(&testPlugin{kind: KindEffect})
	c.Initialize()
	if err := c.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize after Terminate: %v", err)
	}
}

func TestProcessAppliesConstantGain(t *testing.T) {
	c := readyComponent(t)

	if err := c.SetParam("gain", param.NumericValue(2)); err != nil {
		t.Fatalf("SetParam: %v", err)
	}

	data := stereoData(8)
	if err := c.Process(data); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for ch := range data.Output {
		for i, v := range data.Output[ch] {
			if v != 2 {
				t.Fatalf("out[%d][%d] = %v, want 2 (edit must be visible at start of call)", ch, i, v)
			}
		}
	}
}

func TestProcessEvaluatesAutomationCurve(t *testing.T) {
	c := readyComponent(t)

	data := stereoData(10)
	data.Changes = []process.ParamChanges{{
		ID: "gain",
		Points: []process.ChangePoint{
			{Offset: 0, Normalized: 0},   // plain 0
			{Offset: 5, Normalized: 0.5}, // plain 5
			{Offset: 8, Normalized: 1},   // plain 10
		},
	}}

	if err := c.Process(data); err != nil {
		t.Fatalf("Process: %v", err)
	}

	wants := map[int]float64{
		2: 2.0,
		6: (6.0-5.0)/(8.0-5.0)*(10.0-5.0) + 5.0,
		9: 10.0,
	}
	for i, want := range wants {
		got := float64(data.Output[0][i])
		if math.Abs(got-want) > 1e-3 {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}

	// The final automated value persists into the next buffer.
	next := stereoData(4)
	if err := c.Process(next); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if got := next.Output[0][0]; got != 10 {
		t.Errorf("next buffer gain = %v, want 10", got)
	}
}

func TestProcessRejectsInvalidAutomation(t *testing.T) {
	tests := []struct {
		name    string
		changes []process.ParamChanges
	}{
		{"unsorted offsets", []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 100, Normalized: 0.5}, {Offset: 99, Normalized: 0.5}},
		}}},
		{"duplicate offsets", []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 99, Normalized: 0.1}, {Offset: 99, Normalized: 0.2}},
		}}},
		{"offset beyond buffer", []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 128, Normalized: 0.5}},
		}}},
		{"value out of range", []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 0, Normalized: 1.5}},
		}}},
		{"unknown parameter", []process.ParamChanges{{
			ID:     "nope",
			Points: []process.ChangePoint{{Offset: 0, Normalized: 0.5}},
		}}},
		{"duplicate queue", []process.ParamChanges{
			{ID: "gain", Points: []process.ChangePoint{{Offset: 0, Normalized: 0.5}}},
			{ID: "gain", Points: []process.ChangePoint{{Offset: 1, Normalized: 0.6}}},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := readyComponent(t)
			data := stereoData(128)
			data.Changes = test.changes

			err := c.Process(data)
			if !errors.Is(err, automation.ErrInvalidQueue) {
				t.Fatalf("Expected ErrInvalidQueue, got %v", err)
			}
			// The whole call is rejected: no audio written.
			for ch := range data.Output {
				for i, v := range data.Output[ch] {
					if v != 0 {
						t.Fatalf("out[%d][%d] = %v, want 0 on rejected call", ch, i, v)
					}
				}
			}
			// And the parameter kept its prior value.
			v, _ := c.GetParam("gain")
			if v.Numeric() != 1 {
				t.Errorf("gain = %v after rejected call, want 1", v.Numeric())
			}
		})
	}
}

func TestZeroFrameProcess(t *testing.T) {
	c := readyComponent(t)

	data := &process.Data{
		Frames: 0,
		Changes: []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 0, Normalized: 0.3}},
		}},
	}
	if err := c.Process(data); err != nil {
		t.Fatalf("zero-frame Process: %v", err)
	}
	v, _ := c.GetParam("gain")
	if math.Abs(float64(v.Numeric())-3) > 1e-4 {
		t.Errorf("gain = %v after zero-frame event, want 3", v.Numeric())
	}

	bad := &process.Data{
		Frames: 0,
		Changes: []process.ParamChanges{{
			ID:     "gain",
			Points: []process.ChangePoint{{Offset: 5, Normalized: 0.3}},
		}},
	}
	if err := c.Process(bad); !errors.Is(err, automation.ErrInvalidQueue) {
		t.Errorf("Expected ErrInvalidQueue for non-zero offset in zero-frame call, got %v", err)
	}
}

func TestBypassPassesInputThrough(t *testing.T) {
	c := readyComponent(t)

	if err := c.SetParam("gain", param.NumericValue(2)); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if err := c.SetParam(BypassParamID, param.SwitchValue(true)); err != nil {
		t.Fatalf("SetParam(bypass): %v", err)
	}

	data := stereoData(8)
	if err := c.Process(data); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, v := range data.Output[0] {
		if v != 1 {
			t.Fatalf("out[%d] = %v, want unprocessed input 1", i, v)
		}
	}
}

func TestStateRoundTripThroughComponent(t *testing.T) {
	c := readyComponent(t)
	c.SetParam("gain", param.NumericValue(7))
	c.SetParam("mode", param.EnumValue(1))

	blob, err := c.GetState()
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}

	// Restore into a fresh instance.
	c2 := NewComponent(&testPlugin{kind: KindEffect})
	c2.Initialize()
	if err := c2.SetState(blob); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	v, _ := c2.GetParam("gain")
	if v.Numeric() != 7 {
		t.Errorf("restored gain = %v, want 7", v.Numeric())
	}
	v, _ = c2.GetParam("mode")
	if v.Enum() != 1 {
		t.Errorf("restored mode = %d, want 1", v.Enum())
	}
}

func TestAutomationVisibleInGetState(t *testing.T) {
	c := readyComponent(t)

	data := stereoData(16)
	data.Changes = []process.ParamChanges{{
		ID:     "gain",
		Points: []process.ChangePoint{{Offset: 0, Normalized: 0}, {Offset: 8, Normalized: 0.9}},
	}}
	if err := c.Process(data); err != nil {
		t.Fatalf("Process: %v", err)
	}

	// A save right after processing reflects the final automated value.
	v, _ := c.GetParam("gain")
	if math.Abs(float64(v.Numeric())-9) > 1e-4 {
		t.Errorf("gain after automation = %v, want 9", v.Numeric())
	}
}

func TestEditBeforeInitializeIsInternalError(t *testing.T) {
	c := NewComponent(&testPlugin{kind: KindEffect})
	if err := c.SetParam("gain", param.NumericValue(1)); !errors.Is(err, ErrInternal) {
		t.Errorf("Expected ErrInternal, got %v", err)
	}
	if _, err := c.GetParam("gain"); !errors.Is(err, ErrInternal) {
		t.Errorf("Expected ErrInternal, got %v", err)
	}
}

func TestDeactivateWhileProcessingTolerated(t *testing.T) {
	c := readyComponent(t)

	// Host skips SetProcessing(false) before deactivating. Tolerated.
	if err := c.SetActive(false); err != nil {
		t.Fatalf("deactivate while processing on: %v", err)
	}
	if err := c.SetActive(true); err != nil {
		t.Fatalf("re-activate: %v", err)
	}
	if err := c.Process(stereoData(8)); err != nil {
		t.Fatalf("Process after re-activate: %v", err)
	}
}

func TestKindBuiltins(t *testing.T) {
	effect := NewComponent(&testPlugin{kind: KindEffect})
	effect.Initialize()
	if _, ok := effect.Table().SlotByID(BypassParamID); !ok {
		t.Error("effect should carry the built-in bypass")
	}
	if effect.Buses().InputChannels() != 2 {
		t.Error("effect layout should have a stereo input")
	}

	synth := NewComponent(&testPlugin{kind: KindSynth})
	synth.Initialize()
	if _, ok := synth.Table().SlotByID(PitchBendParamID); !ok {
		t.Error("synth should carry the built-in pitch bend")
	}
	if synth.Buses().InputChannels() != 0 {
		t.Error("synth layout should have no input bus")
	}
}

func TestIsActiveWithoutPayload(t *testing.T) {
	c := NewComponent(&testPlugin{kind: KindEffect})
	if c.IsActive() {
		t.Error("fresh component should be inactive")
	}
	c.Initialize()
	c.SetupProcessing(testEnv())
	c.SetActive(true)
	if !c.IsActive() {
		t.Error("component should report active")
	}
	c.SetActive(false)
	if c.IsActive() {
		t.Error("component should report inactive after deactivate")
	}
}

func TestProcessorResetOnProcessingRestart(t *testing.T) {
	c := readyComponent(t)
	proc := c.proc.processor.(*gainProcessor)

	c.SetProcessing(false)
	c.SetProcessing(true)
	if proc.resets != 2 {
		t.Errorf("Reset called %d times, want 2 (initial enable plus restart)", proc.resets)
	}
}
