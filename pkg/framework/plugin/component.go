package plugin

import (
	"fmt"
	"sync/atomic"

	"github.com/russellmcc/plugcore/pkg/framework/automation"
	"github.com/russellmcc/plugcore/pkg/framework/bus"
	"github.com/russellmcc/plugcore/pkg/framework/debug"
	"github.com/russellmcc/plugcore/pkg/framework/param"
	"github.com/russellmcc/plugcore/pkg/framework/process"
	"github.com/russellmcc/plugcore/pkg/framework/state"
	"github.com/russellmcc/plugcore/pkg/framework/store"
)

// Component is one plugin instance: the lifecycle state machine plus
// everything it gates.
//
// Thread contract: lifecycle, persistence and edit calls belong to the
// control thread; Process and SetProcessing belong to the audio thread.
// The host protocol guarantees the two families never overlap, and that
// SetActive/SetupProcessing never overlap Process. The processing payload
// (proc) is touched only by SetActive, SetProcessing and Process; the
// active flag is tracked redundantly outside it so control-thread-only
// queries never reach into audio-thread-owned data. Joint invariant:
// active is true exactly when proc is non-nil.
type Component struct {
	plugin Plugin
	log    *debug.Logger

	lc    lifecycle
	env   *Environment
	table *param.Table
	main  *store.MainStore
	buses *bus.Configuration

	active     atomic.Bool
	processing atomic.Bool
	proc       *processingContext

	queueDepth int
}

// processingContext is the audio-thread payload, constructed on activate
// and dropped on deactivate. All slices are pre-sized so Process does not
// allocate.
type processingContext struct {
	processor Processor
	store     *store.ProcessingStore
	ctx       *process.Context

	states  []automation.BufferState
	touched []int
	points  []automation.Point
	queued  []uint32 // per-slot generation marks for duplicate-queue detection
	gen     uint32

	bypassSlot int
}

// NewComponent creates an instance in the uninitialized state.
func NewComponent(p Plugin) *Component {
	return &Component{
		plugin:     p,
		log:        debug.Disabled(),
		queueDepth: store.DefaultQueueDepth,
	}
}

// SetLogger installs a diagnostics logger. Control-thread-only, intended
// to be called before Initialize.
func (c *Component) SetLogger(l *debug.Logger) {
	if l != nil {
		c.log = l
	}
}

// Info returns the plugin identity.
func (c *Component) Info() Info { return c.plugin.Info() }

// Initialize builds the parameter catalog and the control-thread store.
// The catalog is built exactly once per initialize; duplicate ids or hash
// collisions panic, since an ambiguous catalog cannot be made safe.
func (c *Component) Initialize() error {
	if err := c.lc.initialize(); err != nil {
		return err
	}
	spec := specFor(c.plugin.Info().Kind)
	descs := append(spec.builtins(), c.plugin.Parameters()...)
	c.table = param.NewTable(descs)
	c.main = store.NewMainStore(c.table)
	c.buses = spec.buses()
	c.log.Infof("initialized %q with %d parameters", c.plugin.Info().Name, c.table.Count())
	return nil
}

// Terminate releases everything Initialize built. Legal only while
// inactive; afterwards the component may be initialized again.
func (c *Component) Terminate() error {
	if err := c.lc.terminate(); err != nil {
		return err
	}
	c.table = nil
	c.main = nil
	c.buses = nil
	c.env = nil
	c.processing.Store(false)
	c.log.Infof("terminated")
	return nil
}

// SetupProcessing captures the processing environment. Fails while
// active.
func (c *Component) SetupProcessing(env Environment) error {
	if err := c.lc.requireInactive("setupProcessing"); err != nil {
		return err
	}
	if env.SampleRate <= 0 || env.MaxBlockSize <= 0 {
		return fmt.Errorf("%w: sample rate %v, max block size %d", ErrInvalidBlock, env.SampleRate, env.MaxBlockSize)
	}
	captured := env
	c.env = &captured
	c.log.Infof("environment: %.0f Hz, blocks up to %d", env.SampleRate, env.MaxBlockSize)
	return nil
}

// IsActive reports activation state. Answerable from the control thread
// without touching the processing payload.
func (c *Component) IsActive() bool { return c.active.Load() }

// SetActive activates or deactivates processing resources. Activation
// requires a configured environment and constructs the processor and the
// audio-thread store; deactivation pulls the audio thread's final values
// back into the control-thread store. Repeating the current state is a
// no-op.
func (c *Component) SetActive(on bool) error {
	if err := c.lc.requireInitialized("setActive"); err != nil {
		return err
	}
	if on == c.active.Load() {
		return nil
	}
	if on {
		if c.env == nil {
			return fmt.Errorf("%w: activate before setupProcessing", ErrSequenceViolation)
		}
		if err := c.lc.activate(); err != nil {
			return err
		}
		ps := c.main.Activate(c.queueDepth)
		pc := &processingContext{
			processor:  c.plugin.CreateProcessor(*c.env),
			store:      ps,
			ctx:        process.NewContext(c.env.MaxBlockSize, c.env.SampleRate, c.table),
			states:     make([]automation.BufferState, c.table.Count()),
			touched:    make([]int, 0, c.table.Count()),
			points:     make([]automation.Point, 0, 8*c.table.Count()+64),
			queued:     make([]uint32, c.table.Count()),
			bypassSlot: -1,
		}
		if id := specFor(c.plugin.Info().Kind).bypassID; id != "" {
			if slot, ok := c.table.SlotByID(id); ok {
				pc.bypassSlot = slot
			}
		}
		c.proc = pc
		c.active.Store(true)
		c.log.Infof("activated")
		return nil
	}

	// Hosts are tolerated calling deactivate while processing is still
	// logically on; the toggle survives for the next activation.
	if err := c.lc.deactivate(); err != nil {
		return err
	}
	c.active.Store(false)
	c.main.Deactivate()
	c.proc = nil
	c.log.Infof("deactivated")
	return nil
}

// SetProcessing toggles whether Process may produce audio. Legal in both
// the active and inactive states, tolerating hosts that flip it around
// deactivation against the nominal ordering.
func (c *Component) SetProcessing(on bool) error {
	if err := c.lc.requireInitialized("setProcessing"); err != nil {
		return err
	}
	was := c.processing.Swap(on)
	if on && !was && c.active.Load() {
		c.proc.processor.Reset()
	}
	return nil
}

// Process runs one buffer: drain control-thread edits, validate the
// automation input as a whole, evaluate curves, run the processor, and
// write final values back for the control thread to observe.
func (c *Component) Process(data *process.Data) error {
	if !c.active.Load() || !c.processing.Load() {
		return fmt.Errorf("%w: process while inactive or processing disabled", ErrSequenceViolation)
	}
	pc := c.proc

	pc.store.SyncFromMainThread()

	frames := data.Frames
	if frames < 0 || frames > pc.ctx.MaxBlockSize() {
		return fmt.Errorf("%w: %d frames outside configured maximum", ErrInvalidBlock, frames)
	}

	// Validate every queue before mutating anything; a rejected call
	// writes no audio and leaves all stores untouched.
	pc.gen++
	for qi := range data.Changes {
		q := &data.Changes[qi]
		slot, ok := c.table.SlotByID(q.ID)
		if !ok {
			return fmt.Errorf("%w: unknown parameter %q", automation.ErrInvalidQueue, q.ID)
		}
		if !c.table.BySlot(slot).Automatable {
			return fmt.Errorf("%w: parameter %q is not automatable", automation.ErrInvalidQueue, q.ID)
		}
		if pc.queued[slot] == pc.gen {
			return fmt.Errorf("%w: duplicate queue for parameter %q", automation.ErrInvalidQueue, q.ID)
		}
		pc.queued[slot] = pc.gen
		if err := automation.ValidatePoints(q.Points, frames); err != nil {
			return fmt.Errorf("parameter %q: %w", q.ID, err)
		}
	}

	if frames == 0 {
		// Event-only call: apply offset-0 values directly, no audio.
		for qi := range data.Changes {
			q := &data.Changes[qi]
			if len(q.Points) == 0 {
				continue
			}
			slot, _ := c.table.SlotByID(q.ID)
			desc := c.table.BySlot(slot)
			pc.store.SetValue(slot, desc.Denormalize(q.Points[len(q.Points)-1].Normalized))
		}
		return nil
	}

	// Absent queues mean "unchanged": every slot starts as a constant at
	// its current value.
	pc.touched = pc.touched[:0]
	pc.points = pc.points[:0]
	for slot := range pc.states {
		pc.states[slot] = automation.Constant(pc.store.Value(slot))
	}
	for qi := range data.Changes {
		q := &data.Changes[qi]
		if len(q.Points) == 0 {
			continue
		}
		slot, _ := c.table.SlotByID(q.ID)
		desc := c.table.BySlot(slot)
		start := len(pc.points)
		if q.Points[0].Offset != 0 {
			// Synthetic anchor carrying the pre-buffer value.
			pc.points = append(pc.points, automation.Point{Offset: 0, Value: pc.store.Value(slot)})
		}
		for _, p := range q.Points {
			pc.points = append(pc.points, automation.Point{Offset: p.Offset, Value: desc.Denormalize(p.Normalized)})
		}
		// If a later append grows the arena, this view keeps the old
		// backing array; it is read-only from here on.
		pc.states[slot] = automation.Varying(pc.points[start:len(pc.points):len(pc.points)])
		pc.touched = append(pc.touched, slot)
	}

	pc.ctx.Begin(data.Input, data.Output, frames)
	for slot := range pc.states {
		pc.ctx.SetCurve(slot, pc.states[slot])
	}

	if pc.bypassSlot >= 0 && pc.states[pc.bypassSlot].ValueAt(0).Switch() {
		pc.ctx.PassThrough()
	} else {
		pc.processor.ProcessAudio(pc.ctx)
	}

	for _, slot := range pc.touched {
		pc.store.SetValue(slot, pc.states[slot].Final())
	}
	return nil
}

// GetState serializes the current parameter snapshot. The read is
// tearing-tolerant: concurrent automation may leave it mixing pre- and
// post-update values across parameters, which the next save corrects.
func (c *Component) GetState() ([]byte, error) {
	if err := c.lc.requireInitialized("getState"); err != nil {
		return nil, err
	}
	return state.Encode(state.FromValues(c.table, c.main.SnapshotValues()))
}

// SetState restores a snapshot. Decode failures leave existing state
// untouched; a snapshot from a newer schema loads defaults successfully.
func (c *Component) SetState(data []byte) error {
	if err := c.lc.requireInitialized("setState"); err != nil {
		return err
	}
	snap, err := state.Decode(c.table, data)
	if err != nil {
		return err
	}
	return c.main.ReplaceAll(snap.Values())
}

// Buses returns the kind's static bus layout, nil before Initialize.
func (c *Component) Buses() *bus.Configuration { return c.buses }

// Table returns the parameter catalog, nil before Initialize.
func (c *Component) Table() *param.Table { return c.table }

// GetParam returns a parameter's current value.
func (c *Component) GetParam(id string) (param.Value, error) {
	if c.main == nil {
		return param.Value{}, fmt.Errorf("%w: edit before initialize", ErrInternal)
	}
	return c.main.Get(id)
}

// SetParam applies a programmatic edit in the native domain.
func (c *Component) SetParam(id string, v param.Value) error {
	if c.main == nil {
		return fmt.Errorf("%w: edit before initialize", ErrInternal)
	}
	return c.main.Set(id, v)
}

// SetParamNormalized applies a programmatic edit in the [0, 1] domain.
func (c *Component) SetParamNormalized(id string, normalized float64) error {
	if c.main == nil {
		return fmt.Errorf("%w: edit before initialize", ErrInternal)
	}
	return c.main.SetNormalized(id, normalized)
}

// SetGrabbed marks the beginning or end of an edit gesture.
func (c *Component) SetGrabbed(id string, grabbed bool) error {
	if c.main == nil {
		return fmt.Errorf("%w: edit before initialize", ErrInternal)
	}
	return c.main.SetGrabbed(id, grabbed)
}

// AddListener registers a store listener.
func (c *Component) AddListener(l store.Listener) error {
	if c.main == nil {
		return fmt.Errorf("%w: listener before initialize", ErrInternal)
	}
	c.main.AddListener(l)
	return nil
}
