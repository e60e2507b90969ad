package main

import (
	"math"

	"github.com/russellmcc/plugcore/pkg/dsp/gain"
	"github.com/russellmcc/plugcore/pkg/dsp/oscillator"
	"github.com/russellmcc/plugcore/pkg/framework/param"
	"github.com/russellmcc/plugcore/pkg/framework/plugin"
	"github.com/russellmcc/plugcore/pkg/framework/process"
	"github.com/russellmcc/plugcore/pkg/host"
)

func init() {
	host.Register("gain", func() plugin.Plugin { return gainPlugin{} })
	host.Register("wavesynth", func() plugin.Plugin { return synthPlugin{} })
}

// gainPlugin is a stereo gain effect with a sample-accurate level control.
type gainPlugin struct{}

func (gainPlugin) Info() plugin.Info {
	return plugin.Info{Name: "Gain", Vendor: "plugcore", Version: "1.0.0", Kind: plugin.KindEffect}
}

func (gainPlugin) Parameters() []param.Descriptor {
	return []param.Descriptor{
		param.Numeric("gain.db", "Gain", 0, gain.MinDB, 6).WithUnit("dB").WithShortTitle("Gain"),
	}
}

func (gainPlugin) CreateProcessor(env plugin.Environment) plugin.Processor {
	return &gainProcessor{}
}

type gainProcessor struct{}

func (p *gainProcessor) Reset() {}

func (p *gainProcessor) ProcessAudio(ctx *process.Context) {
	slot, _ := ctx.Slot("gain.db")
	for i := 0; i < ctx.NumSamples(); i++ {
		linear := gain.DBToLinear(ctx.Numeric(slot, i))
		for ch := range ctx.Output {
			ctx.Output[ch][i] = ctx.Input[ch][i] * linear
		}
	}
}

// synthPlugin is a monotimbral oscillator synth. Pitch bend spans plus or
// minus two semitones around the frequency control.
type synthPlugin struct{}

const bendSemitones = 2

func (synthPlugin) Info() plugin.Info {
	return plugin.Info{Name: "WaveSynth", Vendor: "plugcore", Version: "1.0.0", Kind: plugin.KindSynth}
}

func (synthPlugin) Parameters() []param.Descriptor {
	return []param.Descriptor{
		param.Numeric("osc.freq", "Frequency", 440, 20, 2000).WithUnit("Hz").WithShortTitle("Freq"),
		param.Enum("osc.waveform", "Waveform", 0, "Sine", "Saw", "Square").WithShortTitle("Wave"),
		param.Numeric("osc.level", "Level", 0.5, 0, 1).WithShortTitle("Lvl"),
	}
}

func (synthPlugin) CreateProcessor(env plugin.Environment) plugin.Processor {
	return &synthProcessor{osc: oscillator.New(env.SampleRate)}
}

type synthProcessor struct {
	osc *oscillator.Oscillator
}

func (p *synthProcessor) Reset() {
	p.osc.Reset()
}

func (p *synthProcessor) ProcessAudio(ctx *process.Context) {
	freqSlot, _ := ctx.Slot("osc.freq")
	waveSlot, _ := ctx.Slot("osc.waveform")
	levelSlot, _ := ctx.Slot("osc.level")
	bendSlot, _ := ctx.Slot(plugin.PitchBendParamID)

	for i := 0; i < ctx.NumSamples(); i++ {
		bend := float64(ctx.Numeric(bendSlot, i)) * bendSemitones
		freq := float64(ctx.Numeric(freqSlot, i)) * math.Pow(2, bend/12)
		p.osc.SetFrequency(freq)
		wave := oscillator.Waveform(ctx.EnumIndex(waveSlot, i))
		sample := p.osc.Next(wave) * ctx.Numeric(levelSlot, i)
		for ch := range ctx.Output {
			ctx.Output[ch][i] = sample
		}
	}
}
