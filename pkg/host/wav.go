package host

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV writes per-channel float buffers to a 16-bit PCM WAV file.
// Samples outside [-1, 1] are clipped.
func WriteWAV(path string, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("host: no channels to write")
	}
	frames := len(channels[0])
	for ch := range channels {
		if len(channels[ch]) != frames {
			return fmt.Errorf("host: channel %d has %d frames, want %d", ch, len(channels[ch]), frames)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("host: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           make([]int, frames*len(channels)),
		SourceBitDepth: wavBitDepth,
	}
	const scale = 1<<(wavBitDepth-1) - 1
	for i := 0; i < frames; i++ {
		for ch := range channels {
			s := channels[ch][i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			buf.Data[i*len(channels)+ch] = int(s * scale)
		}
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("host: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("host: finalize %s: %w", path, err)
	}
	return nil
}
