package host

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Play sends per-channel float buffers to the default audio device and
// blocks until playback finishes or the context is cancelled.
func Play(ctx context.Context, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 {
		return fmt.Errorf("host: nothing to play")
	}
	frames := len(channels[0])

	// oto consumes interleaved little-endian float32.
	pcm := make([]byte, 0, frames*len(channels)*4)
	var scratch [4]byte
	for i := 0; i < frames; i++ {
		for ch := range channels {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(channels[ch][i]))
			pcm = append(pcm, scratch[:]...)
		}
	}

	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: len(channels),
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return fmt.Errorf("host: audio device: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	player := octx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Close()
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return player.Close()
}
