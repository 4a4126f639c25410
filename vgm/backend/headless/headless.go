// Package headless implements a Backend that renders without an audio
// device, to a WAV file or to nowhere.
package headless

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/valerio/go-vgm/vgm/backend"
	"github.com/valerio/go-vgm/vgm/timing"
)

const (
	defaultChunk = 1024
	bitDepth     = 16
	wavPCM       = 1
)

var ErrNoProvider = errors.New("headless: no provider configured")

// Backend pulls frames from the provider as fast as its limiter allows and
// encodes them as 16 bit stereo WAV.
type Backend struct {
	out     io.WriteSeeker
	enc     *wav.Encoder
	config  backend.Config
	limiter timing.Limiter
	chunk   int
}

type Option func(*Backend)

// WithLimiter paces each chunk, e.g. to play in real time without a device.
func WithLimiter(l timing.Limiter) Option {
	return func(b *Backend) { b.limiter = l }
}

// WithChunk sets the number of frames pulled per Play call.
func WithChunk(frames int) Option {
	return func(b *Backend) {
		if frames > 0 {
			b.chunk = frames
		}
	}
}

// New creates a backend writing to out. A nil out discards the audio.
func New(out io.WriteSeeker, opts ...Option) *Backend {
	b := &Backend{
		out:     out,
		limiter: timing.NewNoOpLimiter(),
		chunk:   defaultChunk,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Chunk returns the number of frames pulled per Play call.
func (b *Backend) Chunk() int {
	return b.chunk
}

func (b *Backend) Init(config backend.Config) error {
	if config.Provider == nil {
		return ErrNoProvider
	}
	b.config = config
	if b.out != nil {
		b.enc = wav.NewEncoder(b.out, config.Provider.SampleRate(), bitDepth, 2, wavPCM)
	}
	slog.Info("Running headless mode",
		"rate", config.Provider.SampleRate(),
		"max_frames", config.MaxFrames,
		"wav", b.out != nil)
	return nil
}

func (b *Backend) Run(ctx context.Context) (int64, error) {
	p := b.config.Provider
	if p == nil {
		return 0, ErrNoProvider
	}
	rate := int64(p.SampleRate())
	samples := make([]int16, 2*b.chunk)
	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: int(rate)},
		SourceBitDepth: bitDepth,
		Data:           make([]int, 2*b.chunk),
	}
	data := pcm.Data

	var frames, reported int64
	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		want := b.chunk
		if limit := b.config.MaxFrames; limit > 0 {
			want = int(min(int64(want), limit-frames))
		}
		if want <= 0 {
			break
		}

		n, err := p.Play(want, samples)
		if err != nil {
			return frames, err
		}
		if b.enc != nil && n > 0 {
			for i, s := range samples[:2*n] {
				data[i] = int(s)
			}
			pcm.Data = data[:2*n]
			if err := b.enc.Write(pcm); err != nil {
				return frames, err
			}
		}
		frames += int64(n)

		if cb := b.config.Callbacks.OnProgress; cb != nil && frames-reported >= rate {
			reported = frames
			cb(frames)
		}
		if n < want {
			break
		}
		b.limiter.WaitForNextFrame()
	}

	slog.Info("Headless execution completed", "frames", frames)
	if cb := b.config.Callbacks.OnQuit; cb != nil {
		cb()
	}
	return frames, nil
}

// Cleanup finalizes the WAV header. The caller still owns and closes out.
func (b *Backend) Cleanup() error {
	if b.enc == nil {
		return nil
	}
	enc := b.enc
	b.enc = nil
	return enc.Close()
}

var _ backend.Backend = (*Backend)(nil)
