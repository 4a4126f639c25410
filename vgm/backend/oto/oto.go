//go:build !headless

// Package oto plays a Provider on the default audio device.
package oto

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/valerio/go-vgm/vgm/backend"
	"github.com/valerio/go-vgm/vgm/timing"
)

const (
	bufferTime     = 100 * time.Millisecond
	progressPeriod = 250 * time.Millisecond
	bytesPerFrame  = 4
)

var ErrNoProvider = errors.New("oto: no provider configured")

// Backend feeds the device from the oto callback. The provider is wrapped in
// a SyncProvider so the caller can keep using it while the device plays.
type Backend struct {
	ctx      *oto.Context
	player   *oto.Player
	config   backend.Config
	provider *backend.SyncProvider

	frames atomic.Int64
	done   chan struct{}
	once   sync.Once
	err    atomic.Pointer[error]
}

func New() *Backend {
	return &Backend{done: make(chan struct{})}
}

// Provider returns the serialized provider the device reads from.
func (b *Backend) Provider() *backend.SyncProvider {
	return b.provider
}

// Init opens the audio device. oto allows one context per process, so only
// one Backend may be initialized.
func (b *Backend) Init(config backend.Config) error {
	if config.Provider == nil {
		return ErrNoProvider
	}
	b.config = config
	b.provider = backend.NewSyncProvider(config.Provider)

	op := &oto.NewContextOptions{
		SampleRate:   config.Provider.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferTime,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return err
	}
	<-ready
	b.ctx = ctx
	b.player = ctx.NewPlayer(&reader{b: b})

	slog.Info("Audio device ready", "rate", op.SampleRate)
	return nil
}

// reader adapts the provider to the io.Reader oto pulls from.
type reader struct {
	b       *Backend
	samples []int16
}

func (r *reader) Read(p []byte) (int, error) {
	b := r.b
	want := len(p) / bytesPerFrame
	if limit := b.config.MaxFrames; limit > 0 {
		want = int(min(int64(want), limit-b.frames.Load()))
	}
	if want <= 0 {
		b.finish(nil)
		return 0, io.EOF
	}
	if cap(r.samples) < 2*want {
		r.samples = make([]int16, 2*want)
	}
	samples := r.samples[:2*want]

	n, err := b.provider.Play(want, samples)
	if err != nil {
		b.finish(err)
		return 0, err
	}
	for i, s := range samples[:2*n] {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(s))
	}
	b.frames.Add(int64(n))
	if n < want {
		b.finish(nil)
		if n == 0 {
			return 0, io.EOF
		}
	}
	return n * bytesPerFrame, nil
}

func (b *Backend) finish(err error) {
	b.once.Do(func() {
		if err != nil {
			b.err.Store(&err)
		}
		close(b.done)
	})
}

func (b *Backend) Run(ctx context.Context) (int64, error) {
	if b.player == nil {
		return 0, ErrNoProvider
	}
	ticker := timing.NewTickerLimiter(progressPeriod)
	defer ticker.Stop()

	b.player.Play()
	for {
		select {
		case <-ctx.Done():
			b.player.Pause()
			return b.frames.Load(), ctx.Err()
		case <-ticker.C():
			if cb := b.config.Callbacks.OnProgress; cb != nil {
				cb(b.frames.Load())
			}
			continue
		case <-b.done:
		}
		break
	}

	// let the device drain what it already pulled
	for b.player.IsPlaying() && b.player.BufferedSize() > 0 {
		select {
		case <-ctx.Done():
			return b.frames.Load(), ctx.Err()
		case <-ticker.C():
		}
	}
	if cb := b.config.Callbacks.OnQuit; cb != nil {
		cb()
	}
	if err := b.err.Load(); err != nil {
		return b.frames.Load(), *err
	}
	return b.frames.Load(), nil
}

func (b *Backend) Cleanup() error {
	if b.player == nil {
		return nil
	}
	err := b.player.Close()
	b.player = nil
	return err
}

var _ backend.Backend = (*Backend)(nil)
