package vgm

import (
	"log/slog"

	"github.com/valerio/go-vgm/vgm/chip"
)

// Option configures a Track in New.
type Option func(*Track)

// WithSampleRate sets the output rate in Hz (default 44100).
func WithSampleRate(rate int) Option {
	return func(t *Track) { t.sampleRate = rate }
}

// WithTempo scales playback speed; 1 is the authored speed.
func WithTempo(tempo float64) Option {
	return func(t *Track) { t.tempo = tempo }
}

// WithOversampling renders stream-domain chips at 1.5x the output rate
// instead of their native rate (default on).
func WithOversampling(on bool) Option {
	return func(t *Track) { t.oversample = on }
}

// WithChipFactory builds the chip instances. The default builds silent chips.
func WithChipFactory(factory chip.Factory) Option {
	return func(t *Track) { t.factory = factory }
}

// WithLogger sends log output to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Track) { t.logger = logger }
}

// WithLoopLimit ends the track after n passes through the loop. Zero loops
// forever.
func WithLoopLimit(n int) Option {
	return func(t *Track) { t.loopLimit = n }
}

// WithGain scales the output of every chip (default 1).
func WithGain(gain float64) Option {
	return func(t *Track) { t.gain = gain }
}

// WithBass sets the high-pass cutoff of the blip buses in Hz (default 16, 0
// disables it).
func WithBass(hz int) Option {
	return func(t *Track) { t.bass = hz }
}
