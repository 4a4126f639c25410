package backend

import (
	"context"
	"sync"

	"github.com/valerio/go-vgm/vgm/audio"
)

// Backend is an audio output: a file, a device or nothing at all.
// Backends are responsible for:
// - Pulling samples from the Provider at their own pace
// - Stopping when the Provider ends, MaxFrames is reached or ctx is cancelled
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Run.
	Init(config Config) error

	// Run blocks until playback stops and returns the number of stereo
	// frames delivered.
	Run(ctx context.Context) (int64, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Provider  audio.Provider
	MaxFrames int64 // stop after this many frames, 0 plays until the end
	Callbacks Callbacks
}

// Callbacks allows backends to report to the caller. All are optional.
type Callbacks struct {
	// OnProgress is called periodically with the frames delivered so far.
	OnProgress func(frames int64)
	// OnQuit is called once when playback stops on its own.
	OnQuit func()
}

// SyncProvider serializes access to a Provider so that a device callback and
// the controlling goroutine can share it.
type SyncProvider struct {
	mu sync.Mutex
	p  audio.Provider
}

func NewSyncProvider(p audio.Provider) *SyncProvider {
	return &SyncProvider{p: p}
}

func (s *SyncProvider) Play(count int, out []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Play(count, out)
}

func (s *SyncProvider) SampleRate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.SampleRate()
}

func (s *SyncProvider) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Ended()
}

func (s *SyncProvider) MuteVoices(mask int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.MuteVoices(mask)
}

func (s *SyncProvider) Voices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Voices()
}

// Do runs fn with exclusive access to the wrapped provider.
func (s *SyncProvider) Do(fn func(p audio.Provider)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.p)
}

var _ audio.Provider = (*SyncProvider)(nil)
