//go:build headless

package oto

import (
	"context"
	"errors"

	"github.com/valerio/go-vgm/vgm/backend"
)

var ErrUnavailable = errors.New("audio device not available - build without -tags headless to enable")

// Backend stub for builds without an audio device
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

// Provider returns nil, there is no device to share the provider with.
func (b *Backend) Provider() *backend.SyncProvider {
	return nil
}

// Init returns an error indicating no audio device is available
func (b *Backend) Init(config backend.Config) error {
	return ErrUnavailable
}

func (b *Backend) Run(ctx context.Context) (int64, error) {
	return 0, ErrUnavailable
}

// Cleanup does nothing
func (b *Backend) Cleanup() error {
	return nil
}

var _ backend.Backend = (*Backend)(nil)
