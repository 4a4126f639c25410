// Package loader reads VGM images from disk, inflating gzip-compressed
// (.vgz) files transparently.
package loader

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxSize bounds the inflated size of an image.
const MaxSize = 64 << 20

var ErrTooLarge = errors.New("loader: image too large")

var gzipMagic = []byte{0x1F, 0x8B}

// Load reads the file at path and returns the raw VGM image.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return Decode(data)
}

// Decode returns data unchanged unless it is gzip-compressed, in which case
// it returns the inflated image.
func Decode(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(io.LimitReader(gz, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("loader: inflate: %w", err)
	}
	if len(out) > MaxSize {
		return nil, ErrTooLarge
	}
	return out, nil
}

// IsCompressed reports whether data starts with the gzip magic.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}
