package loader

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestDecodePassesPlainImages(t *testing.T) {
	img := []byte("Vgm \x00\x01\x02")
	out, err := Decode(img)
	require.NoError(t, err)
	assert.Equal(t, img, out)
	assert.False(t, IsCompressed(img))
}

func TestDecodeInflates(t *testing.T) {
	img := bytes.Repeat([]byte("Vgm 0123"), 100)
	vgz := compress(t, img)
	assert.True(t, IsCompressed(vgz))

	out, err := Decode(vgz)
	require.NoError(t, err)
	assert.Equal(t, img, out)
}

func TestDecodeRejectsCorruptGzip(t *testing.T) {
	vgz := compress(t, []byte("Vgm 0123"))
	_, err := Decode(vgz[:len(vgz)-6])
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	img := []byte("Vgm payload")
	path := filepath.Join(dir, "song.vgz")
	require.NoError(t, os.WriteFile(path, compress(t, img), 0o644))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, img, out)

	_, err = Load(filepath.Join(dir, "missing.vgm"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
