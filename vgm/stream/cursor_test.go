package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"psg write", []byte{0x50, 0x9F}, 2},
		{"psg stereo", []byte{0x4F, 0xFF}, 2},
		{"second psg write", []byte{0x30, 0x9F}, 2},
		{"ym2413 write", []byte{0x51, 0x0E, 0x20}, 3},
		{"ym2612 write", []byte{0x52, 0x2A, 0x80}, 3},
		{"wait n", []byte{0x61, 0x44, 0xAC}, 3},
		{"wait 735", []byte{0x62}, 1},
		{"short wait", []byte{0x7F}, 1},
		{"dac write", []byte{0x83}, 1},
		{"end", []byte{0x66}, 1},
		{"pcm ram write", []byte{0x68}, 12},
		{"dac setup", []byte{0x90}, 5},
		{"dac frequency", []byte{0x92}, 6},
		{"dac start", []byte{0x93}, 11},
		{"dac stop", []byte{0x94}, 2},
		{"dac start block", []byte{0x95}, 5},
		{"ay8910", []byte{0xA0}, 3},
		{"segapcm", []byte{0xC0}, 4},
		{"ymf278b", []byte{0xD0}, 4},
		{"pcm seek", []byte{0xE0}, 5},
		{"reserved 0x4x", []byte{0x40}, 2},
		{"reserved 0xFx", []byte{0xFF}, 5},
		{"data block", []byte{0x67, 0x66, 0x00, 0x04, 0x00, 0x00, 0x80}, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Length(tt.data)
			require.True(t, ok)
			assert.Equal(t, tt.want, n)
		})
	}

	_, ok := Length([]byte{0x67, 0x66, 0x00})
	assert.False(t, ok)
}

func TestWait(t *testing.T) {
	tests := []struct {
		data []byte
		want int
	}{
		{[]byte{0x61, 0x44, 0xAC}, 0xAC44},
		{[]byte{0x62}, 735},
		{[]byte{0x63}, 882},
		{[]byte{0x70}, 1},
		{[]byte{0x7F}, 16},
		{[]byte{0x80}, 0},
		{[]byte{0x8F}, 15},
		{[]byte{0x50, 0x00}, 0},
	}

	for _, tt := range tests {
		got := Wait(Command{Data: tt.data})
		if got != tt.want {
			t.Errorf("Wait(% X) = %d; want %d", tt.data, got, tt.want)
		}
	}
}

func TestCursorNext(t *testing.T) {
	data := []byte{0xAA, 0x50, 0x9F, 0x62, 0x66, 0xBB}
	c := NewCursor(data, 1, 5)

	cmd, err := c.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, cmd.Offset)
	assert.Equal(t, uint8(0x50), cmd.Op())
	assert.Equal(t, uint8(0x9F), cmd.Arg(0))

	cmd, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x62), cmd.Op())

	cmd, err = c.Next()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x66), cmd.Op())
	assert.True(t, c.AtEnd())

	_, err = c.Next()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestCursorFramesRegisterWrites(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ops  []uint8
	}{
		{"psg then waits", []byte{0x50, 0x9F, 0x62, 0x66}, []uint8{0x50, 0x62, 0x66}},
		{"psg then long wait", []byte{0x50, 0x9F, 0x61, 0x44, 0xAC, 0x66}, []uint8{0x50, 0x61, 0x66}},
		{"back to back psg", []byte{0x50, 0x9F, 0x50, 0xBF, 0x4F, 0xFF, 0x66}, []uint8{0x50, 0x50, 0x4F, 0x66}},
		{"psg then ym2612", []byte{0x50, 0x9F, 0x52, 0x2B, 0x80, 0x63}, []uint8{0x50, 0x52, 0x63}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.data, 0, len(tt.data))
			var got []uint8
			for !c.AtEnd() {
				cmd, err := c.Next()
				require.NoError(t, err)
				got = append(got, cmd.Op())
			}
			assert.Equal(t, tt.ops, got)
		})
	}
}

func TestCursorTruncated(t *testing.T) {
	data := []byte{0x62, 0x52, 0x2A}
	c := NewCursor(data, 0, len(data))

	_, err := c.Next()
	require.NoError(t, err)

	_, err = c.Next()
	assert.ErrorIs(t, err, ErrTruncated)
	assert.True(t, c.AtEnd())
	assert.Equal(t, len(data), c.Pos())
}

func TestCursorTruncatedDataBlock(t *testing.T) {
	data := []byte{0x67, 0x66, 0x00, 0x10, 0x00, 0x00, 0x00, 0x01, 0x02}
	c := NewCursor(data, 0, len(data))

	_, err := c.Next()
	assert.ErrorIs(t, err, ErrTruncated)
	assert.True(t, c.AtEnd())
}

func TestCursorSeek(t *testing.T) {
	c := NewCursor(make([]byte, 16), 4, 12)
	c.Seek(0)
	assert.Equal(t, 4, c.Pos())
	c.Seek(100)
	assert.Equal(t, 12, c.Pos())
	assert.True(t, c.Contains(4))
	assert.False(t, c.Contains(12))
}

func TestCursorClampsEnd(t *testing.T) {
	c := NewCursor(make([]byte, 8), 2, 100)
	assert.Equal(t, 8, c.End())
}
