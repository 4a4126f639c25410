// Package stream frames the VGM command stream into whole commands.
package stream

import (
	"errors"
	"fmt"
)

var ErrTruncated = errors.New("vgm stream: command truncated")

// Command is one framed command. Data aliases the stream buffer and holds the
// opcode followed by its operands.
type Command struct {
	Offset int
	Data   []byte
}

// Op returns the opcode byte.
func (c Command) Op() uint8 {
	return c.Data[0]
}

// Arg returns operand i (0 is the byte after the opcode).
func (c Command) Arg(i int) uint8 {
	return c.Data[1+i]
}

// Cursor walks a command stream between two absolute offsets of a buffer the
// caller owns.
type Cursor struct {
	data  []byte
	start int
	end   int
	pos   int
}

// NewCursor creates a cursor over data[start:end], positioned at start.
func NewCursor(data []byte, start, end int) *Cursor {
	end = min(end, len(data))
	start = min(max(start, 0), end)
	return &Cursor{data: data, start: start, end: end, pos: start}
}

func (c *Cursor) Pos() int   { return c.pos }
func (c *Cursor) Start() int { return c.start }
func (c *Cursor) End() int   { return c.end }

// AtEnd reports whether no command remains.
func (c *Cursor) AtEnd() bool {
	return c.pos >= c.end
}

// Seek moves to an absolute offset, clamped into the stream.
func (c *Cursor) Seek(pos int) {
	c.pos = min(max(pos, c.start), c.end)
}

// Contains reports whether an absolute offset lies inside the stream.
func (c *Cursor) Contains(pos int) bool {
	return pos >= c.start && pos < c.end
}

// Peek frames the command at the cursor without consuming it.
func (c *Cursor) Peek() (Command, error) {
	if c.AtEnd() {
		return Command{}, fmt.Errorf("%w: at end of stream", ErrTruncated)
	}
	rest := c.data[c.pos:c.end]
	n, ok := Length(rest)
	if !ok || n > len(rest) {
		return Command{}, fmt.Errorf("%w: opcode 0x%02X at 0x%X", ErrTruncated, rest[0], c.pos)
	}
	return Command{Offset: c.pos, Data: rest[:n]}, nil
}

// Next frames and consumes the command at the cursor. A command whose operands
// run past the end moves the cursor to the end and returns ErrTruncated.
func (c *Cursor) Next() (Command, error) {
	cmd, err := c.Peek()
	if err != nil {
		c.pos = c.end
		return Command{}, err
	}
	c.pos += len(cmd.Data)
	return cmd, nil
}
