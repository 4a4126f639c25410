// Package disasm lists a VGM command stream in readable form.
package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-vgm/vgm/bit"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/interp"
	"github.com/valerio/go-vgm/vgm/stream"
)

// Line is a single disassembled command.
type Line struct {
	Offset int
	Time   int64 // VGM ticks elapsed before the command
	Loop   bool  // the command sits at the loop point
	Bytes  []byte
	Text   string
}

// String formats the line the way the CLI prints it.
func (l Line) String() string {
	mark := " "
	if l.Loop {
		mark = ">"
	}
	raw := l.Bytes
	more := ""
	if len(raw) > 6 {
		raw, more = raw[:6], " .."
	}
	return fmt.Sprintf("%s%08X %10d  %-20s %s", mark, l.Offset, l.Time, hexBytes(raw)+more, l.Text)
}

// DisassembleAt describes a single framed command.
func DisassembleAt(cmd stream.Command) string {
	op := cmd.Op()
	d := cmd.Data

	if stream.IsWait(op) {
		if op >= 0x80 {
			return fmt.Sprintf("ym2612 pcm write, wait %d", stream.Wait(cmd))
		}
		return fmt.Sprintf("wait %d", stream.Wait(cmd))
	}

	switch op {
	case stream.OpEnd:
		return "end"
	case stream.OpDataBlock:
		size := bit.LE32(d[3:])
		second := ""
		if size&^stream.DataBlockSizeMask != 0 {
			second = " #2"
		}
		return fmt.Sprintf("data block type 0x%02X, %d bytes%s", d[2], size&stream.DataBlockSizeMask, second)
	case stream.OpPCMRAMWrite:
		return fmt.Sprintf("pcm ram write type 0x%02X, read 0x%06X, write 0x%06X, %d bytes",
			d[2], bit.LE24(d[3:]), bit.LE24(d[6:]), bit.LE24(d[9:]))
	case stream.OpDACSetup:
		return fmt.Sprintf("dac %d setup chip 0x%02X port 0x%02X reg 0x%02X", d[1], d[2], d[3], d[4])
	case stream.OpDACSetData:
		return fmt.Sprintf("dac %d data bank 0x%02X step %d base %d", d[1], d[2], d[3], d[4])
	case stream.OpDACFrequency:
		return fmt.Sprintf("dac %d frequency %d Hz", d[1], bit.LE32(d[2:]))
	case stream.OpDACStart:
		return fmt.Sprintf("dac %d start offset 0x%X mode 0x%02X length %d",
			d[1], bit.LE32(d[2:]), d[6], bit.LE32(d[7:]))
	case stream.OpDACStop:
		if d[1] == 0xFF {
			return "dac stop all"
		}
		return fmt.Sprintf("dac %d stop", d[1])
	case stream.OpDACStartBlock:
		return fmt.Sprintf("dac %d start block %d flags 0x%02X", d[1], bit.LE16(d[2:]), d[4])
	case stream.OpPCMSeek:
		return fmt.Sprintf("pcm seek 0x%X", bit.LE32(d[1:]))
	}

	w, n := interp.Decode(cmd)
	if n == 0 {
		return fmt.Sprintf("unknown 0x%02X", op)
	}
	parts := make([]string, n)
	for i := range n {
		parts[i] = formatWrite(w[i])
	}
	return strings.Join(parts, "; ")
}

func formatWrite(w interp.Write) string {
	id := ""
	if w.ID != 0 {
		id = " #2"
	}
	return fmt.Sprintf("%s%s p%02X r%02X = %02X", w.Family, id, w.Port, w.Reg, w.Data)
}

// DisassembleRange lists up to count commands from the start of the stream
// (count <= 0 lists all of them). It stops at the first end command or at a
// truncated command, returning what it framed so far with the error.
func DisassembleRange(data []byte, hdr *header.Header, count int) ([]Line, error) {
	cur := stream.NewCursor(data, int(hdr.DataOffset), hdr.StreamEnd(len(data)))
	lines := make([]Line, 0, max(count, 0))

	var t int64
	for !cur.AtEnd() && (count <= 0 || len(lines) < count) {
		cmd, err := cur.Next()
		if err != nil {
			return lines, err
		}
		lines = append(lines, Line{
			Offset: cmd.Offset,
			Time:   t,
			Loop:   hdr.LoopOffset != 0 && cmd.Offset == int(hdr.LoopOffset),
			Bytes:  cmd.Data,
			Text:   DisassembleAt(cmd),
		})
		t += int64(stream.Wait(cmd))
		if cmd.Op() == stream.OpEnd {
			break
		}
	}
	return lines, nil
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
