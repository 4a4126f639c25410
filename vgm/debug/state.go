// Package debug extracts read-only views of a playing track for status
// displays and dumps.
package debug

import (
	"fmt"
	"io"

	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/dac"
	"github.com/valerio/go-vgm/vgm/interp"
	"github.com/valerio/go-vgm/vgm/pcm"
)

type BankStatus struct {
	Type   uint8
	Bytes  int
	Blocks int
}

type StreamStatus struct {
	ID        uint8
	Chip      string
	ChipID    uint8
	Command   uint16
	Bank      uint8
	Frequency uint32
	Pos       uint32
	Remaining uint32
	Playing   bool
	Looping   bool
	Reverse   bool
}

// PlayerData is a snapshot of the interpreter and everything it drives.
type PlayerData struct {
	Offset    int
	LoopStart int
	Elapsed   int64
	Loops     int
	Ended     bool
	Warnings  int
	Warning   string
	PCMPos    int
	Banks     []BankStatus
	Streams   []StreamStatus
}

// ExtractPlayerData captures the current state of in.
func ExtractPlayerData(in *interp.Interp) *PlayerData {
	data := &PlayerData{
		Offset:    in.Pos(),
		LoopStart: in.LoopStart(),
		Elapsed:   in.Elapsed(),
		Loops:     in.Loops(),
		Ended:     in.Ended(),
		Warnings:  in.Warnings(),
		PCMPos:    in.PCMPos(),
	}
	if err := in.Warning(); err != nil {
		data.Warning = err.Error()
	}
	data.Banks = extractBanks(in.Banks())
	data.Streams = extractStreams(in.DAC())
	return data
}

func extractBanks(store *pcm.Store) []BankStatus {
	var out []BankStatus
	for typ := range pcm.BankCount {
		b := store.Bank(uint8(typ))
		if b.Len() == 0 {
			continue
		}
		out = append(out, BankStatus{Type: uint8(typ), Bytes: b.Len(), Blocks: len(b.Blocks)})
	}
	return out
}

func extractStreams(u *dac.Unit) []StreamStatus {
	var out []StreamStatus
	for _, c := range u.Channels() {
		name := "-"
		if f := chip.Family(c.ChipType & 0x7F); c.ChipType != 0xFF && f.Valid() {
			name = f.String()
		}
		out = append(out, StreamStatus{
			ID:        c.ID,
			Chip:      name,
			ChipID:    c.ChipID,
			Command:   c.Command,
			Bank:      c.Bank,
			Frequency: c.Frequency,
			Pos:       c.RealPos,
			Remaining: c.RemainCmds,
			Playing:   c.Playing(),
			Looping:   c.Looping(),
			Reverse:   c.Reverse,
		})
	}
	return out
}

// Dump writes data as plain text.
func (d *PlayerData) Dump(w io.Writer) {
	fmt.Fprintf(w, "offset 0x%X  elapsed %d  loops %d  ended %v\n", d.Offset, d.Elapsed, d.Loops, d.Ended)
	if d.LoopStart >= 0 {
		fmt.Fprintf(w, "loop start 0x%X\n", d.LoopStart)
	}
	if d.Warnings > 0 {
		fmt.Fprintf(w, "warnings %d, last: %s\n", d.Warnings, d.Warning)
	}
	for _, b := range d.Banks {
		fmt.Fprintf(w, "bank 0x%02X  %d bytes in %d blocks\n", b.Type, b.Bytes, b.Blocks)
	}
	if len(d.Banks) > 0 {
		fmt.Fprintf(w, "bank dac position %d\n", d.PCMPos)
	}
	for _, s := range d.Streams {
		state := "stopped"
		if s.Playing {
			state = "playing"
			if s.Looping {
				state += " loop"
			}
			if s.Reverse {
				state += " reverse"
			}
		}
		fmt.Fprintf(w, "stream %02X -> %s #%d cmd %04X  bank 0x%02X  %d Hz  pos %d  left %d  %s\n",
			s.ID, s.Chip, s.ChipID, s.Command, s.Bank, s.Frequency, s.Pos, s.Remaining, state)
	}
}
