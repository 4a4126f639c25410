package interp

import (
	"fmt"

	"github.com/valerio/go-vgm/vgm/bit"
	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/dac"
	"github.com/valerio/go-vgm/vgm/pcm"
	"github.com/valerio/go-vgm/vgm/stream"
)

// Write is one decoded register write.
//
// Register writes use Port for the chip port (0 on single-port chips). Writes
// into chip memory (RF5C68/RF5C164/WonderSwan memory, MultiPCM bank offsets,
// the low byte of C352 words) set bit 7 of Port.
type Write struct {
	Family chip.Family
	ID     uint8
	Port   uint8
	Reg    uint8
	Data   uint8
}

const memPort = 0x80

// portWrites maps 0x51-0x5F (and 0xA1-0xAF for the second chip).
var portWrites = [16]struct {
	family chip.Family
	port   uint8
}{
	0x1: {chip.YM2413, 0},
	0x2: {chip.YM2612, 0},
	0x3: {chip.YM2612, 1},
	0x4: {chip.YM2151, 0},
	0x5: {chip.YM2203, 0},
	0x6: {chip.YM2608, 0},
	0x7: {chip.YM2608, 1},
	0x8: {chip.YM2610, 0},
	0x9: {chip.YM2610, 1},
	0xA: {chip.YM3812, 0},
	0xB: {chip.YM3526, 0},
	0xC: {chip.Y8950, 0},
	0xD: {chip.YMZ280B, 0},
	0xE: {chip.YMF262, 0},
	0xF: {chip.YMF262, 1},
}

// byteWrites maps 0xB0-0xBF: aa dd, bit 7 of aa selects the second chip.
var byteWrites = [16]chip.Family{
	chip.RF5C68, chip.RF5C164, chip.PWM, chip.GBDMG,
	chip.NESAPU, chip.MultiPCM, chip.UPD7759, chip.OKIM6258,
	chip.OKIM6295, chip.HuC6280, chip.K053260, chip.Pokey,
	chip.WonderSwan, chip.SAA1099, chip.ES5506, chip.GA20,
}

// portRegWrites maps 0xD0-0xD6: pp aa dd, bit 7 of pp selects the second chip.
var portRegWrites = [7]chip.Family{
	chip.YMF278B, chip.YMF271, chip.K051649, chip.K054539,
	chip.C140, chip.ES5503, chip.ES5506,
}

// Decode turns a write command into chip writes. It returns n=0 for commands
// that are not register writes.
func Decode(cmd stream.Command) (w [2]Write, n int) {
	op := cmd.Op()
	d := cmd.Data
	switch {
	case op == stream.OpSN76489:
		w[0] = Write{Family: chip.SN76489, Data: d[1]}
	case op == stream.OpSN76489Dual:
		w[0] = Write{Family: chip.SN76489, ID: 1, Data: d[1]}
	case op == stream.OpGGStereo:
		w[0] = Write{Family: chip.SN76489, Port: 1, Data: d[1]}
	case op == stream.OpGGStereoDual:
		w[0] = Write{Family: chip.SN76489, ID: 1, Port: 1, Data: d[1]}

	case op >= 0x51 && op <= 0x5F, op >= 0xA1 && op <= 0xAF:
		pw := portWrites[op&0x0F]
		w[0] = Write{Family: pw.family, Port: pw.port, Reg: d[1], Data: d[2]}
		if op >= 0xA1 {
			w[0].ID = 1
		}
	case op == stream.OpAY8910:
		w[0] = Write{Family: chip.AY8910, ID: d[1] >> 7, Reg: d[1] & 0x7F, Data: d[2]}

	case op == 0xB2:
		// PWM: register in the high nibble, 12 bit value
		w[0] = Write{Family: chip.PWM, Port: d[1] >> 4, Reg: d[1] & 0x0F, Data: d[2]}
	case op >= 0xB0 && op <= 0xBF:
		w[0] = Write{Family: byteWrites[op&0x0F], ID: d[1] >> 7, Reg: d[1] & 0x7F, Data: d[2]}

	case op == 0xC0:
		addr := bit.LE16(d[1:])
		w[0] = Write{Family: chip.SegaPCM, ID: uint8(addr >> 15), Port: uint8(addr>>8) & 0x7F, Reg: uint8(addr), Data: d[3]}
	case op == 0xC1, op == 0xC2:
		f := chip.RF5C68
		if op == 0xC2 {
			f = chip.RF5C164
		}
		addr := bit.LE16(d[1:])
		w[0] = Write{Family: f, ID: uint8(addr >> 15), Port: memPort | uint8(addr>>8)&0x7F, Reg: uint8(addr), Data: d[3]}
	case op == 0xC3:
		id, ch := d[1]>>7, d[1]&0x7F
		w[0] = Write{Family: chip.MultiPCM, ID: id, Port: memPort, Reg: ch, Data: d[2]}
		w[1] = Write{Family: chip.MultiPCM, ID: id, Port: memPort | 1, Reg: ch, Data: d[3]}
		return w, 2
	case op == 0xC4:
		w[0] = Write{Family: chip.QSound, Port: d[1], Reg: d[2], Data: d[3]}
	case op == 0xC5:
		w[0] = Write{Family: chip.SCSP, ID: d[1] >> 7, Port: d[1] & 0x7F, Reg: d[2], Data: d[3]}
	case op == 0xC7:
		w[0] = Write{Family: chip.VSU, ID: d[1] >> 7, Port: d[1] & 0x7F, Reg: d[2], Data: d[3]}
	case op == 0xC8:
		w[0] = Write{Family: chip.X1010, ID: d[1] >> 7, Port: d[1] & 0x7F, Reg: d[2], Data: d[3]}
	case op == 0xC6:
		w[0] = Write{Family: chip.WonderSwan, ID: d[1] >> 7, Port: memPort | d[1]&0x7F, Reg: d[2], Data: d[3]}

	case op >= 0xD0 && op <= 0xD6:
		w[0] = Write{Family: portRegWrites[op-0xD0], ID: d[1] >> 7, Port: d[1] & 0x7F, Reg: d[2], Data: d[3]}

	case op == 0xE1:
		id, hi := d[1]>>7, d[1]&0x7F
		w[0] = Write{Family: chip.C352, ID: id, Port: hi, Reg: d[2], Data: d[3]}
		w[1] = Write{Family: chip.C352, ID: id, Port: memPort | hi, Reg: d[2], Data: d[4]}
		return w, 2

	default:
		return w, 0
	}
	return w, 1
}

func (in *Interp) exec(cmd stream.Command) {
	op := cmd.Op()
	if stream.IsWait(op) {
		if op >= 0x80 {
			in.catchUp()
			in.writeBankDAC()
		}
		in.time += stream.Wait(cmd)
		return
	}

	in.catchUp()
	switch {
	case op == stream.OpEnd:
		in.end()
	case op == stream.OpDataBlock:
		in.dataBlock(cmd)
	case op == stream.OpPCMRAMWrite:
		in.ramWrite(cmd)
	case op >= stream.OpDACSetup && op <= stream.OpDACStartBlock:
		in.dacCommand(cmd)
	case op == stream.OpPCMSeek:
		in.pcmPos = int(bit.LE32(cmd.Data[1:]))
	default:
		ws, n := Decode(cmd)
		if n == 0 {
			in.warn(ErrUnknownOpcode, fmt.Errorf("%w 0x%02X at 0x%X", ErrUnknownOpcode, op, cmd.Offset))
			return
		}
		for _, w := range ws[:n] {
			in.write(in.time, w)
		}
	}
}

// catchUp brings the DAC streams up to the current time, so their writes
// land before the command about to run.
func (in *Interp) catchUp() {
	in.dac.CatchUp(in.time, in.sink)
}

// write runs the target chip up to t and hands it the write. Writes to chips
// the header does not clock are dropped.
func (in *Interp) write(t int, w Write) {
	c := in.enabled(w.Family, w.ID)
	if c == nil {
		return
	}
	c.RunUntil(in.tb.Native(w.Family, t))
	c.Write(w.Port, w.Reg, w.Data)
}

// enabled returns the chip instance, or nil when it is unknown or unclocked.
func (in *Interp) enabled(f chip.Family, id uint8) chip.Chip {
	c := in.rack.Chip(f, id)
	if c == nil || !c.Enabled() {
		return nil
	}
	return c
}

func (in *Interp) dacWrite(t int, w dac.Write) {
	in.write(t, Write{Family: chip.Family(w.ChipType), ID: w.ChipID, Port: w.Port, Reg: w.Reg, Data: w.Data})
}

// writeBankDAC sends the next bank 0 byte to the YM2612 DAC register.
func (in *Interp) writeBankDAC() {
	v, ok := in.banks.Read(0, in.pcmPos)
	in.pcmPos++
	if !ok {
		return
	}
	in.write(in.time, Write{Family: chip.YM2612, Reg: 0x2A, Data: v})
}

// romTypes maps ROM data block types 0x80-0x93 to their chip.
var romTypes = map[uint8]chip.Family{
	0x80: chip.SegaPCM,
	0x81: chip.YM2608,
	0x82: chip.YM2610,
	0x83: chip.YM2610,
	0x84: chip.YMF278B,
	0x85: chip.YMF271,
	0x86: chip.YMZ280B,
	0x87: chip.YMF278B,
	0x88: chip.Y8950,
	0x89: chip.MultiPCM,
	0x8A: chip.UPD7759,
	0x8B: chip.OKIM6295,
	0x8C: chip.K054539,
	0x8D: chip.C140,
	0x8E: chip.K053260,
	0x8F: chip.QSound,
	0x90: chip.ES5506,
	0x91: chip.X1010,
	0x92: chip.C352,
	0x93: chip.GA20,
}

// ramTypes maps RAM write data block types (0xC0-0xFF) and the bank types
// 0x68 copies from to their chip.
var ramTypes = map[uint8]chip.Family{
	0x01: chip.RF5C68,
	0x02: chip.RF5C164,
	0x06: chip.SCSP,
	0x07: chip.NESAPU,
	0xC0: chip.RF5C68,
	0xC1: chip.RF5C164,
	0xC2: chip.NESAPU,
	0xE0: chip.SCSP,
	0xE1: chip.ES5503,
}

func (in *Interp) dataBlock(cmd stream.Command) {
	typ := cmd.Data[2]
	size := bit.LE32(cmd.Data[3:])
	var id uint8
	if size&^stream.DataBlockSizeMask != 0 {
		id = 1
	}
	payload := cmd.Data[stream.DataBlockHeader:]

	switch {
	case typ < pcm.TypeROM:
		if err := in.banks.Add(typ, payload); err != nil {
			in.warn(ErrDataBlock, fmt.Errorf("%w at 0x%X: %w", ErrDataBlock, cmd.Offset, err))
		}
		if typ != pcm.TypeTable {
			in.dac.Refresh(typ & (pcm.BankCount - 1))
		}

	case typ < 0xC0:
		f, ok := romTypes[typ]
		if !ok || len(payload) < 8 {
			in.warn(ErrDataBlock, fmt.Errorf("%w at 0x%X: ROM type 0x%02X", ErrDataBlock, cmd.Offset, typ))
			return
		}
		if l, ok := in.enabled(f, id).(chip.ROMLoader); ok {
			l.LoadROM(typ, bit.LE32(payload), bit.LE32(payload[4:]), payload[8:])
		}

	default:
		f, ok := ramTypes[typ]
		hdr := 2
		if typ >= 0xE0 {
			hdr = 4
		}
		if !ok || len(payload) < hdr {
			in.warn(ErrDataBlock, fmt.Errorf("%w at 0x%X: RAM type 0x%02X", ErrDataBlock, cmd.Offset, typ))
			return
		}
		start := uint32(bit.LE16(payload))
		if hdr == 4 {
			start = bit.LE32(payload)
		}
		if w, ok := in.enabled(f, id).(chip.RAMWriter); ok {
			w.WriteRAM(typ, start, payload[hdr:])
		}
	}
}

// ramWrite copies bank bytes into chip RAM (0x68).
func (in *Interp) ramWrite(cmd stream.Command) {
	d := cmd.Data
	typ := d[2]
	src := int(bit.LE24(d[3:]))
	dst := bit.LE24(d[6:])
	size := int(bit.LE24(d[9:]))
	if size == 0 {
		size = 1 << 24
	}

	f, ok := ramTypes[typ&0x7F]
	bank := in.banks.Bank(typ & (pcm.BankCount - 1))
	if !ok || src >= bank.Len() {
		in.warn(ErrDataBlock, fmt.Errorf("%w at 0x%X: RAM write type 0x%02X offset 0x%X", ErrDataBlock, cmd.Offset, typ, src))
		return
	}
	data := bank.Data[src:min(src+size, bank.Len())]
	if w, ok := in.enabled(f, typ>>7).(chip.RAMWriter); ok {
		w.WriteRAM(typ, dst, data)
	}
}

func (in *Interp) dacCommand(cmd stream.Command) {
	d := cmd.Data
	id := d[1]
	switch cmd.Op() {
	case stream.OpDACSetup:
		in.dac.Setup(id, d[2], uint16(d[3])<<8|uint16(d[4]))
	case stream.OpDACSetData:
		in.dac.SetData(id, d[2], d[3], d[4])
	case stream.OpDACFrequency:
		in.dac.SetFrequency(id, bit.LE32(d[2:]))
	case stream.OpDACStart:
		in.dac.Start(id, bit.LE32(d[2:]), d[6], bit.LE32(d[7:]))
	case stream.OpDACStop:
		in.dac.Stop(id)
	case stream.OpDACStartBlock:
		in.dac.StartBlock(id, bit.LE16(d[2:]), d[4])
	}
}
