package dac

// VGM chip type ids with a dedicated write encoding.
const (
	chipSN76496  = 0x00
	chipYM2612   = 0x02
	chipRF5C68   = 0x05
	chipRF5C164  = 0x10
	chipPWM      = 0x11
	chipOKIM6295 = 0x18
	chipHuC6280  = 0x1B
	chipQSound   = 0x1F
)

// eightBitRegister lists chip types addressed with a single register byte.
var eightBitRegister = map[uint8]bool{
	0x01: true, // YM2413
	0x03: true, // YM2151
	0x06: true, // YM2203
	0x09: true, // YM3812
	0x0A: true, // YM3526
	0x0B: true, // Y8950
	0x0F: true, // YMZ280B
	0x12: true, // AY8910
	0x13: true, // GB DMG
	0x14: true, // NES APU
	0x17: true, // OKIM6258
}

// Channel is one DAC stream.
type Channel struct {
	ID uint8

	ChipType uint8
	ChipID   uint8
	Command  uint16 // port in the high byte, register in the low byte
	CmdSize  uint32

	Bank      uint8
	data      []byte
	DataStart uint32
	StepSize  uint8
	StepBase  uint8
	DataStep  uint32
	Frequency uint32

	CmdsToSend uint32
	RemainCmds uint32
	Step       uint32
	Pos        uint32
	RealPos    uint32
	Reverse    bool

	running uint8
}

func (c *Channel) reset() {
	*c = Channel{
		ID:       c.ID,
		ChipType: 0xFF,
		CmdSize:  1,
		StepSize: 1,
		DataStep: 1,
		running:  runReset,
	}
}

func (c *Channel) disabled() bool { return c.running&runDisabled != 0 }
func (c *Channel) playing() bool  { return c.running&(runDisabled|runPlaying) == runPlaying }

// Playing reports whether the channel is streaming.
func (c *Channel) Playing() bool { return c.playing() }

// Looping reports whether the channel restarts when its data is exhausted.
func (c *Channel) Looping() bool { return c.running&runLoop != 0 }

// DataLen returns the size of the bank view the channel reads from.
func (c *Channel) DataLen() int { return len(c.data) }

func (c *Channel) setup(chipType, chipID uint8, command uint16) {
	c.ChipType = chipType
	c.ChipID = chipID
	c.Command = command

	switch chipType {
	case chipSN76496:
		if command&0x10 != 0 {
			c.CmdSize = 1 // volume
		} else {
			c.CmdSize = 2 // frequency
		}
	case chipPWM, chipQSound:
		c.CmdSize = 2
	default:
		c.CmdSize = 1
	}
	c.DataStep = c.CmdSize * uint32(c.StepSize)
	c.running &^= runDisabled
}

func (c *Channel) setData(data []byte, stepSize, stepBase uint8) {
	if c.disabled() {
		return
	}
	c.data = data
	if stepSize == 0 {
		stepSize = 1
	}
	c.StepSize = stepSize
	c.StepBase = stepBase
	c.DataStep = c.CmdSize * uint32(stepSize)
}

func (c *Channel) start(dataStart uint32, mode uint8, length uint32) {
	if c.disabled() {
		return
	}
	base := c.CmdSize * uint32(c.StepBase)
	if dataStart != NoPosition {
		c.DataStart = dataStart + base
		if c.DataStart > uint32(len(c.data)) {
			c.DataStart = uint32(len(c.data))
		}
	}

	switch mode & 0x0F {
	case LenIgnore:
	case LenCommands:
		c.CmdsToSend = length
	case LenMillis:
		c.CmdsToSend = uint32(uint64(length) * uint64(c.Frequency) / 1000)
	case LenToEnd:
		avail := int64(len(c.data)) - (int64(c.DataStart) - int64(base))
		c.CmdsToSend = uint32(max(avail, 0)) / c.DataStep
	case LenBytes:
		c.CmdsToSend = length / c.DataStep
	default:
		c.CmdsToSend = 0
	}

	c.Reverse = mode&ModeReverse != 0
	c.rewind()
	c.running &^= runLoop
	if mode&ModeLoop != 0 {
		c.running |= runLoop
	}
	c.running |= runPlaying
	c.running &^= runSent
}

func (c *Channel) rewind() {
	c.RemainCmds = c.CmdsToSend
	c.Step = 0
	c.Pos = 0
	c.RealPos = 0
	if c.Reverse {
		c.RealPos = (c.CmdsToSend - 1) * c.DataStep
	}
}

func (c *Channel) stop() {
	if c.disabled() {
		return
	}
	c.running &^= runPlaying
}

// update advances the channel by one tick.
func (c *Channel) update(t int, sink Sink) {
	if !c.playing() {
		return
	}
	if c.RemainCmds == 0 {
		c.running &^= runPlaying
		return
	}

	step := c.DataStep
	c.Step++
	newPos := (uint64(c.Step)*uint64(c.DataStep)*uint64(c.Frequency) + TickRate/2) / TickRate
	c.send(t, sink)

	for c.RemainCmds > 0 && uint64(c.Pos) < newPos {
		c.send(t, sink)
		c.Pos += c.DataStep
		if c.Reverse {
			c.RealPos -= step
		} else {
			c.RealPos += step
		}
		c.running &^= runSent
		c.RemainCmds--
	}

	if c.RemainCmds == 0 && c.running&runLoop != 0 {
		c.rewind()
	}
	if c.RemainCmds == 0 {
		c.running &^= runPlaying
	}
}

// send emits the write for the current position once per step.
func (c *Channel) send(t int, sink Sink) {
	if c.running&runSent != 0 {
		return
	}
	off := uint64(c.DataStart) + uint64(c.RealPos)
	if off >= uint64(len(c.data)) {
		return
	}
	d0 := c.data[off]
	var d1 uint8
	if off+1 < uint64(len(c.data)) {
		d1 = c.data[off+1]
	}

	port := uint8(c.Command >> 8)
	reg := uint8(c.Command)
	w := Write{ChipType: c.ChipType, ChipID: c.ChipID}
	emit := func(port, reg, data uint8) {
		w.Port, w.Reg, w.Data = port, reg, data
		sink(t, w)
	}

	switch {
	case c.ChipType == chipSN76496:
		cmd := reg & 0xF0
		if cmd&0x10 != 0 {
			emit(0, 0, cmd|d0&0x0F)
		} else {
			emit(0, 0, cmd|d0&0x0F)
			emit(0, 0, (d1&0x03)<<4|(d0&0xF0)>>4)
		}
	case c.ChipType == chipPWM:
		emit(uint8(c.Command&0x0F), d1&0x0F, d0)
	case c.ChipType == chipOKIM6295:
		if reg != 0 {
			emit(0, reg, d0)
			break
		}
		channels := uint8(c.Command>>8) & 0x0F
		if d0&0x80 != 0 {
			emit(0, reg, d0)
			emit(0, reg, channels<<4)
		} else {
			emit(0, reg, channels<<3)
		}
	case c.ChipType == chipRF5C68, c.ChipType == chipRF5C164, c.ChipType == chipHuC6280:
		if port != 0xFF {
			emit(0, reg>>4, port)
		}
		emit(0, reg&0x0F, d0)
	case c.ChipType == chipQSound:
		emit(d0, d1, reg)
	case eightBitRegister[c.ChipType]:
		emit(0, reg, d0)
	default:
		emit(port, reg, d0)
	}
	c.running |= runSent
}
