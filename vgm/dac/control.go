// Package dac implements VGM DAC stream control (commands 0x90-0x95): small
// per-channel sequencers that stream PCM bank bytes to a chip register at a
// fixed frequency.
package dac

import (
	"log/slog"
	"sort"

	"github.com/valerio/go-vgm/vgm/pcm"
)

// TickRate is the rate DAC steps are scheduled at, one step per VGM tick.
const TickRate = 44100

// AllChannels addresses every channel in Stop.
const AllChannels = 0xFF

// NoPosition leaves the data start unchanged in Start.
const NoPosition = 0xFFFFFFFF

// Length modes of Start, low nibble of the mode byte.
const (
	LenIgnore   = 0x00
	LenCommands = 0x01
	LenMillis   = 0x02
	LenToEnd    = 0x03
	LenBytes    = 0x0F

	ModeReverse = 0x10
	ModeLoop    = 0x80
)

// running bits
const (
	runPlaying  = 0x01
	runLoop     = 0x04
	runSent     = 0x10
	runDisabled = 0x80
	runReset    = 0x88
)

// Banks gives the unit read access to PCM banks.
type Banks interface {
	Bank(typ uint8) *pcm.Bank
}

// Write is one register write produced by a channel. ChipType is the VGM
// chip type id (0x02 YM2612, 0x11 PWM, ...).
type Write struct {
	ChipType uint8
	ChipID   uint8
	Port     uint8
	Reg      uint8
	Data     uint8
}

// Sink receives channel writes stamped with the virtual tick they belong to.
type Sink func(t int, w Write)

// Unit owns the DAC channels of one interpreter.
type Unit struct {
	banks    Banks
	channels map[uint8]*Channel
	order    []uint8
	time     int
	depth    int
}

func NewUnit(banks Banks) *Unit {
	return &Unit{
		banks:    banks,
		channels: make(map[uint8]*Channel),
	}
}

// Channel returns channel id, if it was ever set up.
func (u *Unit) Channel(id uint8) (*Channel, bool) {
	c, ok := u.channels[id]
	return c, ok
}

// Channels returns all channels in id order.
func (u *Unit) Channels() []*Channel {
	out := make([]*Channel, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.channels[id])
	}
	return out
}

// Setup creates the channel on first use and targets it at a chip. Bit 7 of
// chipType selects the second chip instance.
func (u *Unit) Setup(id, chipType uint8, command uint16) {
	if id == AllChannels {
		return
	}
	c, ok := u.channels[id]
	if !ok {
		c = &Channel{ID: id}
		c.reset()
		u.channels[id] = c
		u.order = append(u.order, id)
		sort.Slice(u.order, func(i, j int) bool { return u.order[i] < u.order[j] })
	}
	c.setup(chipType&0x7F, chipType>>7, command)
}

// SetData points the channel at a PCM bank.
func (u *Unit) SetData(id, bank, stepSize, stepBase uint8) {
	c := u.enabled(id)
	if c == nil {
		return
	}
	if bank >= pcm.BankCount {
		bank = 0
	}
	c.Bank = bank
	c.setData(u.bankData(bank), stepSize, stepBase)
}

// SetFrequency changes the stream rate, rescaling the step counter so the
// current position is kept.
func (u *Unit) SetFrequency(id uint8, hz uint32) {
	c := u.enabled(id)
	if c == nil || c.disabled() {
		return
	}
	if hz != 0 {
		c.Step = uint32(uint64(c.Step) * uint64(c.Frequency) / uint64(hz))
	}
	c.Frequency = hz
}

// Start begins playback at dataStart (NoPosition keeps the current start).
func (u *Unit) Start(id uint8, dataStart uint32, mode uint8, length uint32) {
	c := u.enabled(id)
	if c == nil {
		return
	}
	c.start(dataStart, mode, length)
}

// StartBlock plays data block number block of the channel's bank. Flag bit 0
// loops and bit 4 plays in reverse.
func (u *Unit) StartBlock(id uint8, block uint16, flags uint8) {
	c := u.enabled(id)
	if c == nil {
		return
	}
	bank := u.banks.Bank(c.Bank)
	b, ok := bank.Block(int(block))
	if !ok {
		b, ok = bank.Block(0)
	}
	if !ok {
		slog.Debug("dac block missing", "channel", id, "bank", c.Bank, "block", block)
		return
	}
	mode := uint8(LenBytes) | flags&ModeReverse | (flags&0x01)<<7
	c.start(uint32(b.Start), mode, uint32(b.Size))
}

// Stop halts one channel, or all of them for AllChannels.
func (u *Unit) Stop(id uint8) {
	if id != AllChannels {
		if c, ok := u.channels[id]; ok {
			c.stop()
		}
		return
	}
	for _, c := range u.channels {
		c.stop()
	}
}

// Refresh updates channels reading a bank after it grew.
func (u *Unit) Refresh(bank uint8) {
	data := u.bankData(bank)
	for _, c := range u.channels {
		if c.Bank == bank && !c.disabled() {
			c.data = data
		}
	}
}

// Reset disables every channel and rewinds the unit clock. Channels are kept.
func (u *Unit) Reset() {
	for _, c := range u.channels {
		c.reset()
	}
	u.time = 0
	u.depth = 0
}

// Active reports whether any channel is playing.
func (u *Unit) Active() bool {
	for _, c := range u.channels {
		if c.playing() {
			return true
		}
	}
	return false
}

// Time returns the tick the unit has been advanced to.
func (u *Unit) Time() int {
	return u.time
}

// CatchUp advances every channel tick by tick up to now, sending the writes
// due in each tick to sink. Calls made while a CatchUp is already running
// (from writes it emitted) return immediately.
func (u *Unit) CatchUp(now int, sink Sink) {
	if u.depth > 0 || now <= u.time {
		return
	}
	u.depth++
	defer func() { u.depth-- }()

	if !u.Active() {
		u.time = now
		return
	}
	for ; u.time < now; u.time++ {
		for _, id := range u.order {
			u.channels[id].update(u.time, sink)
		}
	}
}

// Rebase shifts the unit clock when the interpreter carries its time into a
// new frame.
func (u *Unit) Rebase(delta int) {
	u.time -= delta
}

func (u *Unit) enabled(id uint8) *Channel {
	if id == AllChannels {
		return nil
	}
	return u.channels[id]
}

func (u *Unit) bankData(bank uint8) []byte {
	b := u.banks.Bank(bank)
	if b == nil {
		return nil
	}
	return b.Data
}
