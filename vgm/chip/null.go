package chip

import "github.com/valerio/go-vgm/vgm/blip"

// Null accepts every call and produces silence. Other chips embed it to
// inherit the bookkeeping they do not care about.
type Null struct {
	enabled    bool
	sampleRate float64
	clock      uint32
	mute       int
	pos        int
	out        []int16
	bus        *blip.Bus
}

func (n *Null) Enable(on bool) { n.enabled = on }
func (n *Null) Enabled() bool  { return n.enabled }

func (n *Null) Reset() { n.pos = 0 }

func (n *Null) Setup(ratio, rolloff, gain float64) {}
func (n *Null) TrebleEq(treble float64)            {}
func (n *Null) MuteVoices(mask int)                { n.mute = mask }

func (n *Null) SetRate(sampleRate float64, clock uint32) error {
	n.sampleRate = sampleRate
	n.clock = clock
	return nil
}

// Clock returns the clock passed to SetRate.
func (n *Null) Clock() uint32 { return n.clock }

// SampleRate returns the rate passed to SetRate.
func (n *Null) SampleRate() float64 { return n.sampleRate }

// Muted returns the mask passed to MuteVoices.
func (n *Null) Muted() int { return n.mute }

// Bus returns the bus passed to Output.
func (n *Null) Bus() *blip.Bus { return n.bus }

func (n *Null) Write(port, reg, data uint8) {}

// RunUntil leaves the frame buffer untouched and reports the frames elapsed
// since the last call.
func (n *Null) RunUntil(t int) int {
	if t <= n.pos {
		return 0
	}
	produced := t - n.pos
	n.pos = t
	return produced
}

func (n *Null) BeginFrame(out []int16) {
	n.out = out
	n.pos = 0
}

func (n *Null) EndFrame(t int) {
	n.pos = 0
}

func (n *Null) Output(bus *blip.Bus) {
	n.bus = bus
}

var _ Chip = (*Null)(nil)
