package blip

// Bus is a stereo destination made of three buffers sharing one clock: the
// center buffer is heard on both sides, left and right on one side each.
type Bus struct {
	Center *Buffer
	Left   *Buffer
	Right  *Buffer

	scratch []int16
}

// NewBus creates a bus whose buffers hold msec milliseconds at sampleRate.
func NewBus(sampleRate, msec int) (*Bus, error) {
	b := &Bus{}
	for _, p := range []**Buffer{&b.Center, &b.Left, &b.Right} {
		buf, err := NewBuffer(sampleRate, msec)
		if err != nil {
			return nil, err
		}
		*p = buf
	}
	return b, nil
}

func (b *Bus) buffers() [3]*Buffer {
	return [3]*Buffer{b.Center, b.Left, b.Right}
}

// SetSampleRate resizes every buffer.
func (b *Bus) SetSampleRate(sampleRate, msec int) error {
	for _, buf := range b.buffers() {
		if err := buf.SetSampleRate(sampleRate, msec); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) SetClockRate(hz float64) {
	for _, buf := range b.buffers() {
		buf.SetClockRate(hz)
	}
}

func (b *Bus) Bass(hz int) {
	for _, buf := range b.buffers() {
		buf.Bass(hz)
	}
}

func (b *Bus) Clear() {
	for _, buf := range b.buffers() {
		buf.Clear()
	}
}

// EndFrame closes the frame of all three buffers at clock time t.
func (b *Bus) EndFrame(t int) {
	for _, buf := range b.buffers() {
		buf.EndFrame(t)
	}
}

// CountClocks returns the clocks needed for n more stereo samples.
func (b *Bus) CountClocks(n int) int {
	return b.Center.CountClocks(n)
}

// SamplesAvail returns the number of stereo samples ready.
func (b *Bus) SamplesAvail() int {
	return b.Center.SamplesAvail()
}

// Stereo reports whether a side buffer ever received data. Buses that never
// did are mixed as mono.
func (b *Bus) Stereo() bool {
	return b.Left.NonSilent() || b.Right.NonSilent()
}

// NonSilent reports whether any of the buffers ever received data.
func (b *Bus) NonSilent() bool {
	return b.Center.NonSilent() || b.Stereo()
}

// Mix adds pairs stereo samples into the interleaved accumulator out and
// removes them from the bus.
func (b *Bus) Mix(out []int32, pairs int) int {
	pairs = min(pairs, b.SamplesAvail(), len(out)/2)
	if !b.NonSilent() {
		b.remove(pairs)
		return pairs
	}

	if cap(b.scratch) < pairs {
		b.scratch = make([]int16, pairs)
	}
	center := b.scratch[:pairs]
	b.Center.ReadSamples(center, pairs, false)

	if b.Stereo() {
		b.Left.MixSamples(out, pairs, true)
		b.Right.MixSamples(out[1:], pairs, true)
	} else {
		b.Left.RemoveSamples(pairs)
		b.Right.RemoveSamples(pairs)
	}
	for i, s := range center {
		out[2*i] += int32(s)
		out[2*i+1] += int32(s)
	}
	return pairs
}

func (b *Bus) remove(n int) {
	for _, buf := range b.buffers() {
		buf.RemoveSamples(n)
	}
}
