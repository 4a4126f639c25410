// Package vgm plays VGM files: it drives the command interpreter against a
// rack of emulated chips and produces 16 bit stereo samples on demand.
package vgm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/valerio/go-vgm/vgm/audio"
	"github.com/valerio/go-vgm/vgm/blip"
	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/interp"
	"github.com/valerio/go-vgm/vgm/resample"
)

// VGMRate is the tick rate of VGM timestamps.
const VGMRate = 44100

const (
	defaultSampleRate = 44100
	minSampleRate     = 8000
	maxSampleRate     = 192000
	minTempo          = 0.25
	maxTempo          = 4.0

	oversampleFactor = 1.5
	rolloff          = 0.990
	bufferMsec       = 250
	framesPerSecond  = 60
)

var (
	ErrSampleRate  = errors.New("vgm: sample rate out of range")
	ErrTempo       = errors.New("vgm: tempo out of range")
	ErrShortBuffer = errors.New("vgm: output buffer too short")
)

// nativeDividers gives the clock divider of chips whose native output rate is
// used when oversampling is off.
var nativeDividers = map[chip.Family]float64{
	chip.YM2612:  144,
	chip.YM2151:  64,
	chip.YM2413:  72,
	chip.YM2203:  72,
	chip.YM2608:  144,
	chip.YM2610:  144,
	chip.YM3812:  72,
	chip.YM3526:  72,
	chip.Y8950:   72,
	chip.YMF262:  288,
	chip.YMF278B: 684,
}

// Track replays one VGM file. It is not safe for concurrent use.
type Track struct {
	hdr    *header.Header
	rack   *chip.Rack
	interp *interp.Interp
	dual   *resample.Dual
	buses  [chip.BusCount]*blip.Bus
	drv    *driver

	fmRate float64
	frames int64
	ended  bool

	// settings
	sampleRate int
	tempo      float64
	oversample bool
	factory    chip.Factory
	logger     *slog.Logger
	loopLimit  int
	gain       float64
	bass       int
	treble     float64
}

// New parses the header of data and prepares the track for playback. data is
// used in place and must not be modified while the track is alive. Only a
// malformed header is an error; problems in the command stream are reported
// through Warning.
func New(data []byte, opts ...Option) (*Track, error) {
	hdr, err := header.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("vgm: %w", err)
	}

	t := &Track{
		hdr:        hdr,
		sampleRate: defaultSampleRate,
		tempo:      1,
		oversample: true,
		logger:     slog.Default(),
		gain:       1,
		bass:       blip.DefaultBass,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	t.rack = chip.NewRack(t.factory)
	t.enableChips()
	t.interp = interp.New(data, hdr, t.rack,
		interp.WithLogger(t.logger),
		interp.WithLoopLimit(t.loopLimit),
	)
	t.drv = &driver{in: t.interp}
	t.drv.load(t.rack)
	t.dual = resample.NewDual()
	for i := range t.buses {
		if t.buses[i], err = blip.NewBus(t.sampleRate, bufferMsec); err != nil {
			return nil, err
		}
	}

	if err := t.setup(); err != nil {
		return nil, err
	}
	t.StartTrack()

	t.logger.Debug("vgm track loaded",
		"version", hdr.VersionString(),
		"chips", len(t.Voices()),
		"fm", t.drv.fm,
		"fm_rate", t.fmRate,
	)
	return t, nil
}

func (t *Track) validate() error {
	if t.sampleRate < minSampleRate || t.sampleRate > maxSampleRate {
		return fmt.Errorf("%w: %d", ErrSampleRate, t.sampleRate)
	}
	if t.tempo < minTempo || t.tempo > maxTempo || math.IsNaN(t.tempo) {
		return fmt.Errorf("%w: %g", ErrTempo, t.tempo)
	}
	return nil
}

// Clock returns the effective clock of family f. Files before 1.10 clock the
// YM2612 and YM2151 with the YM2413 field.
func (t *Track) Clock(f chip.Family) header.Clock {
	c := t.hdr.ClockAt(f.Info().ClockOffset)
	if t.hdr.Version < 0x110 && c.Hz == 0 && (f == chip.YM2612 || f == chip.YM2151) {
		c = t.hdr.ClockAt(chip.YM2413.Info().ClockOffset)
		c.Dual = false
	}
	return c
}

// enableChips turns on every instance the header gives a clock.
func (t *Track) enableChips() {
	for _, f := range chip.Families() {
		clk := t.Clock(f)
		if clk.Hz == 0 {
			continue
		}
		set := t.rack.Set(f)
		set[0].Enable(true)
		set[1].Enable(clk.Dual)
	}
}

// setup derives every rate from the settings. Virtual time and chip state
// are kept, only buffered audio is dropped.
func (t *Track) setup() error {
	vgmRate := int(math.Round(VGMRate * t.tempo))
	t.drv.vgmRate = vgmRate
	t.drv.sampleRate = t.sampleRate

	t.fmRate = float64(t.sampleRate)
	if t.drv.fm {
		t.fmRate = t.streamRate()
	}

	tb := t.interp.Timebase()
	tb.Stream = interp.StreamConv(t.fmRate, float64(vgmRate))
	for i := range t.buses {
		if err := t.buses[i].SetSampleRate(t.sampleRate, bufferMsec); err != nil {
			return err
		}
		t.buses[i].SetClockRate(0)
		t.buses[i].Bass(t.bass)
		tb.Blip[i] = interp.Conv{}
	}

	ratio := t.fmRate / float64(t.sampleRate)
	var setupErr error
	t.rack.Enabled(func(f chip.Family, id int, c chip.Chip) {
		clk := t.Clock(f)
		info := f.Info()
		if info.Domain == chip.Blip {
			bus := t.buses[info.Bus]
			bus.SetClockRate(float64(clk.Hz))
			tb.Blip[info.Bus] = interp.BlipConv(float64(clk.Hz), float64(vgmRate))
			c.Output(bus)
			c.Setup(1, rolloff, t.gain)
			setupErr = errors.Join(setupErr, c.SetRate(float64(t.sampleRate), clk.Hz))
		} else {
			c.Setup(ratio, rolloff, t.gain)
			setupErr = errors.Join(setupErr, c.SetRate(t.fmRate, clk.Hz))
		}
		c.TrebleEq(t.treble)
	})
	if setupErr != nil {
		return fmt.Errorf("vgm: chip setup: %w", setupErr)
	}

	t.dual.EnableStream(t.drv.fm)
	if err := t.dual.Setup(ratio, rolloff, t.gain); err != nil {
		return err
	}
	pairs := t.sampleRate / framesPerSecond
	if err := t.dual.Reset(2*pairs, t.buses[:]); err != nil {
		return err
	}
	t.drv.acc = 0
	return nil
}

// streamRate picks the rate stream-domain chips render at.
func (t *Track) streamRate() float64 {
	if t.oversample {
		return float64(t.sampleRate) * oversampleFactor
	}
	for _, f := range chip.Families() {
		div, ok := nativeDividers[f]
		if !ok || f.Info().Domain != chip.Stream {
			continue
		}
		if clk := t.Clock(f); clk.Hz != 0 {
			return float64(clk.Hz) / div
		}
	}
	return float64(t.sampleRate)
}

// StartTrack rewinds to the beginning: chips are reset, virtual time restarts
// at zero and buffered audio is dropped.
func (t *Track) StartTrack() {
	t.rack.Enabled(func(_ chip.Family, _ int, c chip.Chip) {
		c.Reset()
	})
	t.interp.Restart()
	t.drv.reset()
	t.dual.Clear()
	t.frames = 0
	t.ended = false
}

// Play writes up to count stereo frames into out, which must hold 2*count
// samples. Fewer frames are returned only once, when the track ends; later
// calls return 0.
func (t *Track) Play(count int, out []int16) (int, error) {
	if count < 0 || len(out) < 2*count {
		return 0, fmt.Errorf("%w: %d samples for %d frames", ErrShortBuffer, len(out), count)
	}
	if t.ended {
		return 0, nil
	}

	pairs := t.dual.FrameSize() / 2
	produced := 0
	for produced < count {
		n := min(count-produced, pairs)
		t.dual.Play(2*n, out[2*produced:2*(produced+n)], t.drv)
		produced += n
		if t.interp.Ended() {
			t.ended = true
			t.logger.Debug("vgm track ended", "frames", t.frames+int64(produced), "loops", t.interp.Loops())
			break
		}
	}
	t.frames += int64(produced)
	return produced, nil
}

// SetSampleRate changes the output rate without losing the playback position.
func (t *Track) SetSampleRate(rate int) error {
	old := t.sampleRate
	t.sampleRate = rate
	if err := t.validate(); err != nil {
		t.sampleRate = old
		return err
	}
	return t.setup()
}

// SetTempo changes playback speed without losing the playback position.
func (t *Track) SetTempo(tempo float64) error {
	old := t.tempo
	t.tempo = tempo
	if err := t.validate(); err != nil {
		t.tempo = old
		return err
	}
	return t.setup()
}

// SetOversampling switches stream-domain chips between 1.5x the output rate
// and their native rate.
func (t *Track) SetOversampling(on bool) error {
	if t.oversample == on {
		return nil
	}
	t.oversample = on
	return t.setup()
}

// SetEqualizer sets the treble of every chip and the bass cutoff of the
// blip buses.
func (t *Track) SetEqualizer(treble float64, bass int) {
	t.treble = treble
	t.bass = bass
	t.rack.Enabled(func(_ chip.Family, _ int, c chip.Chip) {
		c.TrebleEq(treble)
	})
	for _, b := range t.buses {
		b.Bass(bass)
	}
}

// MuteVoices mutes enabled chips: bit i of mask silences the i-th entry of
// Voices.
func (t *Track) MuteVoices(mask int) {
	i := 0
	t.rack.Enabled(func(_ chip.Family, _ int, c chip.Chip) {
		if mask&(1<<i) != 0 {
			c.MuteVoices(-1)
		} else {
			c.MuteVoices(0)
		}
		i++
	})
}

// Voices names the enabled chips in MuteVoices order.
func (t *Track) Voices() []string {
	var names []string
	t.rack.Enabled(func(f chip.Family, id int, _ chip.Chip) {
		name := f.String()
		if id == 1 {
			name += " #2"
		}
		names = append(names, name)
	})
	return names
}

// UsesFM reports whether stream-domain chips are present, which routes audio
// through the resampler.
func (t *Track) UsesFM() bool {
	return t.drv.fm
}

// Ended reports whether the track reached its end.
func (t *Track) Ended() bool {
	return t.ended
}

// Warning returns the latest command stream problem, or nil.
func (t *Track) Warning() error {
	return t.interp.Warning()
}

// Header returns the parsed file header.
func (t *Track) Header() *header.Header {
	return t.hdr
}

// Interp exposes the interpreter for inspection tools.
func (t *Track) Interp() *interp.Interp {
	return t.interp
}

// Rack exposes the chip instances.
func (t *Track) Rack() *chip.Rack {
	return t.rack
}

// SampleRate returns the output rate in Hz.
func (t *Track) SampleRate() int {
	return t.sampleRate
}

// Elapsed returns the virtual ticks consumed so far, including audio rendered
// ahead into the carry-over buffer.
func (t *Track) Elapsed() int64 {
	return t.interp.Elapsed()
}

// Position returns the playback time of the frames returned by Play.
func (t *Track) Position() time.Duration {
	return time.Duration(t.frames) * time.Second / time.Duration(t.sampleRate)
}

// Length returns the number of output frames until the track ends according
// to the header, counting the loop as many times as the loop limit allows
// (once without a limit).
func (t *Track) Length() int64 {
	samples := int64(t.hdr.TotalSamples)
	if t.hdr.HasLoop() && t.loopLimit > 0 {
		samples += int64(t.loopLimit) * int64(t.hdr.LoopSamples)
	}
	return samples * int64(t.sampleRate) / int64(t.drv.vgmRate)
}

var _ audio.Provider = (*Track)(nil)
