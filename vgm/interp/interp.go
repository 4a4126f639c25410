// Package interp executes the VGM command stream: it keeps virtual time,
// routes register writes to chips at the right native time, feeds the PCM
// banks and the DAC stream unit, and applies the loop rules.
package interp

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/dac"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/pcm"
	"github.com/valerio/go-vgm/vgm/stream"
)

var (
	ErrUnknownOpcode  = errors.New("unknown opcode")
	ErrZeroLengthLoop = errors.New("zero length loop")
	ErrDataBlock      = errors.New("bad data block")
)

// Interp runs a command stream against a chip rack.
type Interp struct {
	hdr  *header.Header
	cur  *stream.Cursor
	rack *chip.Rack

	banks *pcm.Store
	dac   *dac.Unit
	sink  dac.Sink
	tb    Timebase

	loopStart  int
	time       int   // ticks into the current run, may overshoot its target
	elapsed    int64 // ticks of completed runs
	prevEnd    int64
	hasPrevEnd bool
	loops      int
	ended      bool
	pcmPos     int

	warning  error
	warnings int
	seen     map[error]bool

	// settings
	logger    *slog.Logger
	loopLimit int
}

type Option func(*Interp)

// WithLogger sends warnings to logger instead of slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interp) { in.logger = logger }
}

// WithLoopLimit ends the stream after n jumps to the loop start. Zero loops
// forever.
func WithLoopLimit(n int) Option {
	return func(in *Interp) { in.loopLimit = max(n, 0) }
}

// New prepares an interpreter for the command stream of data. The buffer is
// read in place and must not change while the interpreter is in use.
func New(data []byte, hdr *header.Header, rack *chip.Rack, opts ...Option) *Interp {
	in := &Interp{
		hdr:    hdr,
		cur:    stream.NewCursor(data, int(hdr.DataOffset), hdr.StreamEnd(len(data))),
		rack:   rack,
		banks:  pcm.NewStore(),
		logger: slog.Default(),
		seen:   make(map[error]bool),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.dac = dac.NewUnit(in.banks)
	in.sink = in.dacWrite

	in.loopStart = in.cur.End()
	if hdr.HasLoop() && in.cur.Contains(int(hdr.LoopOffset)) {
		in.loopStart = int(hdr.LoopOffset)
	}
	return in
}

// Restart rewinds to the start of the stream. PCM banks keep their data and
// recognise the blocks the stream adds again.
func (in *Interp) Restart() {
	in.cur.Seek(in.cur.Start())
	in.loopStart = in.cur.End()
	if in.hdr.HasLoop() && in.cur.Contains(int(in.hdr.LoopOffset)) {
		in.loopStart = int(in.hdr.LoopOffset)
	}
	in.time = 0
	in.elapsed = 0
	in.prevEnd, in.hasPrevEnd = 0, false
	in.loops = 0
	in.ended = false
	in.pcmPos = 0
	in.warning = nil
	in.warnings = 0
	clear(in.seen)
	in.banks.Restart()
	in.dac.Reset()
}

// SetLoopLimit changes the loop limit, see WithLoopLimit.
func (in *Interp) SetLoopLimit(n int) {
	in.loopLimit = max(n, 0)
}

// Timebase returns the time conversions used for chip writes. The frame
// driver updates them on rate changes and carries the stream fraction.
func (in *Interp) Timebase() *Timebase {
	return &in.tb
}

// Run executes commands until virtual time reaches target ticks, relative to
// the end of the previous run. The overshoot of the last delay is carried into
// the next run. It returns target converted to the PSG clock.
func (in *Interp) Run(target int) int {
	for in.time < target && !in.cur.AtEnd() {
		cmd, err := in.cur.Next()
		if err != nil {
			in.warn(stream.ErrTruncated, err)
			break
		}
		in.exec(cmd)
	}
	if in.cur.AtEnd() {
		in.ended = true
	}

	in.dac.CatchUp(target, in.sink)
	in.dac.Rebase(target)

	in.elapsed += int64(target)
	in.time = max(in.time-target, 0)
	return in.tb.Blip[chip.BusPSG].To(target)
}

func (in *Interp) end() {
	now := in.elapsed + int64(in.time)
	if in.hasPrevEnd && now == in.prevEnd && in.loopStart < in.cur.End() {
		in.loopStart = in.cur.End()
		in.warn(ErrZeroLengthLoop, fmt.Errorf("%w at tick %d", ErrZeroLengthLoop, now))
	}
	in.prevEnd, in.hasPrevEnd = now, true

	if in.loopStart < in.cur.End() && (in.loopLimit == 0 || in.loops < in.loopLimit) {
		in.loops++
		in.cur.Seek(in.loopStart)
		in.logger.Debug("vgm loop", "loop", in.loops, "tick", now)
		return
	}
	in.cur.Seek(in.cur.End())
}

// warn records err as the latest warning. Each kind is logged at Warn level
// once, repeats go to Debug.
func (in *Interp) warn(kind, err error) {
	in.warning = err
	in.warnings++
	if in.seen[kind] {
		in.logger.Debug("vgm stream", "err", err)
		return
	}
	in.seen[kind] = true
	in.logger.Warn("vgm stream", "err", err)
}

// Ended reports whether the stream reached its end.
func (in *Interp) Ended() bool {
	return in.ended
}

// Loops returns the number of jumps to the loop start since Restart.
func (in *Interp) Loops() int {
	return in.loops
}

// Warning returns the latest warning, or nil.
func (in *Interp) Warning() error {
	return in.warning
}

// Warnings returns how many warnings were raised since Restart.
func (in *Interp) Warnings() int {
	return in.warnings
}

// Elapsed returns the virtual ticks consumed by completed runs.
func (in *Interp) Elapsed() int64 {
	return in.elapsed
}

// Time returns the ticks already executed past the end of the last run.
func (in *Interp) Time() int {
	return in.time
}

// Pos returns the absolute offset of the next command.
func (in *Interp) Pos() int {
	return in.cur.Pos()
}

// LoopStart returns the absolute loop offset, or -1 when the stream does not
// loop.
func (in *Interp) LoopStart() int {
	if in.loopStart >= in.cur.End() {
		return -1
	}
	return in.loopStart
}

// Banks returns the PCM bank store.
func (in *Interp) Banks() *pcm.Store {
	return in.banks
}

// DAC returns the DAC stream unit.
func (in *Interp) DAC() *dac.Unit {
	return in.dac
}

// PCMPos returns the bank 0 read position used by 0x8n commands.
func (in *Interp) PCMPos() int {
	return in.pcmPos
}
