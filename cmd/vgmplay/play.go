package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgm/vgm"
	"github.com/valerio/go-vgm/vgm/backend"
	"github.com/valerio/go-vgm/vgm/backend/headless"
	"github.com/valerio/go-vgm/vgm/backend/oto"
	"github.com/valerio/go-vgm/vgm/chip"
	"github.com/valerio/go-vgm/vgm/debug"
	"github.com/valerio/go-vgm/vgm/timing"
)

func renderCommand() cli.Command {
	return cli.Command{
		Name:      "render",
		Usage:     "Render to a 16 bit stereo WAV file",
		ArgsUsage: "<VGM file>",
		Flags: append(playbackFlags(),
			cli.StringFlag{
				Name:  "out",
				Usage: "Output WAV file",
			},
		),
		Action: runRender,
	}
}

func playCommand() cli.Command {
	return cli.Command{
		Name:      "play",
		Usage:     "Play on the default audio device",
		ArgsUsage: "<VGM file>",
		Flags: append(playbackFlags(),
			cli.BoolFlag{
				Name:  "null",
				Usage: "Play in real time without an audio device",
			},
		),
		Action: runPlay,
	}
}

func traceCommand() cli.Command {
	return cli.Command{
		Name:      "trace",
		Usage:     "Log every chip write and dump the player state",
		ArgsUsage: "<VGM file>",
		Flags: []cli.Flag{
			cli.Float64Flag{
				Name:  "seconds",
				Usage: "Stop after this many seconds",
				Value: 5,
			},
			cli.IntFlag{
				Name:  "loops",
				Usage: "Number of times to play the loop (0 = forever)",
				Value: 1,
			},
			cli.BoolFlag{
				Name:  "skip-repeats",
				Usage: "Drop writes identical to the previous one on the same chip",
			},
		},
		Action: runTrace,
	}
}

func runRender(c *cli.Context) error {
	out := c.String("out")
	if out == "" {
		return errors.New("render requires --out")
	}
	tr, _, err := openTrack(c, trackOptions(c)...)
	if err != nil {
		return err
	}
	if err := applyMute(c, tr); err != nil {
		return err
	}
	limit, err := maxFrames(c, tr)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	frames, err := run(headless.New(f), tr, limit)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	slog.Info("Rendered", "file", out, "frames", frames)
	summary(os.Stderr, newStyles(), tr, frames)
	return nil
}

func runPlay(c *cli.Context) error {
	tr, path, err := openTrack(c, trackOptions(c)...)
	if err != nil {
		return err
	}
	if err := applyMute(c, tr); err != nil {
		return err
	}
	limit, err := maxFrames(c, tr)
	if err != nil {
		return err
	}

	var b backend.Backend = oto.New()
	if c.Bool("null") {
		chunk := tr.SampleRate() / 60
		b = headless.New(nil,
			headless.WithChunk(chunk),
			headless.WithLimiter(timing.NewAdaptiveLimiter(timing.FrameDuration(chunk, tr.SampleRate()))),
		)
	}

	st := newStyles()
	fmt.Fprintln(os.Stderr, st.title.Render(path))
	frames, err := run(b, tr, limit)
	if err != nil {
		return err
	}
	summary(os.Stderr, st, tr, frames)
	return nil
}

func runTrace(c *cli.Context) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	sinkOpts := []chip.LogSinkOption{chip.WithLogger(logger), chip.WithLevel(slog.LevelInfo)}
	if c.Bool("skip-repeats") {
		sinkOpts = append(sinkOpts, chip.WithSkipRepeats())
	}

	tr, _, err := openTrack(c,
		vgm.WithChipFactory(chip.LogSinkFactory(sinkOpts...)),
		vgm.WithLoopLimit(c.Int("loops")),
		vgm.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	limit, err := maxFrames(c, tr)
	if err != nil {
		return err
	}

	frames, err := run(headless.New(nil), tr, limit)
	if err != nil {
		return err
	}
	debug.ExtractPlayerData(tr.Interp()).Dump(os.Stdout)
	summary(os.Stdout, newStyles(), tr, frames)
	return nil
}

// run plays tr on b until it ends, limit frames were delivered or the user
// interrupts. An interrupt is not an error.
func run(b backend.Backend, tr *vgm.Track, limit int64) (int64, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := newStyles()
	status := progress(st, tr)
	err := b.Init(backend.Config{
		Provider:  tr,
		MaxFrames: limit,
		Callbacks: backend.Callbacks{OnProgress: status},
	})
	if err != nil {
		return 0, err
	}

	frames, err := b.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if status != nil {
		fmt.Fprintln(os.Stderr)
	}
	return frames, errors.Join(err, b.Cleanup())
}

// progress returns a status line printer, or nil when stderr is not a
// terminal.
func progress(st styles, tr *vgm.Track) func(int64) {
	if !interactive(os.Stderr) {
		return nil
	}
	rate := time.Duration(tr.SampleRate())
	total := formatDuration(time.Duration(tr.Length()) * time.Second / rate)
	return func(frames int64) {
		pos := time.Duration(frames) * time.Second / rate
		fmt.Fprintf(os.Stderr, "\r%s %s / %s", st.title.Render(">"), formatDuration(pos), st.dim.Render(total))
	}
}

func summary(w io.Writer, st styles, tr *vgm.Track, frames int64) {
	pos := time.Duration(frames) * time.Second / time.Duration(tr.SampleRate())
	fmt.Fprintf(w, "%s %s, %d loops\n", st.label.Render("played"), st.value.Render(formatDuration(pos)), tr.Interp().Loops())
	if err := tr.Warning(); err != nil {
		fmt.Fprintf(w, "%s %d, last: %v\n", st.warn.Render("warnings"), tr.Interp().Warnings(), err)
	}
}
