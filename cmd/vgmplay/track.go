package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgm/vgm"
	"github.com/valerio/go-vgm/vgm/loader"
)

var errNoFile = errors.New("no VGM file provided")

// playbackFlags are shared by every command that renders audio.
func playbackFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "rate",
			Usage: "Output sample rate in Hz",
			Value: 44100,
		},
		cli.Float64Flag{
			Name:  "tempo",
			Usage: "Playback speed, 1.0 is the authored speed",
			Value: 1.0,
		},
		cli.IntFlag{
			Name:  "loops",
			Usage: "Number of times to play the loop (0 = forever)",
			Value: 2,
		},
		cli.Float64Flag{
			Name:  "seconds",
			Usage: "Stop after this many seconds (0 = until the track ends)",
		},
		cli.BoolFlag{
			Name:  "no-oversample",
			Usage: "Render FM chips at their native rate instead of 1.5x the output rate",
		},
		cli.StringFlag{
			Name:  "mute",
			Usage: "Bit mask of chips to mute, in the order listed by info (e.g. 0b101)",
		},
	}
}

// trackOptions turns the playback flags into track options.
func trackOptions(c *cli.Context) []vgm.Option {
	return []vgm.Option{
		vgm.WithSampleRate(c.Int("rate")),
		vgm.WithTempo(c.Float64("tempo")),
		vgm.WithLoopLimit(c.Int("loops")),
		vgm.WithOversampling(!c.Bool("no-oversample")),
	}
}

// openTrack loads the file named by the first argument.
func openTrack(c *cli.Context, opts ...vgm.Option) (*vgm.Track, string, error) {
	path := c.Args().First()
	if path == "" {
		cli.ShowCommandHelp(c, c.Command.Name)
		return nil, "", errNoFile
	}
	data, err := loader.Load(path)
	if err != nil {
		return nil, path, err
	}
	tr, err := vgm.New(data, opts...)
	if err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return tr, path, nil
}

// applyMute parses the --mute flag, which accepts any Go integer literal.
func applyMute(c *cli.Context, tr *vgm.Track) error {
	s := c.String("mute")
	if s == "" {
		return nil
	}
	mask, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return fmt.Errorf("bad --mute value %q: %w", s, err)
	}
	tr.MuteVoices(int(mask))
	return nil
}

// maxFrames converts --seconds into output frames, 0 meaning no limit. A
// track that loops forever must be bounded by --seconds.
func maxFrames(c *cli.Context, tr *vgm.Track) (int64, error) {
	seconds := c.Float64("seconds")
	if seconds < 0 {
		return 0, fmt.Errorf("bad --seconds value %g", seconds)
	}
	if seconds == 0 && c.Int("loops") == 0 && tr.Header().HasLoop() {
		return 0, errors.New("track loops forever: set --seconds or --loops")
	}
	return int64(seconds * float64(tr.SampleRate())), nil
}
