package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgm/vgm"
	"github.com/valerio/go-vgm/vgm/chip"
)

func infoCommand() cli.Command {
	return cli.Command{
		Name:      "info",
		Usage:     "Show header fields, chips and duration",
		ArgsUsage: "<VGM file>",
		Action: func(c *cli.Context) error {
			tr, path, err := openTrack(c)
			if err != nil {
				return err
			}
			printInfo(os.Stdout, newStyles(), path, tr)
			return nil
		},
	}
}

func printInfo(w io.Writer, st styles, path string, tr *vgm.Track) {
	hdr := tr.Header()
	row := func(label, format string, args ...any) {
		fmt.Fprintf(w, "  %s %s\n", st.label.Render(label), st.value.Render(fmt.Sprintf(format, args...)))
	}

	fmt.Fprintln(w, st.title.Render(path))
	row("version", "%s", hdr.VersionString())
	row("length", "%s (%d samples)", formatTicks(int64(hdr.TotalSamples)), hdr.TotalSamples)
	if hdr.HasLoop() {
		fmt.Fprintf(w, "  %s %s\n", st.label.Render("loop"),
			st.loop.Render(fmt.Sprintf("%s from 0x%X", formatTicks(int64(hdr.LoopSamples)), hdr.LoopOffset)))
	} else {
		row("loop", "none")
	}
	if hdr.Rate != 0 {
		row("rate", "%d Hz", hdr.Rate)
	}
	row("stream", "0x%X - 0x%X", hdr.DataOffset, hdr.EOFOffset)

	var chips []string
	for _, f := range chip.Families() {
		clk := tr.Clock(f)
		if clk.Hz == 0 {
			continue
		}
		name := f.String()
		if clk.Dual {
			name = "2x " + name
		}
		chips = append(chips, fmt.Sprintf("%s %s", st.chip.Render(name), st.dim.Render(fmt.Sprintf("%d Hz", clk.Hz))))
	}
	if len(chips) == 0 {
		fmt.Fprintf(w, "  %s %s\n", st.label.Render("chips"), st.warn.Render("none"))
	} else {
		fmt.Fprintf(w, "  %s %s\n", st.label.Render("chips"), strings.Join(chips, ", "))
	}
	mix := "blip"
	if tr.UsesFM() {
		mix = "resampled"
	}
	row("mixing", "%s", mix)
}

// formatTicks formats a VGM tick count as m:ss.mmm.
func formatTicks(ticks int64) string {
	return formatDuration(time.Duration(ticks) * time.Second / vgm.VGMRate)
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
