package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-vgm/vgm/disasm"
	"github.com/valerio/go-vgm/vgm/header"
	"github.com/valerio/go-vgm/vgm/loader"
)

func disasmCommand() cli.Command {
	return cli.Command{
		Name:      "disasm",
		Usage:     "List the command stream with offsets and times",
		ArgsUsage: "<VGM file>",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of commands to list (0 = all)",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				cli.ShowCommandHelp(c, c.Command.Name)
				return errNoFile
			}
			data, err := loader.Load(path)
			if err != nil {
				return err
			}
			return listCommands(os.Stdout, newStyles(), data, c.Int("limit"))
		},
	}
}

func listCommands(w io.Writer, st styles, data []byte, limit int) error {
	hdr, err := header.Parse(data)
	if err != nil {
		return err
	}
	lines, err := disasm.DisassembleRange(data, hdr, limit)
	for _, l := range lines {
		if l.Loop {
			fmt.Fprintln(w, st.loop.Render(l.String()))
			continue
		}
		fmt.Fprintln(w, l.String())
	}
	if err != nil {
		fmt.Fprintln(w, st.warn.Render(err.Error()))
	}
	return err
}
