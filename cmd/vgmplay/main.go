package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "vgmplay"
	app.Description = "A VGM/VGZ player and inspector"
	app.Usage = "vgmplay <command> [options] <VGM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		setupLogging(c.Bool("debug"))
		return nil
	}
	app.Commands = []cli.Command{
		infoCommand(),
		disasmCommand(),
		renderCommand(),
		playCommand(),
		traceCommand(),
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running vgmplay", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
