// Command ehifctl controls a CC85xx wireless audio device over EHIF from a
// Linux host using spidev and GPIO or an FT232H USB bridge.
package main

import (
	"fmt"
	"os"

	"github.com/soypat/cc85xx/internal/busflag"
	"github.com/urfave/cli/v2"
)

var app = &cli.App{
	Name:            "ehifctl",
	Usage:           "control a CC85xx wireless audio device over EHIF",
	HideHelpCommand: true,
	Flags:           busflag.Flags(),
	Commands: []*cli.Command{
		{
			Name:   "status",
			Usage:  "print the EHIF status word",
			Action: statusAction,
		},
		{
			Name:   "info",
			Usage:  "print device and chip information",
			Action: infoAction,
		},
		{
			Name:  "reset",
			Usage: "reset the device",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "boot", Usage: "reset into the SPI bootloader"},
				&cli.BoolFlag{Name: "spi-seq", Usage: "use the SPI reset sequence instead of RESETn"},
			},
			Action: resetAction,
		},
		{
			Name:      "flash",
			Usage:     "program a flash image (.bin or Intel .hex)",
			ArgsUsage: "<image>",
			Action:    flashAction,
		},
		{
			Name:  "volume",
			Usage: "get or set the output volume",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "set", Usage: "absolute volume in 1/16 dB"},
				&cli.UintFlag{Name: "channel", Usage: "logical channel"},
				&cli.BoolFlag{Name: "mute", Usage: "mute output"},
				&cli.BoolFlag{Name: "unmute", Usage: "unmute output"},
			},
			Action: volumeAction,
		},
		{
			Name:  "scan",
			Usage: "scan for protocol masters",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "timeout", Value: 100, Usage: "scan timeout in units of 10ms"},
				&cli.UintFlag{Name: "max", Value: 8, Usage: "maximum number of results"},
			},
			Action: scanAction,
		},
		{
			Name:            "stats",
			Usage:           "print statistics",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{Name: "rf", Usage: "RF statistics", Action: rfStatsAction},
				{Name: "audio", Usage: "audio statistics", Action: audioStatsAction},
			},
		},
		{
			Name:            "nvs",
			Usage:           "access non-volatile storage slots",
			HideHelpCommand: true,
			Subcommands: []*cli.Command{
				{Name: "get", ArgsUsage: "<slot>", Action: nvsGetAction},
				{Name: "set", ArgsUsage: "<slot> <value>", Action: nvsSetAction},
			},
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ehifctl:", err)
		os.Exit(1)
	}
}
