// Package busflag holds the command line flags shared by the EHIF host tools
// to select and open a periph.io bus.
package busflag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/soypat/cc85xx"
	"github.com/soypat/cc85xx/periphbus"
	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"
)

const (
	SPI     = "spi"
	CS      = "cs"
	Reset   = "reset"
	MISO    = "miso"
	MOSI    = "mosi"
	Speed   = "speed"
	FTDI    = "ftdi"
	Verbose = "verbose"
	Trace   = "trace"
)

// Flags returns the bus selection and logging flags.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    SPI,
			Usage:   "periph SPI port name, empty selects the first port",
			EnvVars: []string{"EHIF_SPI"},
		},
		&cli.StringFlag{
			Name:    CS,
			Usage:   "GPIO driving CSn",
			EnvVars: []string{"EHIF_CS"},
		},
		&cli.StringFlag{
			Name:    Reset,
			Usage:   "GPIO driving RESETn",
			EnvVars: []string{"EHIF_RESET"},
		},
		&cli.StringFlag{
			Name:    MISO,
			Usage:   "GPIO sampling MISO, defaults to the SPI port's MISO",
			EnvVars: []string{"EHIF_MISO"},
		},
		&cli.StringFlag{
			Name:    MOSI,
			Usage:   "GPIO forcing MOSI during pin resets, defaults to the SPI port's MOSI",
			EnvVars: []string{"EHIF_MOSI"},
		},
		&cli.StringFlag{
			Name:    Speed,
			Usage:   "SPI clock frequency",
			Value:   "4MHz",
			EnvVars: []string{"EHIF_SPEED"},
		},
		&cli.BoolFlag{
			Name:  FTDI,
			Usage: "use an FT232H USB bridge instead of spidev",
		},
		&cli.BoolFlag{
			Name:    Verbose,
			Aliases: []string{"v"},
			Usage:   "enable debug logging",
		},
		&cli.BoolFlag{
			Name:  Trace,
			Usage: "log every EHIF transaction",
		},
	}
}

// Logger returns a text logger writing to stdout at the level selected by
// the verbosity flags.
func Logger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.Bool(Trace):
		level = slog.LevelDebug - 1
	case c.Bool(Verbose):
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Open opens the bus selected by the flags and returns a device on it. The
// returned closer releases the bus.
func Open(c *cli.Context) (*cc85xx.Device, io.Closer, error) {
	var speed physic.Frequency
	if err := speed.Set(c.String(Speed)); err != nil {
		return nil, nil, fmt.Errorf("invalid --%s: %w", Speed, err)
	}
	var (
		bus *periphbus.Bus
		err error
	)
	if c.Bool(FTDI) {
		bus, err = periphbus.OpenFTDI(periphbus.FTDIConfig{
			Speed: speed,
			CS:    c.String(CS),
			Reset: c.String(Reset),
		})
	} else {
		if c.String(CS) == "" || c.String(Reset) == "" {
			return nil, nil, errors.New("--cs and --reset are required with spidev")
		}
		bus, err = periphbus.Open(periphbus.Config{
			Port:  c.String(SPI),
			Speed: speed,
			CS:    c.String(CS),
			Reset: c.String(Reset),
			MISO:  c.String(MISO),
			MOSI:  c.String(MOSI),
		})
	}
	if err != nil {
		return nil, nil, err
	}
	cfg := cc85xx.DefaultConfig()
	cfg.Logger = Logger(c)
	return cc85xx.New(bus, cfg), bus, nil
}
