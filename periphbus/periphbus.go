// Package periphbus implements the cc85xx.Bus interface on top of periph.io
// SPI ports and GPIO pins, covering Linux spidev and FTDI FT232H bridges.
//
// The SPI port's own chip select cannot be used: CSn must stay asserted
// across several single byte transfers and while polling MISO, so it is
// driven as a plain GPIO.
package periphbus

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/ftdi"
)

// DefaultSpeed is the SPI clock used when Config.Speed is zero.
const DefaultSpeed = 4 * physic.MegaHertz

// Config selects the SPI port and pins by their periph registry names.
type Config struct {
	// Port is the spireg port name. Empty opens the first port.
	Port  string
	Speed physic.Frequency
	CS    string
	Reset string
	// MISO and MOSI default to the port's own data pins when it exposes them.
	MISO string
	MOSI string
}

// Pins are the GPIOs a Bus drives besides the SPI data lines.
type Pins struct {
	CS    gpio.PinOut
	Reset gpio.PinOut
	// MISO is sampled to detect CMD_REQ_RDY while CSn is low.
	MISO gpio.PinIn
	// MOSI is forced high or low during pin resets and afterwards handed
	// back to the SPI function it had when the Bus was created.
	MOSI gpio.PinIO
}

// Bus is a cc85xx.Bus backed by a periph.io SPI connection. Pin errors are
// accumulated and returned by the next Transfer and by Err.
type Bus struct {
	conn     spi.Conn
	closer   io.Closer
	pins     Pins
	mosiFunc pin.Func
	mu       sync.Mutex
	err      error
	rx       [1]byte
	tx       [1]byte
}

// New returns a Bus using conn and pins. closer, if not nil, is closed by Close.
func New(conn spi.Conn, closer io.Closer, pins Pins) (*Bus, error) {
	if pins.CS == nil || pins.Reset == nil || pins.MISO == nil || pins.MOSI == nil {
		return nil, errors.New("periphbus: missing pin")
	}
	b := &Bus{conn: conn, closer: closer, pins: pins}
	if pf, ok := pins.MOSI.(pin.PinFunc); ok {
		b.mosiFunc = pf.Func()
	}
	err := multierr.Combine(
		pins.CS.Out(gpio.High),
		pins.Reset.Out(gpio.High),
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Open initializes periph host drivers and opens a spidev port with GPIO pins
// looked up in gpioreg.
func Open(cfg Config) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(speed(cfg.Speed), spi.Mode0, 8)
	if err != nil {
		return nil, multierr.Combine(err, port.Close())
	}
	var pins Pins
	if p, ok := conn.(spi.Pins); ok {
		pins.MISO = p.MISO()
		if mosi, ok := p.MOSI().(gpio.PinIO); ok {
			pins.MOSI = mosi
		}
	}
	var errs error
	pins.CS, errs = byName(errs, "CS", cfg.CS)
	pins.Reset, errs = byName(errs, "Reset", cfg.Reset)
	if cfg.MISO != "" {
		pins.MISO, errs = byName(errs, "MISO", cfg.MISO)
	}
	if cfg.MOSI != "" {
		pins.MOSI, errs = byName(errs, "MOSI", cfg.MOSI)
	}
	if errs != nil {
		return nil, multierr.Combine(errs, port.Close())
	}
	b, err := New(conn, port, pins)
	if err != nil {
		return nil, multierr.Combine(err, port.Close())
	}
	return b, nil
}

// FTDIConfig selects the FT232H pins. The MPSSE engine owns D0 (SCK),
// D1 (MOSI) and D2 (MISO).
type FTDIConfig struct {
	Speed physic.Frequency
	// Index selects among several attached FT232H. Zero is the first.
	Index int
	CS    string // Defaults to "D4".
	Reset string // Defaults to "D5".
}

// OpenFTDI opens the SPI port of an FT232H USB bridge.
func OpenFTDI(cfg FTDIConfig) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	var ft *ftdi.FT232H
	n := 0
	for _, dev := range ftdi.All() {
		if d, ok := dev.(*ftdi.FT232H); ok {
			if n == cfg.Index {
				ft = d
				break
			}
			n++
		}
	}
	if ft == nil {
		return nil, errors.New("periphbus: FT232H not found")
	}
	port, err := ft.SPI()
	if err != nil {
		return nil, err
	}
	conn, err := port.Connect(speed(cfg.Speed), spi.Mode0, 8)
	if err != nil {
		return nil, multierr.Combine(err, port.Close())
	}
	if cfg.CS == "" {
		cfg.CS = "D4"
	}
	if cfg.Reset == "" {
		cfg.Reset = "D5"
	}
	pins := Pins{MISO: ft.D2, MOSI: ft.D1}
	var errs error
	pins.CS, errs = ftdiPin(errs, ft, cfg.CS)
	pins.Reset, errs = ftdiPin(errs, ft, cfg.Reset)
	if errs != nil {
		return nil, multierr.Combine(errs, port.Close())
	}
	b, err := New(conn, port, pins)
	if err != nil {
		return nil, multierr.Combine(err, port.Close())
	}
	return b, nil
}

func (b *Bus) Transfer(w byte) (byte, error) {
	if err := b.takeErr(); err != nil {
		return 0, err
	}
	b.tx[0] = w
	err := b.conn.Tx(b.tx[:], b.rx[:])
	return b.rx[0], err
}

func (b *Bus) CSn(level bool)    { b.out(b.pins.CS, level) }
func (b *Bus) ResetN(level bool) { b.out(b.pins.Reset, level) }

func (b *Bus) MISO() bool { return b.pins.MISO.Read() == gpio.High }

func (b *Bus) ForceMOSI(level bool) { b.out(b.pins.MOSI, level) }

// ReleaseMOSI hands MOSI back to the SPI controller. Pins that do not expose
// their function are left as driven GPIO outputs.
func (b *Bus) ReleaseMOSI() {
	pf, ok := b.pins.MOSI.(pin.PinFunc)
	if !ok || b.mosiFunc == "" {
		return
	}
	b.addErr(pf.SetFunc(b.mosiFunc))
}

// Err returns and clears the accumulated pin errors.
func (b *Bus) Err() error { return b.takeErr() }

// Close deselects the chip and closes the SPI port.
func (b *Bus) Close() error {
	err := multierr.Combine(b.takeErr(), b.pins.CS.Out(gpio.High))
	if b.closer != nil {
		err = multierr.Append(err, b.closer.Close())
	}
	return err
}

func (b *Bus) out(p gpio.PinOut, level bool) {
	b.addErr(p.Out(gpio.Level(level)))
}

func (b *Bus) addErr(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	b.err = multierr.Append(b.err, err)
	b.mu.Unlock()
}

func (b *Bus) takeErr() error {
	b.mu.Lock()
	err := b.err
	b.err = nil
	b.mu.Unlock()
	return err
}

func speed(f physic.Frequency) physic.Frequency {
	if f <= 0 {
		return DefaultSpeed
	}
	return f
}

func byName(errs error, role, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, multierr.Append(errs, fmt.Errorf("periphbus: no %s pin configured", role))
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, multierr.Append(errs, fmt.Errorf("periphbus: %s pin %q not found", role, name))
	}
	return p, errs
}

func ftdiPin(errs error, ft *ftdi.FT232H, name string) (gpio.PinIO, error) {
	for _, p := range []gpio.PinIO{ft.D3, ft.D4, ft.D5, ft.D6, ft.D7, ft.C0, ft.C1, ft.C2, ft.C3, ft.C4, ft.C5, ft.C6, ft.C7} {
		if p.Name() == name || strings.HasSuffix(p.Name(), "."+name) {
			return p, errs
		}
	}
	return nil, multierr.Append(errs, fmt.Errorf("periphbus: FT232H pin %q not found", name))
}
