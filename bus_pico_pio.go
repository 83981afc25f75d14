//go:build pico

package cc85xx

import (
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

var _ Bus = (*PIOBus)(nil)

// PIOBus runs the EHIF SPI on an RP2040 PIO state machine. CSn, RESETn and
// MISO sampling use plain GPIO.
type PIOBus struct {
	spi     *piolib.SPI
	pinMode machine.PinMode
	sdo     machine.Pin
	sdi     machine.Pin
	cs      machine.Pin
	rst     machine.Pin
}

// PIOBusConfig selects the pins of a PIOBus.
type PIOBusConfig struct {
	SCK, SDO, SDI, CS, RST machine.Pin
	// Frequency of SCK in Hz. The CC85xx supports up to 12MHz.
	Frequency uint32
}

// NewPIOBus claims a state machine on PIO0 and configures the pins. The chip
// is left deselected and out of reset.
func NewPIOBus(cfg PIOBusConfig) (*PIOBus, error) {
	if cfg.Frequency == 0 {
		cfg.Frequency = 4_000_000
	}
	cfg.CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cfg.RST.Configure(machine.PinConfig{Mode: machine.PinOutput})
	cfg.CS.High()
	cfg.RST.High()
	sm, err := pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	spi, err := piolib.NewSPI(sm, machine.SPIConfig{
		Frequency: cfg.Frequency,
		SCK:       cfg.SCK,
		SDO:       cfg.SDO,
		SDI:       cfg.SDI,
		Mode:      0,
	})
	if err != nil {
		return nil, err
	}
	return &PIOBus{
		spi:     spi,
		pinMode: sm.PIO().PinMode(),
		sdo:     cfg.SDO,
		sdi:     cfg.SDI,
		cs:      cfg.CS,
		rst:     cfg.RST,
	}, nil
}

func (b *PIOBus) Transfer(w byte) (byte, error) { return b.spi.Transfer(w) }
func (b *PIOBus) CSn(level bool)                { b.cs.Set(level) }
func (b *PIOBus) ResetN(level bool)             { b.rst.Set(level) }

// MISO reads the pad input, which is valid while the pin is muxed to PIO.
func (b *PIOBus) MISO() bool { return b.sdi.Get() }

func (b *PIOBus) ForceMOSI(level bool) {
	b.sdo.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.sdo.Set(level)
}

func (b *PIOBus) ReleaseMOSI() {
	b.sdo.Configure(machine.PinConfig{Mode: b.pinMode})
}
