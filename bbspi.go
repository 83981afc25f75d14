//go:build tinygo

package cc85xx

import (
	"device"
	"machine"
)

var _ Bus = (*BitbangBus)(nil)

// BitbangBus is a dumb bit-bang implementation of the EHIF bus hardcoded to
// SPI mode 0, MSB first.
type BitbangBus struct {
	SCK   machine.Pin
	SDO   machine.Pin // MOSI.
	SDI   machine.Pin // MISO.
	CS    machine.Pin
	RST   machine.Pin
	Delay uint32
}

// Configure sets up the output pins and leaves the chip deselected and out of reset.
func (s *BitbangBus) Configure() {
	out := machine.PinConfig{Mode: machine.PinOutput}
	s.SCK.Configure(out)
	s.SDO.Configure(out)
	s.CS.Configure(out)
	s.RST.Configure(out)
	s.SDI.Configure(machine.PinConfig{Mode: machine.PinInput})
	s.SCK.Low()
	s.SDO.Low()
	s.CS.High()
	s.RST.High()
	if s.Delay == 0 {
		s.Delay = 1
	}
}

// Transfer clocks out b and returns the byte received. It never errors.
func (s *BitbangBus) Transfer(b byte) (out byte, _ error) {
	for i := 7; i >= 0; i-- {
		out |= b2u8(s.bitTransfer(b&(1<<i) != 0)) << i
	}
	return out, nil
}

func (s *BitbangBus) CSn(level bool)    { s.CS.Set(level) }
func (s *BitbangBus) ResetN(level bool) { s.RST.Set(level) }
func (s *BitbangBus) MISO() bool        { return s.SDI.Get() }

// ForceMOSI drives MOSI to level. The pin is always a GPIO for this bus.
func (s *BitbangBus) ForceMOSI(level bool) { s.SDO.Set(level) }

func (s *BitbangBus) ReleaseMOSI() { s.SDO.Low() }

//go:inline
func (s *BitbangBus) bitTransfer(b bool) bool {
	s.SDO.Set(b)
	s.delay()
	s.SCK.High()
	s.delay()
	inputBit := s.SDI.Get()
	s.delay()
	s.SCK.Low()
	s.delay()
	return inputBit
}

// delay represents a quarter of the clock cycle
//
//go:inline
func (s *BitbangBus) delay() {
	for i := uint32(0); i < s.Delay; i++ {
		device.Asm("nop")
	}
}

//go:inline
func b2u8(b bool) byte {
	if b {
		return 1
	}
	return 0
}
