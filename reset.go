package cc85xx

import (
	"time"

	"github.com/soypat/cc85xx/ehif"
)

const (
	resetHold      = 2 * time.Millisecond
	resetToCSnHigh = 4 * time.Microsecond
	spiResetToCSn  = 2 * time.Microsecond
	csnHighTime    = time.Microsecond
	resetReadyMs   = 100
)

// SysResetPin resets the chip into normal operation with the RESETn pin while
// MOSI is held high. If wait is set it then waits up to 100ms for CMD_REQ_RDY.
func (d *Device) SysResetPin(wait bool) {
	d.acquire()
	defer d.release()
	d.sysResetPin(wait)
}

// BootResetPin resets the chip into its SPI bootloader with the RESETn pin
// while MOSI is held low, then waits up to 100ms for CMD_REQ_RDY.
func (d *Device) BootResetPin() {
	d.acquire()
	defer d.release()
	d.bootResetPin()
}

// SysResetSpi resets the chip into normal operation with the SYS_RESET SPI sequence.
func (d *Device) SysResetSpi(wait bool) error {
	d.acquire()
	defer d.release()
	d.debug("ehif:sys-reset-spi")
	d.bus.CSn(false)
	d.sleep(resetHold)
	err := d.send(ehif.SysResetSequence)
	d.sleep(spiResetToCSn)
	d.bus.CSn(true)
	if wait && err == nil {
		d.sleep(csnHighTime)
		d.waitReadyMs(resetReadyMs)
	}
	return err
}

// BootResetSpi resets the chip into its SPI bootloader with the BOOT_RESET SPI sequence.
func (d *Device) BootResetSpi() error {
	d.acquire()
	defer d.release()
	d.debug("ehif:boot-reset-spi")
	d.bus.CSn(false)
	d.sleep(resetHold)
	err := d.critical(func() error {
		err := d.send(ehif.BootResetSequence)
		d.sleep(spiResetToCSn)
		d.bus.CSn(true)
		d.sleep(csnHighTime)
		d.bus.CSn(false)
		return err
	})
	d.waitReadyMs(resetReadyMs)
	d.bus.CSn(true)
	return err
}

func (d *Device) sysResetPin(wait bool) {
	d.debug("ehif:sys-reset-pin")
	d.bus.ForceMOSI(true)
	d.bus.ResetN(false)
	d.bus.CSn(false)
	d.sleep(resetHold)
	d.bus.ResetN(true)
	d.sleep(resetToCSnHigh)
	d.bus.CSn(true)
	if wait {
		d.sleep(csnHighTime)
		d.waitReadyMs(resetReadyMs)
	}
	d.bus.ReleaseMOSI()
}

func (d *Device) bootResetPin() {
	d.debug("ehif:boot-reset-pin")
	d.bus.ForceMOSI(false)
	d.bus.ResetN(false)
	d.bus.CSn(false)
	d.sleep(resetHold)
	d.critical(func() error {
		d.bus.ResetN(true)
		d.sleep(resetToCSnHigh)
		d.bus.CSn(true)
		d.sleep(csnHighTime)
		d.bus.CSn(false)
		return nil
	})
	d.waitReadyMs(resetReadyMs)
	d.bus.CSn(true)
	d.bus.ReleaseMOSI()
}

// critical runs fn inside the configured critical section.
func (d *Device) critical(fn func() error) error {
	d.crit.Lock()
	defer d.crit.Unlock()
	return fn()
}

// send clocks out b ignoring the bytes received.
func (d *Device) send(b [2]byte) error {
	for _, c := range b {
		if _, err := d.bus.Transfer(c); err != nil {
			return err
		}
	}
	return nil
}
