package cc85xx

import (
	"log/slog"

	"github.com/soypat/cc85xx/ehif"
	"github.com/soypat/cc85xx/fwimage"
	"golang.org/x/exp/constraints"
)

// Bootloader command completion timeouts in milliseconds.
const (
	blUnlockMs = 1
	blEraseMs  = 25
	blProgMs   = 10
	blVerifyMs = 15
)

// BLUnlockSPI unlocks the SPI bootloader. The chip must have been reset into
// the bootloader. It returns BLSPILoaderReady on success.
func (d *Device) BLUnlockSPI() (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.blUnlockSPI()
}

// BLFlashMassErase erases all of flash. It returns BLEraseDone on success.
func (d *Device) BLFlashMassErase() (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.blFlashMassErase()
}

// BLFlashPageProg programs the page staged in RAM at ramAddr into flashAddr.
// It returns BLProgDone on success.
func (d *Device) BLFlashPageProg(ramAddr, flashAddr uint16) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.blFlashPageProg(ramAddr, flashAddr)
}

// BLFlashVerify computes the CRC-32 of the first byteCount bytes of flash into
// crc. The returned status is that of the READ fetching the result.
func (d *Device) BLFlashVerify(byteCount uint16, crc *[4]byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.blFlashVerify(byteCount, crc)
}

func (d *Device) blUnlockSPI() (ehif.Status, error) {
	return d.blCmd(ehif.CmdBLUnlockSPI, ehif.BLUnlockKey[:], blUnlockMs)
}

func (d *Device) blFlashMassErase() (ehif.Status, error) {
	return d.blCmd(ehif.CmdBLFlashMassErase, ehif.BLFlashKey[:], blEraseMs)
}

func (d *Device) blFlashPageProg(ramAddr, flashAddr uint16) (ehif.Status, error) {
	params := ehif.PageProgParams(ramAddr, flashAddr)
	return d.blCmd(ehif.CmdBLFlashPageProg, params[:], blProgMs)
}

func (d *Device) blFlashVerify(byteCount uint16, crc *[4]byte) (ehif.Status, error) {
	params := ehif.VerifyParams(byteCount)
	if _, err := d.cmdReq(ehif.CmdBLFlashVerify, rawSpec, params[:]); err != nil {
		return 0, err
	}
	d.waitReadyMs(blVerifyMs)
	return d.read(rawSpec, crc[:])
}

// blCmd issues a bootloader command, waits up to ms for it to complete and
// returns the resulting status word.
func (d *Device) blCmd(cmd ehif.Cmd, params []byte, ms uint16) (ehif.Status, error) {
	if _, err := d.cmdReq(cmd, rawSpec, params); err != nil {
		return 0, err
	}
	d.waitReadyMs(ms)
	return d.getStatus()
}

// FlashImage programs im into flash using the SPI bootloader: boot reset,
// unlock, mass erase, one page program per 1 KiB of image and a CRC-32
// verify against the checksum stored in the image. On success the chip is
// reset into normal operation and BLVerifyOK is returned.
//
// A step ending in an unexpected status returns that status together with a
// *BootloaderError. No step is retried. progress, if not nil, is called after
// each page is programmed. It runs with the device lock held and must not call
// Device methods other than WaitReadyError, or it deadlocks.
func (d *Device) FlashImage(im *fwimage.Image, progress func(page, pages int)) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	start := d.clk.Now()
	size := im.Size()
	end := min(alignup(uint32(size), fwimage.PageSize), fwimage.FlashSize)
	pages := int(end / fwimage.PageSize)
	d.info("bl:flash start", slog.Int("size", size), slog.Int("pages", pages), slog.String("crc32", hex32(im.Checksum())))

	d.bootResetPin()
	st, err := d.blUnlockSPI()
	if err != nil {
		return st, err
	} else if st != ehif.BLSPILoaderReady {
		return st, d.blErr(StepUnlock, st, 0)
	}

	st, err = d.blFlashMassErase()
	if err != nil {
		return st, err
	} else if st != ehif.BLEraseDone {
		return st, d.blErr(StepErase, st, 0)
	}

	var page [fwimage.PageSize]byte
	for off := uint32(0); off < end; off += fwimage.PageSize {
		im.Page(int(off/fwimage.PageSize), page[:])
		if _, err = d.setAddr(ehif.BLRAMStagingAddr); err != nil {
			return 0, err
		}
		if _, err = d.write(rawSpec, page[:]); err != nil {
			return 0, err
		}
		st, err = d.blFlashPageProg(ehif.BLRAMStagingAddr, uint16(ehif.BLFlashBaseAddr+off))
		if err != nil {
			return st, err
		} else if st != ehif.BLProgDone {
			return st, d.blErr(StepProgram, st, int(off))
		}
		d.trace("bl:page", slog.Int("offset", int(off)))
		if progress != nil {
			progress(int(off/fwimage.PageSize)+1, pages)
		}
	}

	var crc [4]byte
	st, err = d.blFlashVerify(uint16(size), &crc)
	if err != nil {
		return st, err
	}
	if crc != im.CRC() {
		st = ehif.BLVerifyFailed
	}
	d.sysResetPin(false)
	if st != ehif.BLVerifyOK {
		return st, d.blErr(StepVerify, st, 0)
	}
	d.info("bl:flash done", slog.Duration("elapsed", d.clk.Since(start)))
	return st, nil
}

func (d *Device) blErr(step BootloaderStep, st ehif.Status, off int) error {
	d.logerr("bl:step failed", slog.String("step", step.String()), slog.String("status", st.BootloaderString()), slog.Int("offset", off))
	return &BootloaderError{Step: step, Status: st, Offset: off}
}

// alignup rounds val up to the nearest multiple of align, a power of two.
func alignup[T constraints.Unsigned](val, align T) T {
	return (val + align - 1) &^ (align - 1)
}
