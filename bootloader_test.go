package cc85xx

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soypat/cc85xx/ehif"
	"github.com/soypat/cc85xx/fwimage"
)

var testCRC = [4]byte{0x1C, 0xDF, 0x44, 0x21}

func testImage(t *testing.T, size int) *fwimage.Image {
	t.Helper()
	b := make([]byte, size+4)
	for i := range b {
		b[i] = byte(i)
	}
	b[0x1E] = byte(size >> 8)
	b[0x1F] = byte(size)
	copy(b[size:], testCRC[:])
	im, err := fwimage.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	return im
}

// bootloaderChip scripts the bootloader status words. crc is served by the
// verify READ.
func bootloaderChip(chip *fakeChip, crc [4]byte) {
	chip.status = ehif.BLSPILoaderUnlock
	chip.onEnd = func(c *fakeChip, tx txn) {
		if tx.hdr.Kind != ehif.KindCmdReq {
			return
		}
		switch tx.hdr.Cmd {
		case ehif.CmdBLUnlockSPI:
			c.status = ehif.BLSPILoaderReady
		case ehif.CmdBLFlashMassErase:
			c.status = ehif.BLEraseDone
		case ehif.CmdBLFlashPageProg:
			c.status = ehif.BLProgDone
		case ehif.CmdBLFlashVerify:
			c.status = ehif.BLVerifyOK
			c.readData = crc[:]
		}
	}
}

func cmdTxns(chip *fakeChip, cmd ehif.Cmd) (txns []txn) {
	for _, tx := range chip.txns {
		if tx.hdr.Kind == ehif.KindCmdReq && tx.hdr.Cmd == cmd {
			txns = append(txns, tx)
		}
	}
	return txns
}

func TestFlashImage(t *testing.T) {
	dev, chip := newTestDevice(t)
	bootloaderChip(chip, testCRC)
	im := testImage(t, 0x900)
	var progress []int
	st, err := dev.FlashImage(im, func(page, pages int) {
		if pages != 3 {
			t.Errorf("pages=%d, want 3", pages)
		}
		progress = append(progress, page)
	})
	if err != nil {
		t.Fatal(err)
	}
	if st != ehif.BLVerifyOK {
		t.Errorf("status %s, want VERIFY_OK", st.BootloaderString())
	}
	if n := len(cmdTxns(chip, ehif.CmdBLUnlockSPI)); n != 1 {
		t.Errorf("%d unlocks", n)
	}
	if n := len(cmdTxns(chip, ehif.CmdBLFlashMassErase)); n != 1 {
		t.Errorf("%d erases", n)
	}
	progs := cmdTxns(chip, ehif.CmdBLFlashPageProg)
	if len(progs) != 3 {
		t.Fatalf("%d page programs, want 3", len(progs))
	}
	for i, tx := range progs {
		flash := 0x8000 + i*0x400
		want := []byte{0x60, 0x00, byte(flash >> 8), byte(flash), 0x01, 0x00, 0x25, 0x05, 0x13, 0x37}
		if diff := cmp.Diff(want, tx.body()); diff != "" {
			t.Errorf("page %d params mismatch (-want +got):\n%s", i, diff)
		}
	}
	verify := cmdTxns(chip, ehif.CmdBLFlashVerify)
	if len(verify) != 1 {
		t.Fatalf("%d verifies", len(verify))
	}
	if diff := cmp.Diff([]byte{0, 0, 0x80, 0, 0, 0, 0x09, 0x00}, verify[0].body()); diff != "" {
		t.Errorf("verify params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	// Each page is staged at 0x6000 with a full page WRITE.
	var staged, writes int
	var last []byte
	for _, tx := range chip.txns {
		switch tx.hdr.Kind {
		case ehif.KindSetAddr:
			if tx.hdr.Addr == ehif.BLRAMStagingAddr {
				staged++
			}
		case ehif.KindWrite:
			if tx.hdr.Len == fwimage.PageSize {
				writes++
				last = tx.body()
			}
		}
	}
	if staged != 3 || writes != 3 {
		t.Errorf("staged %d pages with %d writes, want 3", staged, writes)
	}
	var page [fwimage.PageSize]byte
	im.Page(2, page[:])
	if !cmp.Equal(page[:], last) {
		t.Error("last page not written as padded image data")
	}

	var resets int
	for _, ev := range chip.events {
		if ev == "rst0" {
			resets++
		}
	}
	if resets != 2 {
		t.Errorf("%d pin resets, want boot and system reset", resets)
	}
}

func TestFlashImageCRCMismatch(t *testing.T) {
	dev, chip := newTestDevice(t)
	bad := testCRC
	bad[3] ^= 1
	bootloaderChip(chip, bad)
	st, err := dev.FlashImage(testImage(t, 0x400), nil)
	if st != ehif.BLVerifyFailed {
		t.Errorf("status %s, want VERIFY_FAILED", st.BootloaderString())
	}
	var blerr *BootloaderError
	if !errors.As(err, &blerr) || blerr.Step != StepVerify {
		t.Errorf("got %v, want verify BootloaderError", err)
	}
}

func TestFlashImageUnlockFails(t *testing.T) {
	dev, chip := newTestDevice(t)
	bootloaderChip(chip, testCRC)
	chip.onEnd = func(c *fakeChip, tx txn) {
		if tx.hdr.Kind == ehif.KindCmdReq && tx.hdr.Cmd == ehif.CmdBLUnlockSPI {
			c.status = ehif.BLSPILoaderLocked
		}
	}
	st, err := dev.FlashImage(testImage(t, 0x400), nil)
	if st != ehif.BLSPILoaderLocked {
		t.Errorf("status %s, want locked", st.BootloaderString())
	}
	var blerr *BootloaderError
	if !errors.As(err, &blerr) || blerr.Step != StepUnlock || blerr.Status != ehif.BLSPILoaderLocked {
		t.Errorf("got %v, want unlock BootloaderError", err)
	}
	if n := len(cmdTxns(chip, ehif.CmdBLFlashMassErase)); n != 0 {
		t.Errorf("erase issued after failed unlock")
	}
}

func TestFlashImageProgramFails(t *testing.T) {
	dev, chip := newTestDevice(t)
	bootloaderChip(chip, testCRC)
	next := chip.onEnd
	var pages int
	chip.onEnd = func(c *fakeChip, tx txn) {
		next(c, tx)
		if tx.hdr.Kind == ehif.KindCmdReq && tx.hdr.Cmd == ehif.CmdBLFlashPageProg {
			pages++
			if pages == 2 {
				c.status = ehif.BLProgFailed
			}
		}
	}
	st, err := dev.FlashImage(testImage(t, 0xC00), nil)
	if st != ehif.BLProgFailed {
		t.Errorf("status %s, want PROG_FAILED", st.BootloaderString())
	}
	var blerr *BootloaderError
	if !errors.As(err, &blerr) || blerr.Step != StepProgram || blerr.Offset != 0x400 {
		t.Errorf("got %v, want program BootloaderError at 0x400", err)
	}
	if pages != 2 {
		t.Errorf("programmed %d pages after failure, want to stop at 2", pages)
	}
}

func TestFlashImageProgressMayPollTimeouts(t *testing.T) {
	dev, chip := newTestDevice(t)
	bootloaderChip(chip, testCRC)
	var calls int
	_, err := dev.FlashImage(testImage(t, 0x400), func(page, pages int) {
		calls++
		if dev.WaitReadyError() {
			t.Errorf("page %d/%d: unexpected ready timeout", page, pages)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("%d progress calls, want 1", calls)
	}
}
