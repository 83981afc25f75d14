package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soypat/cc85xx"
	"github.com/soypat/cc85xx/ehif"
	"github.com/soypat/cc85xx/fwimage"
	"github.com/soypat/cc85xx/internal/busflag"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

// withDevice opens the device, runs fn and closes the bus.
func withDevice(c *cli.Context, fn func(dev *cc85xx.Device) error) (err error) {
	dev, closer, err := busflag.Open(c)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, closer.Close())
	}()
	err = fn(dev)
	if err == nil && dev.WaitReadyError() {
		err = cc85xx.ErrNotReady
	}
	return err
}

func statusAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		st, err := dev.GetStatus()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "status=%#04x %s\n", uint16(st), st)
		return nil
	})
}

func infoAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		di, err := dev.DeviceInfo()
		if err != nil {
			return err
		}
		ci, err := dev.ChipInfo()
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "device id:    %#08x\n", di.DeviceID)
		fmt.Fprintf(w, "manufacturer: %#08x\n", di.MfctID)
		fmt.Fprintf(w, "product id:   %#08x\n", di.ProdID)
		fmt.Fprintf(w, "chip:         family=%#04x id=%#04x rev=%d caps=%#04x\n", ci.FamilyID, ci.ChipID, ci.SiliconRev, ci.ChipCaps)
		fmt.Fprintf(w, "rom:          rev=%#x size=%d\n", ci.ROMRev, ci.ROMSize)
		fmt.Fprintf(w, "nvm:          rev=%#x size=%d\n", ci.NVMRev, ci.NVMSize)
		return nil
	})
}

func resetAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		boot, spi := c.Bool("boot"), c.Bool("spi-seq")
		switch {
		case boot && spi:
			return dev.BootResetSpi()
		case boot:
			dev.BootResetPin()
		case spi:
			return dev.SysResetSpi(true)
		default:
			dev.SysResetPin(true)
		}
		return nil
	})
}

func loadImage(name string) (*fwimage.Image, error) {
	if strings.EqualFold(filepath.Ext(name), ".hex") {
		fp, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer fp.Close()
		return fwimage.ParseHex(fp)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return fwimage.Parse(b)
}

// imageSummary identifies im by size, page count and CRC-32 of its data.
func imageSummary(im *fwimage.Image) string {
	return fmt.Sprintf("image: %d bytes, %d pages, crc32=%#08x", im.Size(), im.Pages(), im.Checksum())
}

func flashAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("flash takes exactly one image argument")
	}
	im, err := loadImage(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, imageSummary(im))
	return withDevice(c, func(dev *cc85xx.Device) error {
		st, err := dev.FlashImage(im, func(page, pages int) {
			fmt.Fprintf(c.App.Writer, "\rprogrammed page %d/%d", page, pages)
		})
		fmt.Fprintln(c.App.Writer)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "flash verified: %s (%d bytes)\n", st.BootloaderString(), im.Size())
		return nil
	})
}

func volumeAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		channel := uint8(c.Uint("channel"))
		p := ehif.SetVolumeParams{LogChannel: channel}
		if c.IsSet("set") {
			p.SetOp = ehif.VolumeSetAbsolute
			p.Value = int16(c.Int("set"))
		}
		switch {
		case c.Bool("mute"):
			p.MuteOp = ehif.VolumeMute
		case c.Bool("unmute"):
			p.MuteOp = ehif.VolumeUnmute
		}
		if p.SetOp != ehif.VolumeSetNone || p.MuteOp != ehif.VolumeMuteNone {
			if err := dev.SetVolume(p); err != nil {
				return err
			}
		}
		vol, err := dev.Volume(ehif.GetVolumeParams{IsLocalOrChannelOffset: true, LogChannel: channel})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "volume: %.2f dB\n", float32(vol)/16)
		return nil
	})
}

func scanAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		timeout := c.Uint("timeout")
		err := dev.StartScan(ehif.ScanParams{
			Timeout:    uint16(timeout),
			MaxResults: uint8(c.Uint("max")),
			ReqRSSI:    -128,
		})
		if err != nil {
			return err
		}
		if !dev.WaitReadyMs(uint16(min(timeout*10+100, 0xFFFF))) {
			return errors.New("scan did not complete")
		}
		results, err := dev.ScanResults()
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(c.App.Writer, "device=%#08x mfct=%#08x prod=%#08x rssi=%d join=%v pair=%v\n",
				r.DeviceID, r.MfctID, r.ProdID, r.RSSI, r.AllowsJoin, r.PairSignal)
		}
		return nil
	})
}

func rfStatsAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		st, err := dev.RFStats()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%+v\n", st)
		return nil
	})
}

func audioStatsAction(c *cli.Context) error {
	return withDevice(c, func(dev *cc85xx.Device) error {
		st, err := dev.AudioStats()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%+v\n", st)
		return nil
	})
}

func nvsSlot(c *cli.Context) (uint8, error) {
	slot, err := strconv.ParseUint(c.Args().Get(0), 0, 8)
	if err != nil || slot > 1 {
		return 0, fmt.Errorf("invalid NVS slot %q, want 0 or 1", c.Args().Get(0))
	}
	return uint8(slot), nil
}

func nvsGetAction(c *cli.Context) error {
	slot, err := nvsSlot(c)
	if err != nil {
		return err
	}
	return withDevice(c, func(dev *cc85xx.Device) error {
		v, err := dev.NVSData(slot)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "nvs[%d]=%#08x\n", slot, v)
		return nil
	})
}

func nvsSetAction(c *cli.Context) error {
	slot, err := nvsSlot(c)
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(c.Args().Get(1), 0, 32)
	if err != nil {
		return err
	}
	return withDevice(c, func(dev *cc85xx.Device) error {
		return dev.SetNVSData(slot, uint32(v))
	})
}
