// Package fwimage validates CC85xx flash images and splits them into the
// 1 KiB pages programmed by the SPI bootloader.
//
// A flash image stores its own length as a big-endian 16 bit value at offset
// 0x1E. The 4 byte CRC-32 the bootloader computes over that length follows
// the image data.
package fwimage

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/marcinbor85/gohex"
	"github.com/snksoft/crc"
)

const (
	PageSize  = 0x400
	FlashSize = 0x8000
	// FlashBase is the address of flash as seen by the bootloader and in HEX files.
	FlashBase = 0x8000

	sizeOffset = 0x1E
	crcLen     = 4
)

var (
	ErrImageTooShort = errors.New("fwimage: image shorter than its header")
	ErrImageSize     = errors.New("fwimage: image size field out of range")
)

var crcTable = crc.NewTable(crc.CRC32)

// Image is a validated flash image.
type Image struct {
	data []byte
	size int
}

// Parse validates b and returns an Image referencing it.
func Parse(b []byte) (*Image, error) {
	if len(b) < sizeOffset+2 {
		return nil, ErrImageTooShort
	}
	size := int(binary.BigEndian.Uint16(b[sizeOffset:]))
	if size < sizeOffset+2 || size > FlashSize-crcLen {
		return nil, ErrImageSize
	}
	if len(b) < size+crcLen {
		return nil, ErrImageTooShort
	}
	return &Image{data: b, size: size}, nil
}

// ParseHex reads an Intel HEX file, converts the flash region to a binary
// image padded with 0xFF and validates it.
func ParseHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	base := uint32(FlashBase)
	var end uint32
	for _, seg := range mem.GetDataSegments() {
		if seg.Address < FlashBase {
			// Image linked at address zero.
			base = 0
		}
		end = max(end, seg.Address+uint32(len(seg.Data)))
	}
	if end <= base {
		return nil, ErrImageTooShort
	}
	n := min(end-base, FlashSize)
	return Parse(mem.ToBinary(base, n, 0xFF))
}

// Size returns the image length covered by the CRC.
func (im *Image) Size() int { return im.size }

// CRC returns the expected BL_FLASH_VERIFY result stored after the image.
func (im *Image) CRC() (c [crcLen]byte) {
	copy(c[:], im.data[im.size:])
	return c
}

// Pages returns the number of flash pages needed to hold the image.
func (im *Image) Pages() int {
	return (im.size + PageSize - 1) / PageSize
}

// Page copies page i into dst, which must be PageSize long. Bytes past the
// end of the image data are filled with 0xFF.
func (im *Image) Page(i int, dst []byte) {
	_ = dst[PageSize-1]
	off := i * PageSize
	n := 0
	if off < len(im.data) {
		n = copy(dst[:PageSize], im.data[off:])
	}
	for j := n; j < PageSize; j++ {
		dst[j] = 0xFF
	}
}

// Bytes returns the image data including the trailing CRC.
func (im *Image) Bytes() []byte { return im.data[:im.size+crcLen] }

// Checksum returns the CRC-32 of the image data, used to identify images in logs.
func (im *Image) Checksum() uint32 {
	h := crc.NewHashWithTable(crcTable)
	h.Update(im.data[:im.size])
	return h.CRC32()
}
