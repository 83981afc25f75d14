package main

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/soypat/cc85xx/fwimage"
)

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	const size = 0x40
	b := make([]byte, size+4)
	b[0x1F] = size
	bin := filepath.Join(dir, "fw.bin")
	if err := os.WriteFile(bin, b, 0o644); err != nil {
		t.Fatal(err)
	}
	im, err := loadImage(bin)
	if err != nil {
		t.Fatal(err)
	}
	if im.Size() != size {
		t.Errorf("size=%d, want %d", im.Size(), size)
	}
	want := fmt.Sprintf("image: 64 bytes, 1 pages, crc32=%#08x", crc32.ChecksumIEEE(b[:size]))
	if got := imageSummary(im); got != want {
		t.Errorf("summary %q, want %q", got, want)
	}

	short := filepath.Join(dir, "short.bin")
	if err := os.WriteFile(short, b[:size], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadImage(short); !errors.Is(err, fwimage.ErrImageTooShort) {
		t.Errorf("got %v, want ErrImageTooShort", err)
	}
	if _, err := loadImage(filepath.Join(dir, "missing.HEX")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want not exist", err)
	}
}
