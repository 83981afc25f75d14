package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soypat/cc85xx/ehif"
)

func TestDecode(t *testing.T) {
	var dec Decoder
	tx := dec.decode(rawtx{
		SDO: []byte{0xA0, 0x00, 0xA0, 0x00, 0, 0, 0},
		SDI: []byte{0x80, 0x01, 0x00, 0x03, 0xAA, 0xBB, 0xCC},
	})
	if tx.Hdr.Kind != ehif.KindReadBC {
		t.Errorf("kind %v", tx.Hdr.Kind)
	}
	if tx.Status != ehif.StatusCmdReqRdy|ehif.EvtSampleRateChg {
		t.Errorf("status %v", tx.Status)
	}
	if tx.DevLen != 3 || !bytes.Equal(tx.Data, []byte{0xAA, 0xBB, 0xCC}) {
		t.Errorf("devlen=%d data=%x", tx.DevLen, tx.Data)
	}

	tx = dec.decode(rawtx{SDO: []byte{0xC0 | 0x17, 4, 1, 2, 3, 4}, SDI: []byte{0x80, 0, 0, 0, 0, 0}})
	if tx.Hdr.Kind != ehif.KindCmdReq || tx.Hdr.Cmd != ehif.CmdVCSetVolume || tx.Hdr.Len != 4 {
		t.Errorf("header %v", tx.Hdr)
	}
	if !bytes.Equal(tx.Data, []byte{1, 2, 3, 4}) {
		t.Errorf("params %x", tx.Data)
	}

	// Captures cut short by the analyzer keep whatever MISO bytes exist.
	tx = dec.decode(rawtx{SDO: []byte{0x90, 0x04, 0}, SDI: []byte{0x80}})
	if tx.Hdr.Kind != ehif.KindRead || len(tx.Data) != 0 {
		t.Errorf("short read: kind=%v data=%x", tx.Hdr.Kind, tx.Data)
	}
	tx = dec.decode(rawtx{SDO: []byte{0xA0, 0x00, 0xA0}, SDI: []byte{0x80, 0x00, 0x00}})
	if tx.Hdr.Kind != ehif.KindReadBC || tx.DevLen != 0 || len(tx.Data) != 0 {
		t.Errorf("short readbc: kind=%v devlen=%d data=%x", tx.Hdr.Kind, tx.DevLen, tx.Data)
	}

	tx = dec.decode(rawtx{SDO: []byte{0x80}})
	if tx.Hdr.Kind != ehif.KindUnknown {
		t.Errorf("truncated transaction decoded as %v", tx.Hdr.Kind)
	}
}

func TestProcessCollapsesRepeats(t *testing.T) {
	status := rawtx{SDO: []byte{0x80, 0x00}, SDI: []byte{0x80, 0x00}}
	write := rawtx{SDO: []byte{0x80, 0x02, 0xDE, 0xAD}, SDI: []byte{0x80, 0x00, 0, 0}}
	raws := []rawtx{status, status, status, write, status}

	dec := Decoder{OmitRepeated: true}
	txs := dec.process(raws)
	if len(txs) != 3 || txs[0].Num != 3 || txs[1].Num != 1 {
		t.Fatalf("unexpected collapse: %+v", txs)
	}
	dec.OmitStatus = true
	txs = dec.process(raws)
	if len(txs) != 1 || txs[0].Hdr.Kind != ehif.KindWrite {
		t.Fatalf("status not omitted: %+v", txs)
	}
	var sb strings.Builder
	if err := txs[0].writeTo(&sb); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "data=0xdead") {
		t.Errorf("output %q", sb.String())
	}
}
