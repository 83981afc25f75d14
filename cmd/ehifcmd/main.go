package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/soypat/cc85xx/ehif"
)

// ehifcmd decodes a two byte EHIF transaction header given in hex, i.e:
//
//	ehifcmd 0xC017
//	ehifcmd 90 0C
//
// or a raw field specification given as signed opcode bytes:
//
//	ehifcmd spec 11 82 -1
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ehifcmd <header hex> | ehifcmd spec <opcodes...>")
	}
	var err error
	if os.Args[1] == "spec" {
		err = describeSpec(os.Stdout, os.Args[2:])
	} else {
		err = describeHeader(os.Stdout, os.Args[1:])
	}
	if err != nil {
		log.Fatal(err)
	}
}

func describeHeader(w io.Writer, args []string) error {
	hdr, err := parseHex16(args)
	if err != nil {
		return err
	}
	h := ehif.DecodeHeader(byte(hdr>>8), byte(hdr))
	fmt.Fprintf(w, "%s  x=%#04x\n", h.String(), hdr)
	if h.Kind == ehif.KindCmdReq {
		if d, ok := ehif.Lookup(h.Cmd); ok {
			fmt.Fprintf(w, "class=%s  param=%s %v  data=%s %v\n", d.Class, d.Param, d.Param.Raw(), d.Data, d.Data.Raw())
		}
	}
	return nil
}

func describeSpec(w io.Writer, args []string) error {
	raw := make([]int8, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 0, 8)
		if err != nil {
			return err
		}
		raw[i] = int8(v)
	}
	spec, err := ehif.ParseSpec(raw)
	if err != nil {
		return err
	}
	fixed, record := spec.Layout()
	fmt.Fprintf(w, "%s  fixed=%d record=%d\n", spec, fixed, record)
	return nil
}

// parseHex16 accepts "0xC017", "C017" or two separate bytes "C0 17".
func parseHex16(args []string) (uint16, error) {
	s := strings.Join(args, "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	return uint16(v), err
}
