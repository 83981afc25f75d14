package ehif

import "strconv"

// HeaderKind identifies an EHIF transaction type by its header.
type HeaderKind uint8

const (
	KindUnknown HeaderKind = iota
	KindSetAddr
	KindGetStatus
	KindWrite
	KindRead
	KindReadBC
	KindCmdReq
	KindBootReset
	KindSysReset
)

func (k HeaderKind) String() string {
	switch k {
	case KindSetAddr:
		return "SET_ADDR"
	case KindGetStatus:
		return "GET_STATUS"
	case KindWrite:
		return "WRITE"
	case KindRead:
		return "READ"
	case KindReadBC:
		return "READBC"
	case KindCmdReq:
		return "CMD_REQ"
	case KindBootReset:
		return "BOOT_RESET"
	case KindSysReset:
		return "SYS_RESET"
	}
	return "UNKNOWN"
}

// Header is a decoded two byte transaction header as sent by the host.
type Header struct {
	Kind HeaderKind
	// Len is the data length of WRITE and READ or the parameter length of CMD_REQ.
	Len  uint16
	Cmd  Cmd    // CMD_REQ only, 6 bits.
	Addr uint16 // SET_ADDR only.
}

// DecodeHeader decodes the first two bytes the host sends in a transaction.
func DecodeHeader(b0, b1 byte) (h Header) {
	switch {
	case b0&0x80 == 0:
		h.Kind = KindSetAddr
		h.Addr = uint16(b0&0x7f)<<8 | uint16(b1)
	case b0&0xC0 == hdrCmdReq:
		h.Kind = KindCmdReq
		h.Cmd = Cmd(b0 & 0x3f)
		h.Len = uint16(b1)
	case b0&0xF0 == hdrWrite:
		h.Len = uint16(b0&0x0f)<<8 | uint16(b1)
		h.Kind = KindWrite
		if h.Len == 0 {
			h.Kind = KindGetStatus
		}
	case b0&0xF0 == hdrRead:
		h.Kind = KindRead
		h.Len = uint16(b0&0x0f)<<8 | uint16(b1)
	case b0 == hdrReadBC && b1 == 0:
		h.Kind = KindReadBC
	case b0 == hdrBootRst && b1 == 0:
		h.Kind = KindBootReset
	case b0 == hdrSysRstHi && b1 == 0xFF:
		h.Kind = KindSysReset
	}
	return h
}

func (h Header) String() string {
	switch h.Kind {
	case KindSetAddr:
		return "SET_ADDR 0x" + strconv.FormatUint(uint64(h.Addr), 16)
	case KindWrite, KindRead:
		return h.Kind.String() + " len=" + strconv.Itoa(int(h.Len))
	case KindCmdReq:
		return "CMD_REQ " + h.Cmd.String() + " len=" + strconv.Itoa(int(h.Len))
	}
	return h.Kind.String()
}
