package ehif

import "strings"

// Status is the 16-bit status word the chip shifts out during the first two
// bytes of every transaction. It is only valid right after a transaction.
type Status uint16

// Status word bits.
const (
	StatusCmdReqRdy   Status = 1 << 15 // Ready for (another) command.
	StatusConnected   Status = 1 << 8  // One or more network connections.
	EvtDSCRxAvail     Status = 1 << 7  // Data side channel RX FIFO not empty.
	EvtDSCTxAvail     Status = 1 << 6  // Data side channel TX FIFO has room.
	EvtDSCReset       Status = 1 << 5  // Data side channel was reset.
	EvtSPIError       Status = 1 << 4
	EvtVolumeChanged  Status = 1 << 3
	EvtPowerChanged   Status = 1 << 2
	EvtNetworkChanged Status = 1 << 1
	EvtSampleRateChg  Status = 1 << 0

	// EvtAll masks the event flags that EHC_EVT_CLR and EHC_EVT_MASK operate on.
	EvtAll Status = 0xFF
)

// Bootloader status words. In bootloader mode the status word is one of these
// sentinels instead of a bit mask.
const (
	BLSPILoaderUnlock Status = 0x8021 // Locked, waiting for BL_UNLOCK_SPI.
	BLSPILoaderReady  Status = 0x8020
	BLSPILoaderLocked Status = 0x0022 // One-shot unlock failed.
	BLEraseWorking    Status = 0x0002
	BLEraseDone       Status = 0x8003
	BLEraseFailed     Status = 0x8004
	BLProgWorking     Status = 0x000A
	BLProgDone        Status = 0x800B
	BLProgFailed      Status = 0x800C
	BLVerifyWorking   Status = 0x000D
	BLVerifyOK        Status = 0x800E
	BLVerifyFailed    Status = 0x800F
)

// CmdReqReady reports whether the chip is ready to accept another command.
func (s Status) CmdReqReady() bool { return s&StatusCmdReqRdy != 0 }

// Connected reports whether the chip has one or more network connections.
func (s Status) Connected() bool { return s&StatusConnected != 0 }

// SPIError reports whether the chip flagged a malformed EHIF transaction.
func (s Status) SPIError() bool { return s&EvtSPIError != 0 }

// Events returns the event flags of the status word.
func (s Status) Events() Status { return s & EvtAll }

var statusBitNames = [16]string{
	0:  "SR_CHG",
	1:  "NWK_CHG",
	2:  "PS_CHG",
	3:  "VOL_CHG",
	4:  "SPI_ERROR",
	5:  "DSC_RESET",
	6:  "DSC_TX_AVAIL",
	7:  "DSC_RX_AVAIL",
	8:  "CONNECTED",
	15: "CMD_REQ_RDY",
}

// String returns the set flags joined by '|', or "0" when none are set.
func (s Status) String() string {
	if s == 0 {
		return "0"
	}
	var sb strings.Builder
	for i := 15; i >= 0; i-- {
		if s&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		name := statusBitNames[i]
		if name == "" {
			name = "BIT" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		}
		sb.WriteString(name)
	}
	return sb.String()
}

// BootloaderString interprets s as a bootloader sentinel.
func (s Status) BootloaderString() string {
	switch s {
	case BLSPILoaderUnlock:
		return "SPI_LOADER_UNLOCK"
	case BLSPILoaderReady:
		return "SPI_LOADER_READY"
	case BLSPILoaderLocked:
		return "SPI_LOADER_LOCKED"
	case BLEraseWorking:
		return "ERASE_WORKING"
	case BLEraseDone:
		return "ERASE_DONE"
	case BLEraseFailed:
		return "ERASE_FAILED"
	case BLProgWorking:
		return "PROG_WORKING"
	case BLProgDone:
		return "PROG_DONE"
	case BLProgFailed:
		return "PROG_FAILED"
	case BLVerifyWorking:
		return "VERIFY_WORKING"
	case BLVerifyOK:
		return "VERIFY_OK"
	case BLVerifyFailed:
		return "VERIFY_FAILED"
	}
	return "BL(0x" + s.Hex() + ")"
}

// Hex returns the status word as four lowercase hex digits.
func (s Status) Hex() string {
	v := uint16(s)
	const hextable = "0123456789abcdef"
	return string([]byte{hextable[v>>12], hextable[v>>8&0xf], hextable[v>>4&0xf], hextable[v&0xf]})
}
