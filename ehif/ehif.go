// Package ehif implements the CC85xx External Host Interface (EHIF) definitions:
// command identifiers, status word bits, bootloader sentinels, the field
// specification codec and the host layouts of every command's payload.
package ehif

import "strconv"

// Cmd is an EHIF command identifier. Only the low 6 bits go on the wire, see [Cmd.Wire].
type Cmd uint8

const (
	CmdDSCTxDatagram    Cmd = 0x04
	CmdDSCRxDatagram    Cmd = 0x05
	CmdNWMDoScan        Cmd = 0x08
	CmdNWMDoJoin        Cmd = 0x09
	CmdNWMGetStatusM    Cmd = 0x0A // NWM_GET_STATUS for protocol masters.
	CmdNWMGetStatusS    Cmd = 0x8A // NWM_GET_STATUS for protocol slaves, 0x0A on the wire.
	CmdNWMAchSetUsage   Cmd = 0x0B
	CmdNWMControlEnable Cmd = 0x0C
	CmdNWMControlSignal Cmd = 0x0D
	CmdNWMSetRFChMask   Cmd = 0x0E
	CmdPSRFStats        Cmd = 0x10
	CmdPSAudioStats     Cmd = 0x11
	CmdRFTRxPER         Cmd = 0x12
	CmdRFTTxPER         Cmd = 0x13
	CmdRFTTxTestPN      Cmd = 0x14
	CmdRFTTxTestCW      Cmd = 0x15
	CmdVCGetVolume      Cmd = 0x16
	CmdVCSetVolume      Cmd = 0x17
	CmdEHCEvtClr        Cmd = 0x19
	CmdEHCEvtMask       Cmd = 0x1A
	CmdPMSetState       Cmd = 0x1C
	CmdPMGetData        Cmd = 0x1D
	CmdDIGetDeviceInfo  Cmd = 0x1E
	CmdDIGetChipInfo    Cmd = 0x1F
	CmdATGenTone        Cmd = 0x20
	CmdATDetTone        Cmd = 0x21
	CmdIOTestInput      Cmd = 0x22
	CmdIOTestOutput     Cmd = 0x23
	CmdSDPInjectError   Cmd = 0x24 // Internal test command, not dispatched.
	CmdRFTRxTestCont    Cmd = 0x25
	CmdRFTRxTestRSSI    Cmd = 0x26
	CmdRFTNwkSim        Cmd = 0x27
	CmdCALSetData       Cmd = 0x28
	CmdCALGetData       Cmd = 0x29
	CmdIOGetPinVal      Cmd = 0x2A
	CmdNVSGetData       Cmd = 0x2B
	CmdNVSSetData       Cmd = 0x2C
	CmdRCSetData        Cmd = 0x2D
	CmdRCGetData        Cmd = 0x2E
)

// Bootloader command identifiers. Only valid after a boot reset.
const (
	CmdBLUnlockSPI      Cmd = 0x00
	CmdBLFlashMassErase Cmd = 0x03
	CmdBLFlashPageProg  Cmd = 0x07
	CmdBLFlashVerify    Cmd = 0x0F
)

// Wire returns the 6 bit command field sent in the CMD_REQ header.
func (c Cmd) Wire() uint8 { return uint8(c) & 0x3f }

func (c Cmd) String() (s string) {
	switch c {
	case CmdDSCTxDatagram:
		s = "DSC_TX_DATAGRAM"
	case CmdDSCRxDatagram:
		s = "DSC_RX_DATAGRAM"
	case CmdNWMDoScan:
		s = "NWM_DO_SCAN"
	case CmdNWMDoJoin:
		s = "NWM_DO_JOIN"
	case CmdNWMGetStatusM:
		s = "NWM_GET_STATUS_M"
	case CmdNWMGetStatusS:
		s = "NWM_GET_STATUS_S"
	case CmdNWMAchSetUsage:
		s = "NWM_ACH_SET_USAGE"
	case CmdNWMControlEnable:
		s = "NWM_CONTROL_ENABLE"
	case CmdNWMControlSignal:
		s = "NWM_CONTROL_SIGNAL"
	case CmdNWMSetRFChMask:
		s = "NWM_SET_RF_CH_MASK"
	case CmdPSRFStats:
		s = "PS_RF_STATS"
	case CmdPSAudioStats:
		s = "PS_AUDIO_STATS"
	case CmdRFTRxPER:
		s = "RFT_RXPER"
	case CmdRFTTxPER:
		s = "RFT_TXPER"
	case CmdRFTTxTestPN:
		s = "RFT_TXTST_PN"
	case CmdRFTTxTestCW:
		s = "RFT_TXTST_CW"
	case CmdVCGetVolume:
		s = "VC_GET_VOLUME"
	case CmdVCSetVolume:
		s = "VC_SET_VOLUME"
	case CmdEHCEvtClr:
		s = "EHC_EVT_CLR"
	case CmdEHCEvtMask:
		s = "EHC_EVT_MASK"
	case CmdPMSetState:
		s = "PM_SET_STATE"
	case CmdPMGetData:
		s = "PM_GET_DATA"
	case CmdDIGetDeviceInfo:
		s = "DI_GET_DEVICE_INFO"
	case CmdDIGetChipInfo:
		s = "DI_GET_CHIP_INFO"
	case CmdATGenTone:
		s = "AT_GEN_TONE"
	case CmdATDetTone:
		s = "AT_DET_TONE"
	case CmdIOTestInput:
		s = "IOTST_INPUT"
	case CmdIOTestOutput:
		s = "IOTST_OUTPUT"
	case CmdSDPInjectError:
		s = "SDP_INJECT_ERROR"
	case CmdRFTRxTestCont:
		s = "RFT_RXTST_CONT"
	case CmdRFTRxTestRSSI:
		s = "RFT_RXTST_RSSI"
	case CmdRFTNwkSim:
		s = "RFT_NWKSIM"
	case CmdCALSetData:
		s = "CAL_SET_DATA"
	case CmdCALGetData:
		s = "CAL_GET_DATA"
	case CmdIOGetPinVal:
		s = "IO_GET_PIN_VAL"
	case CmdNVSGetData:
		s = "NVS_GET_DATA"
	case CmdNVSSetData:
		s = "NVS_SET_DATA"
	case CmdRCSetData:
		s = "RC_SET_DATA"
	case CmdRCGetData:
		s = "RC_GET_DATA"
	default:
		s = "CMD(0x" + strconv.FormatUint(uint64(c), 16) + ")"
	}
	return s
}

// Exec selects which phases of a command a dispatch call performs. Long running
// commands are issued with ExecCmd and their results fetched later with ExecData.
type Exec uint8

const (
	ExecCmd  Exec = 1 << 1
	ExecData Exec = 1 << 2
	ExecAll       = ExecCmd | ExecData
)

// Transaction header bytes. The first header byte selects the transaction type.
const (
	hdrSetAddr  = 0x00
	hdrWrite    = 0x80 // Also GET_STATUS when length is zero.
	hdrRead     = 0x90
	hdrReadBC   = 0xA0
	hdrBootRst  = 0xB0
	hdrSysRstHi = 0xBF
	hdrCmdReq   = 0xC0
)

// SPI reset sequences.
var (
	SysResetSequence  = [2]byte{hdrSysRstHi, 0xFF}
	BootResetSequence = [2]byte{hdrBootRst, 0x00}
)

// Maximum lengths encodable in transaction headers.
const (
	MaxDataLen  = 0x0FFF
	MaxParamLen = 0xFF
	MaxAddr     = 0x7FFF
)

// StatusHeader returns the GET_STATUS header.
func StatusHeader() [2]byte { return [2]byte{hdrWrite, 0x00} }

// WriteHeader returns the WRITE header for a data phase of length n.
func WriteHeader(n uint16) [2]byte { return [2]byte{hdrWrite | byte(n>>8)&0x0F, byte(n)} }

// ReadHeader returns the READ header for a data phase of length n.
func ReadHeader(n uint16) [2]byte { return [2]byte{hdrRead | byte(n>>8)&0x0F, byte(n)} }

// ReadBCHeader returns the READBC header. It is sent twice: once for the
// status word and once for the device reported length.
func ReadBCHeader() [2]byte { return [2]byte{hdrReadBC, 0x00} }

// CmdReqHeader returns the CMD_REQ header for cmd with n parameter bytes.
func CmdReqHeader(cmd Cmd, n uint8) [2]byte { return [2]byte{hdrCmdReq | cmd.Wire(), n} }

// SetAddrHeader returns the SET_ADDR header. Bootloader only.
func SetAddrHeader(addr uint16) [2]byte { return [2]byte{hdrSetAddr | byte(addr>>8)&0x7F, byte(addr)} }

// Bootloader memory map used when programming flash.
const (
	BLRAMStagingAddr = 0x6000
	BLFlashBaseAddr  = 0x8000
	BLPageSize       = 0x0400
	BLFlashSize      = 0x8000
)

// Keys sent along with bootloader commands.
var (
	BLUnlockKey = [4]byte{0x25, 0x05, 0xB0, 0x07}
	BLFlashKey  = [4]byte{0x25, 0x05, 0x13, 0x37}
)

// PageProgParams returns the BL_FLASH_PAGE_PROG parameters programming one page
// staged at ramAddr into flashAddr.
func PageProgParams(ramAddr, flashAddr uint16) [10]byte {
	return [10]byte{
		byte(ramAddr >> 8), byte(ramAddr),
		byte(flashAddr >> 8), byte(flashAddr),
		0x01, 0x00, // Dword count, 0x100 dwords is one page.
		BLFlashKey[0], BLFlashKey[1], BLFlashKey[2], BLFlashKey[3],
	}
}

// VerifyParams returns the BL_FLASH_VERIFY parameters computing the CRC-32 of
// the first byteCount bytes of flash.
func VerifyParams(byteCount uint16) [8]byte {
	return [8]byte{
		0x00, 0x00, 0x80, 0x00, // Data address.
		0x00, 0x00, byte(byteCount >> 8), byte(byteCount),
	}
}
