package ehif

// Class is the phase class of a command: what follows its CMD_REQ.
type Class uint8

const (
	ClassNone   Class = iota // CMD_REQ only.
	ClassRead                // CMD_REQ then READ of a known length.
	ClassReadBC              // CMD_REQ then READBC of a device reported length.
	ClassWrite               // CMD_REQ then WRITE.
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassRead:
		return "read"
	case ClassReadBC:
		return "readbc"
	case ClassWrite:
		return "write"
	}
	return "class?"
}

// Descriptor describes how a command's parameters and data are laid out on the wire.
type Descriptor struct {
	Cmd   Cmd
	Class Class
	// Param describes the CMD_REQ parameters.
	Param Spec
	// Data describes the READ, READBC or WRITE data phase. Empty for ClassNone.
	Data Spec
}

var table = [...]Descriptor{
	// Commands without data phase.
	{Cmd: CmdEHCEvtClr, Class: ClassNone, Param: Spec{F8(1)}},
	{Cmd: CmdEHCEvtMask, Class: ClassNone, Param: Spec{F8(2)}},
	{Cmd: CmdPMSetState, Class: ClassNone, Param: Spec{F8(1)}},
	{Cmd: CmdNWMDoJoin, Class: ClassNone, Param: Spec{F16(1), F32(4)}},
	{Cmd: CmdNWMAchSetUsage, Class: ClassNone, Param: Spec{F8(16)}},
	{Cmd: CmdNWMControlEnable, Class: ClassNone, Param: Spec{F8(2)}},
	{Cmd: CmdNWMControlSignal, Class: ClassNone, Param: Spec{F8(2)}},
	{Cmd: CmdNWMSetRFChMask, Class: ClassNone, Param: Spec{F32(1)}},
	{Cmd: CmdRCSetData, Class: ClassNone, Param: Spec{F8(9), F16(2)}},
	{Cmd: CmdVCSetVolume, Class: ClassNone, Param: Spec{F32(1)}},
	{Cmd: CmdCALSetData, Class: ClassNone, Param: Spec{F8(1), F32(1)}},
	{Cmd: CmdNVSSetData, Class: ClassNone, Param: Spec{F8(1), F32(1)}},
	{Cmd: CmdRFTTxPER, Class: ClassNone, Param: Spec{F16(1), F32(1), F8(2)}},
	{Cmd: CmdRFTTxTestPN, Class: ClassNone, Param: Spec{F8(3)}},
	{Cmd: CmdRFTTxTestCW, Class: ClassNone, Param: Spec{F8(3)}},
	{Cmd: CmdRFTRxTestCont, Class: ClassNone, Param: Spec{F8(2)}},
	{Cmd: CmdRFTNwkSim, Class: ClassNone, Param: Spec{F16(4), F8(6)}},
	{Cmd: CmdATGenTone, Class: ClassNone, Param: Spec{F8(3), F16(1)}},
	{Cmd: CmdIOTestOutput, Class: ClassNone, Param: Spec{F32(2)}},

	// Fixed length reads.
	{Cmd: CmdDIGetDeviceInfo, Class: ClassRead, Data: Spec{F32(3)}},
	{Cmd: CmdDIGetChipInfo, Class: ClassRead, Param: Spec{F16(1)}, Data: Spec{F16(2), F32(4), F16(2)}},
	{Cmd: CmdVCGetVolume, Class: ClassRead, Param: Spec{F8(1)}, Data: Spec{F16(1)}},
	{Cmd: CmdPSRFStats, Class: ClassRead, Data: Spec{F32(5), F8(2), F16(21)}},
	{Cmd: CmdPSAudioStats, Class: ClassRead, Data: Spec{F32(3), F16(1), F8(2), F16(2), Jump(-1)}},
	{Cmd: CmdRCGetData, Class: ClassRead, Param: Spec{F8(1)}, Data: Spec{F8(9), F16(2)}},
	{Cmd: CmdPMGetData, Class: ClassRead, Data: Spec{F32(3), F16(1)}},
	{Cmd: CmdCALGetData, Class: ClassRead, Data: Spec{F32(1)}},
	{Cmd: CmdIOGetPinVal, Class: ClassRead, Data: Spec{F32(1)}},
	{Cmd: CmdNVSGetData, Class: ClassRead, Param: Spec{F8(1)}, Data: Spec{F32(1)}},
	{Cmd: CmdRFTRxPER, Class: ClassRead, Param: Spec{F16(1), F32(2), F8(1)}, Data: Spec{F32(6), F16(3), F32(1), F8(1), Jump(-3)}},
	{Cmd: CmdRFTRxTestRSSI, Class: ClassRead, Param: Spec{F8(1)}, Data: Spec{F8(1)}},
	{Cmd: CmdATDetTone, Class: ClassRead, Param: Spec{F8(1)}, Data: Spec{F16(2)}},
	{Cmd: CmdIOTestInput, Class: ClassRead, Param: Spec{F32(1)}, Data: Spec{F32(1)}},

	// Variable length reads.
	{Cmd: CmdNWMDoScan, Class: ClassReadBC, Param: Spec{F16(1), F32(3), F8(2)}, Data: Spec{F32(3), F8(1), F16(1), F8(9), F16(2), Jump(-5)}},
	{Cmd: CmdNWMGetStatusM, Class: ClassReadBC, Data: Spec{F8(1), F16(2), F32(3), F16(1), F8(2), Jump(-3)}},
	{Cmd: CmdNWMGetStatusS, Class: ClassReadBC, Data: Spec{F32(3), F8(1), F16(1), F8(9), F16(3), Jump(-5)}},
	{Cmd: CmdDSCRxDatagram, Class: ClassReadBC, Data: Spec{F8(1), F32(1), F8(1), Jump(-1)}},

	// Writes.
	{Cmd: CmdDSCTxDatagram, Class: ClassWrite, Param: Spec{F8(1), F32(1)}, Data: Spec{F8(1), Jump(-1)}},
}

// Lookup returns the descriptor of cmd. ok is false for commands the
// dispatcher does not know about.
func Lookup(cmd Cmd) (d Descriptor, ok bool) {
	for i := range table {
		if table[i].Cmd == cmd {
			return table[i], true
		}
	}
	return Descriptor{}, false
}

// Descriptors returns a copy of the dispatch table.
func Descriptors() []Descriptor {
	return append([]Descriptor(nil), table[:]...)
}
