package ehif

import "strconv"

// RCCmd is a proprietary remote control command code carried in RC_SET_DATA
// and RC_GET_DATA after the keyboard codes.
type RCCmd uint8

const (
	RCOutVolMuteToggle  RCCmd = 1
	RCOutVolIncr        RCCmd = 2
	RCOutVolDecr        RCCmd = 3
	RCInVolMuteToggle   RCCmd = 4
	RCNwkStandbyEnable  RCCmd = 5
	RCNwkStandbyDisable RCCmd = 6
	RCNwkStandbyToggle  RCCmd = 7
	RCPlayPauseToggle   RCCmd = 16
	RCScanNextTrack     RCCmd = 17
	RCScanPrevTrack     RCCmd = 18
	RCFastForward       RCCmd = 19
	RCRewind            RCCmd = 20
)

func (c RCCmd) String() string {
	switch c {
	case RCOutVolMuteToggle:
		return "OUT_VOL_MUTE_TOGGLE"
	case RCOutVolIncr:
		return "OUT_VOL_INCR"
	case RCOutVolDecr:
		return "OUT_VOL_DECR"
	case RCInVolMuteToggle:
		return "IN_VOL_MUTE_TOGGLE"
	case RCNwkStandbyEnable:
		return "NWK_STANDBY_ENABLE"
	case RCNwkStandbyDisable:
		return "NWK_STANDBY_DISABLE"
	case RCNwkStandbyToggle:
		return "NWK_STANDBY_TOGGLE"
	case RCPlayPauseToggle:
		return "PLAY_PAUSE_TOGGLE"
	case RCScanNextTrack:
		return "SCAN_NEXT_TRACK"
	case RCScanPrevTrack:
		return "SCAN_PREV_TRACK"
	case RCFastForward:
		return "FAST_FORWARD"
	case RCRewind:
		return "REWIND"
	}
	return "RC(" + strconv.Itoa(int(c)) + ")"
}

// RC extension selectors.
const (
	RCExtNone  = 0
	RCExtMouse = 1
)

// RCData is the remote control state sent with RC_SET_DATA and returned by RC_GET_DATA.
// Codes holds KeyCount keyboard codes (Codes[0] being the modifiers) followed by
// CmdCount proprietary command codes.
type RCData struct {
	CmdCount     uint8 // 3 bits.
	KeyCount     uint8 // 3 bits.
	ExtSel       uint8 // 2 bits.
	Codes        [7]uint8
	MouseButtons uint8
	MouseX       uint16
	MouseY       uint16
}

// SetCommands fills Codes with cmds and no keyboard codes. At most 7 commands are kept.
func (rc *RCData) SetCommands(cmds ...RCCmd) {
	n := min(len(cmds), len(rc.Codes))
	rc.KeyCount = 0
	rc.CmdCount = uint8(n)
	rc.Codes = [7]uint8{}
	for i := 0; i < n; i++ {
		rc.Codes[i] = uint8(cmds[i])
	}
}

// Commands returns the proprietary command codes of rc.
func (rc *RCData) Commands() []RCCmd {
	start := int(rc.KeyCount & 7)
	end := min(start+int(rc.CmdCount&7), len(rc.Codes))
	if start >= end {
		return nil
	}
	cmds := make([]RCCmd, 0, end-start)
	for _, c := range rc.Codes[start:end] {
		cmds = append(cmds, RCCmd(c))
	}
	return cmds
}

func (rc *RCData) Put(b []byte) {
	_ = b[SizeRCData-1]
	b[0] = rc.CmdCount&7 | (rc.KeyCount&7)<<3 | (rc.ExtSel&3)<<6
	copy(b[1:8], rc.Codes[:])
	b[8] = rc.MouseButtons
	hostOrder.PutUint16(b[9:], rc.MouseX)
	hostOrder.PutUint16(b[11:], rc.MouseY)
}

func DecodeRCData(b []byte) (rc RCData) {
	_ = b[SizeRCData-1]
	rc.CmdCount = b[0] & 7
	rc.KeyCount = b[0] >> 3 & 7
	rc.ExtSel = b[0] >> 6
	copy(rc.Codes[:], b[1:8])
	rc.MouseButtons = b[8]
	rc.MouseX = hostOrder.Uint16(b[9:])
	rc.MouseY = hostOrder.Uint16(b[11:])
	return rc
}
