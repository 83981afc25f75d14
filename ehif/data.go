package ehif

// Host layout sizes of command data.
const (
	SizeDeviceInfo       = 12
	SizeChipInfo         = 24
	SizeVolume           = 2
	SizeRFStats          = 64
	SizeAudioStatsHeader = 16
	SizeAudioChannel     = 4
	MaxAudioChannels     = 6
	SizeAudioStats       = SizeAudioStatsHeader + MaxAudioChannels*SizeAudioChannel
	SizePMData           = 14
	SizeCalData          = 4
	SizePinVal           = 4
	SizeNVSData          = 4
	SizeRxPERHeader      = 24
	SizeRxPERChannel     = 11
	MaxRxPERChannels     = 20
	SizeRxPER            = SizeRxPERHeader + MaxRxPERChannels*SizeRxPERChannel
	SizeRSSI             = 1
	SizeDetTone          = 4
	SizeIOTestInput      = 4
	SizeScanResult       = 28
	SizeMasterHeader     = 5
	SizeWPSInfo          = 16
	MaxWPS               = 6
	SizeMasterStatus     = SizeMasterHeader + MaxWPS*SizeWPSInfo
	SizeSlaveStatus      = 30
	SizeDatagramHeader   = 5
)

// DeviceInfo is returned by DI_GET_DEVICE_INFO.
type DeviceInfo struct {
	DeviceID uint32
	MfctID   uint32
	ProdID   uint32
}

func DecodeDeviceInfo(b []byte) (di DeviceInfo) {
	_ = b[SizeDeviceInfo-1]
	di.DeviceID = hostOrder.Uint32(b)
	di.MfctID = hostOrder.Uint32(b[4:])
	di.ProdID = hostOrder.Uint32(b[8:])
	return di
}

// ChipInfo is returned by DI_GET_CHIP_INFO.
type ChipInfo struct {
	FamilyID   uint16 // 0x2505.
	SiliconRev uint16
	ROMRev     uint32
	NVMRev     uint32
	ROMSize    uint32
	NVMSize    uint32
	ChipID     uint16 // 0x8520 for the first device.
	ChipCaps   uint16
}

func DecodeChipInfo(b []byte) (ci ChipInfo) {
	_ = b[SizeChipInfo-1]
	ci.FamilyID = hostOrder.Uint16(b)
	ci.SiliconRev = hostOrder.Uint16(b[2:])
	ci.ROMRev = hostOrder.Uint32(b[4:])
	ci.NVMRev = hostOrder.Uint32(b[8:])
	ci.ROMSize = hostOrder.Uint32(b[12:])
	ci.NVMSize = hostOrder.Uint32(b[16:])
	ci.ChipID = hostOrder.Uint16(b[20:])
	ci.ChipCaps = hostOrder.Uint16(b[22:])
	return ci
}

// DecodeVolume decodes VC_GET_VOLUME data.
func DecodeVolume(b []byte) int16 {
	return int16(hostOrder.Uint16(b))
}

// RFStats is returned by PS_RF_STATS.
type RFStats struct {
	TimeslotCount   uint32
	PktRxCount      uint32
	PktRxErrCount   uint32
	SliceRxTxCount  uint32
	SliceRxErrCount uint32
	NwkJoinCount    uint8
	NwkDropCount    uint8
	AFHSwapCount    uint16
	// AFHChUsageCount holds the timeslots each RF channel has been used for.
	AFHChUsageCount [20]uint16
}

func DecodeRFStats(b []byte) (st RFStats) {
	_ = b[SizeRFStats-1]
	st.TimeslotCount = hostOrder.Uint32(b)
	st.PktRxCount = hostOrder.Uint32(b[4:])
	st.PktRxErrCount = hostOrder.Uint32(b[8:])
	st.SliceRxTxCount = hostOrder.Uint32(b[12:])
	st.SliceRxErrCount = hostOrder.Uint32(b[16:])
	st.NwkJoinCount = b[20]
	st.NwkDropCount = b[21]
	st.AFHSwapCount = hostOrder.Uint16(b[22:])
	for i := range st.AFHChUsageCount {
		st.AFHChUsageCount[i] = hostOrder.Uint16(b[24+2*i:])
	}
	return st
}

// AudioStats is returned by PS_AUDIO_STATS. Sample counts are divided by 16.
type AudioStats struct {
	SmplProcessed  uint32
	SmplConcealed  uint32
	SmplMuted      uint32
	MuteEventCount uint16
	Channels       []AudioChannelStats
}

type AudioChannelStats struct {
	PeakValue     uint16
	FiltMeanValue uint16
}

// DecodeAudioStats decodes PS_AUDIO_STATS data. Only the channels reported
// active that fit in b are returned.
func DecodeAudioStats(b []byte) (st AudioStats) {
	_ = b[SizeAudioStatsHeader-1]
	st.SmplProcessed = hostOrder.Uint32(b)
	st.SmplConcealed = hostOrder.Uint32(b[4:])
	st.SmplMuted = hostOrder.Uint32(b[8:])
	st.MuteEventCount = hostOrder.Uint16(b[12:])
	n := min(int(b[14]), MaxAudioChannels, (len(b)-SizeAudioStatsHeader)/SizeAudioChannel)
	if n > 0 {
		st.Channels = make([]AudioChannelStats, n)
	}
	for i := range st.Channels {
		off := SizeAudioStatsHeader + i*SizeAudioChannel
		st.Channels[i].PeakValue = hostOrder.Uint16(b[off:])
		st.Channels[i].FiltMeanValue = hostOrder.Uint16(b[off+2:])
	}
	return st
}

// PMData is returned by PM_GET_DATA. Durations in units of 10ms.
type PMData struct {
	InSilence      uint32
	OutSilence     uint32
	NwkInactivity  uint32
	VBatMillivolts uint16 // 0 when measurement is disabled.
}

func DecodePMData(b []byte) (pm PMData) {
	_ = b[SizePMData-1]
	pm.InSilence = hostOrder.Uint32(b)
	pm.OutSilence = hostOrder.Uint32(b[4:])
	pm.NwkInactivity = hostOrder.Uint32(b[8:])
	pm.VBatMillivolts = hostOrder.Uint16(b[12:])
	return pm
}

// CalData is returned by CAL_GET_DATA.
type CalData struct {
	CalInvalid bool // Cleared once override values have been written.
	TxPower    int8
}

func DecodeCalData(b []byte) CalData {
	v := hostOrder.Uint32(b)
	return CalData{CalInvalid: v&1 != 0, TxPower: int8(v >> 24)}
}

// DecodePinVal decodes IO_GET_PIN_VAL data. Bit 0 is GIO1.
func DecodePinVal(b []byte) uint16 {
	return uint16(hostOrder.Uint32(b) & 0x7fff)
}

// DecodeU32 decodes a single 32 bit field such as NVS_GET_DATA or IOTST_INPUT data.
func DecodeU32(b []byte) uint32 { return hostOrder.Uint32(b) }

// RxPER is returned by RFT_RXPER.
type RxPER struct {
	CycleCount     uint32
	RFChannelCount uint32
	AllOkTotal     uint32
	SyncErrTotal   uint32
	HdrErrTotal    uint32
	SliceErrTotal  uint32
	Channels       []RxPERChannel
}

// RxPERChannel holds the packet error results of one RF channel.
type RxPERChannel struct {
	AllOkCount    uint16
	SyncErrCount  uint16
	HdrErrCount   uint16
	RSSIMean      int8
	SliceErrCount uint32 // 24 bits.
	RSSIStdDev    uint8
}

// DecodeRxPER decodes RFT_RXPER data with every channel record that fits in b.
func DecodeRxPER(b []byte) (per RxPER) {
	_ = b[SizeRxPERHeader-1]
	per.CycleCount = hostOrder.Uint32(b)
	per.RFChannelCount = hostOrder.Uint32(b[4:])
	per.AllOkTotal = hostOrder.Uint32(b[8:])
	per.SyncErrTotal = hostOrder.Uint32(b[12:])
	per.HdrErrTotal = hostOrder.Uint32(b[16:])
	per.SliceErrTotal = hostOrder.Uint32(b[20:])
	n := min(MaxRxPERChannels, (len(b)-SizeRxPERHeader)/SizeRxPERChannel)
	if n > 0 {
		per.Channels = make([]RxPERChannel, n)
	}
	for i := range per.Channels {
		rec := b[SizeRxPERHeader+i*SizeRxPERChannel:]
		ch := &per.Channels[i]
		ch.AllOkCount = hostOrder.Uint16(rec)
		ch.SyncErrCount = hostOrder.Uint16(rec[2:])
		ch.HdrErrCount = hostOrder.Uint16(rec[4:])
		v := hostOrder.Uint32(rec[6:])
		ch.RSSIMean = int8(v)
		ch.SliceErrCount = v >> 8
		ch.RSSIStdDev = rec[10]
	}
	return per
}

// DetTone is returned by AT_DET_TONE.
type DetTone struct {
	Amplitude uint16
	Freq      uint16
}

func DecodeDetTone(b []byte) DetTone {
	_ = b[SizeDetTone-1]
	return DetTone{Amplitude: hostOrder.Uint16(b), Freq: hostOrder.Uint16(b[2:])}
}

// ScanResult is one protocol master found by NWM_DO_SCAN.
type ScanResult struct {
	DeviceID   uint32
	MfctID     uint32 // 0 when the master failed filtering.
	ProdID     uint32
	AllowsJoin bool
	PairSignal bool
	MfctFilt   bool
	DSCEnabled bool
	PowerState uint8
	AchSupport uint16
	AchInfo    [8]uint8 // 4 bits per logical channel.
	RSSI       int8
	SampleRate uint16 // In 25Hz increments.
	Latency    uint16 // In samples.
}

// DecodeScanResults decodes every complete scan result record in b.
func DecodeScanResults(b []byte) []ScanResult {
	n := len(b) / SizeScanResult
	if n == 0 {
		return nil
	}
	res := make([]ScanResult, n)
	for i := range res {
		rec := b[i*SizeScanResult : (i+1)*SizeScanResult]
		r := &res[i]
		r.DeviceID = hostOrder.Uint32(rec)
		r.MfctID = hostOrder.Uint32(rec[4:])
		r.ProdID = hostOrder.Uint32(rec[8:])
		flags := rec[12]
		r.AllowsJoin = flags&(1<<1) != 0
		r.PairSignal = flags&(1<<2) != 0
		r.MfctFilt = flags&(1<<3) != 0
		r.DSCEnabled = flags&(1<<4) != 0
		r.PowerState = flags >> 5
		r.AchSupport = hostOrder.Uint16(rec[13:])
		copy(r.AchInfo[:], rec[15:23])
		r.RSSI = int8(rec[23])
		r.SampleRate = hostOrder.Uint16(rec[24:]) & 0xfff
		r.Latency = hostOrder.Uint16(rec[26:]) & 0xfff
	}
	return res
}

// MasterStatus is returned by NWM_GET_STATUS on protocol masters.
type MasterStatus struct {
	NwkState       uint8
	SampleRate     uint16 // In 25Hz increments.
	TsPeriod       uint8  // Timeslot period is 2+TsPeriod/4 ms.
	AchUsedOverall uint16
	Slaves         []WPSInfo
}

// WPSInfo describes a protocol slave connected to a master.
type WPSInfo struct {
	DeviceID    uint32
	MfctID      uint32
	ProdID      uint32
	AchUsed     uint16
	TsMissCount uint8
	DSCEnabled  bool
	SPSlot      uint8
}

// DecodeMasterStatus decodes NWM_GET_STATUS master data. The slave count is
// limited by what fits in b.
func DecodeMasterStatus(b []byte) (ms MasterStatus) {
	_ = b[SizeMasterHeader-1]
	ms.NwkState = b[0] & 0xf
	wps := int(b[0] >> 4)
	v := hostOrder.Uint16(b[1:])
	ms.SampleRate = v & 0xfff
	ms.TsPeriod = uint8(v >> 12)
	ms.AchUsedOverall = hostOrder.Uint16(b[3:])
	n := min(wps, MaxWPS, (len(b)-SizeMasterHeader)/SizeWPSInfo)
	if n > 0 {
		ms.Slaves = make([]WPSInfo, n)
	}
	for i := range ms.Slaves {
		rec := b[SizeMasterHeader+i*SizeWPSInfo:]
		s := &ms.Slaves[i]
		s.DeviceID = hostOrder.Uint32(rec)
		s.MfctID = hostOrder.Uint32(rec[4:])
		s.ProdID = hostOrder.Uint32(rec[8:])
		s.AchUsed = hostOrder.Uint16(rec[12:])
		s.TsMissCount = rec[14]
		s.DSCEnabled = rec[15]&1 != 0
		s.SPSlot = rec[15] >> 1 & 7
	}
	return ms
}

// SlaveStatus is returned by NWM_GET_STATUS on protocol slaves.
type SlaveStatus struct {
	NwkID             uint32 // 0 when not connected.
	WPMMfctID         uint32
	WPMProdID         uint32
	SmplStmpValid     bool
	WPMAllowsJoin     bool
	WPMSignalsPairing bool
	MfctFilt          bool
	WPMDSCEnabled     bool
	WPMPowerState     uint8
	AchSupported      uint16
	AchInfo           [8]uint8
	MeanRSSI          int8
	SampleRate        uint16
	TsPeriod          uint8
	AudioLatency      uint16
	NwkState          uint8
	AchUsedByMe       uint16
}

func DecodeSlaveStatus(b []byte) (ss SlaveStatus) {
	_ = b[SizeSlaveStatus-1]
	ss.NwkID = hostOrder.Uint32(b)
	ss.WPMMfctID = hostOrder.Uint32(b[4:])
	ss.WPMProdID = hostOrder.Uint32(b[8:])
	flags := b[12]
	ss.SmplStmpValid = flags&1 != 0
	ss.WPMAllowsJoin = flags&(1<<1) != 0
	ss.WPMSignalsPairing = flags&(1<<2) != 0
	ss.MfctFilt = flags&(1<<3) != 0
	ss.WPMDSCEnabled = flags&(1<<4) != 0
	ss.WPMPowerState = flags >> 5
	ss.AchSupported = hostOrder.Uint16(b[13:])
	copy(ss.AchInfo[:], b[15:23])
	ss.MeanRSSI = int8(b[23])
	v := hostOrder.Uint16(b[24:])
	ss.SampleRate = v & 0xfff
	ss.TsPeriod = uint8(v >> 12)
	v = hostOrder.Uint16(b[26:])
	ss.AudioLatency = v & 0xfff
	ss.NwkState = uint8(v >> 12)
	ss.AchUsedByMe = hostOrder.Uint16(b[28:])
	return ss
}

// Datagram is a data side channel datagram received with DSC_RX_DATAGRAM.
type Datagram struct {
	ConnReset bool
	Addr      uint32 // Source device ID.
	Payload   []byte
}

// DecodeDatagram decodes DSC_RX_DATAGRAM data. Payload aliases b.
func DecodeDatagram(b []byte) (dg Datagram, ok bool) {
	if len(b) < SizeDatagramHeader {
		return dg, false
	}
	dg.ConnReset = b[0]&1 != 0
	dg.Addr = hostOrder.Uint32(b[1:])
	dg.Payload = b[SizeDatagramHeader:]
	return dg, true
}
