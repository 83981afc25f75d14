package ehif

import "encoding/binary"

// hostOrder is the byte order of multi-byte fields in host layout buffers.
// The codec converts between it and the big-endian wire order.
var hostOrder = binary.NativeEndian

// Host layout sizes of command parameters.
const (
	SizeDSCTxParams     = 5
	SizeScanParams      = 16
	SizeJoinParams      = 18
	SizeAchUsageParams  = 16
	SizeControlParams   = 2
	SizeRFChMaskParams  = 4
	SizeRxPERParams     = 11
	SizeTxPERParams     = 8
	SizeTxTestParams    = 3
	SizeGetVolumeParams = 1
	SizeSetVolumeParams = 4
	SizeEvtClrParams    = 1
	SizeEvtMaskParams   = 2
	SizePMStateParams   = 1
	SizeChipInfoParams  = 2
	SizeGenToneParams   = 5
	SizeDetToneParams   = 1
	SizeIOTestInParams  = 4
	SizeIOTestOutParams = 8
	SizeRxContParams    = 2
	SizeRSSIParams      = 1
	SizeNwkSimParams    = 14
	SizeCalSetParams    = 5
	SizeNVSGetParams    = 1
	SizeNVSSetParams    = 5
	SizeRCData          = 13
	SizeRCGetParams     = 1
)

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// DSCTxParams are the parameters of DSC_TX_DATAGRAM.
type DSCTxParams struct {
	ConnReset bool   // Reset the data side channel connection.
	Addr      uint32 // Destination device ID.
}

func (p *DSCTxParams) Put(b []byte) {
	_ = b[SizeDSCTxParams-1]
	b[0] = b2u8(p.ConnReset)
	hostOrder.PutUint32(b[1:], p.Addr)
}

// ScanParams are the parameters of NWM_DO_SCAN.
type ScanParams struct {
	Timeout    uint16 // Scan timeout in units of 10ms, 12 bits.
	MaxResults uint8  // Maximum unique results, 4 bits.
	MfctID     uint32
	ProdIDMask uint32
	ProdIDRef  uint32
	// ReqPairingSignal only matches masters signalling pairing.
	ReqPairingSignal bool
	ReqRSSI          int8 // Minimum RSSI in dBm, -128 disables.
}

func (p *ScanParams) Put(b []byte) {
	_ = b[SizeScanParams-1]
	hostOrder.PutUint16(b, p.Timeout&0xfff|uint16(p.MaxResults&0xf)<<12)
	hostOrder.PutUint32(b[2:], p.MfctID)
	hostOrder.PutUint32(b[6:], p.ProdIDMask)
	hostOrder.PutUint32(b[10:], p.ProdIDRef)
	b[14] = b2u8(p.ReqPairingSignal)
	b[15] = byte(p.ReqRSSI)
}

// JoinParams are the parameters of NWM_DO_JOIN.
type JoinParams struct {
	Timeout uint16 // Join timeout in units of 10ms, 15 bits.
	// DeviceID filter. 0 leaves the network, 0xFFFFFFFF joins any pairing master.
	DeviceID   uint32
	MfctID     uint32
	ProdIDMask uint32
	ProdIDRef  uint32
}

func (p *JoinParams) Put(b []byte) {
	_ = b[SizeJoinParams-1]
	hostOrder.PutUint16(b, p.Timeout&0x7fff)
	hostOrder.PutUint32(b[2:], p.DeviceID)
	hostOrder.PutUint32(b[6:], p.MfctID)
	hostOrder.PutUint32(b[10:], p.ProdIDMask)
	hostOrder.PutUint32(b[14:], p.ProdIDRef)
}

// AchUsageParams hold one audio interface DMA index per logical channel. 0xFF marks an unused channel.
type AchUsageParams [16]uint8

func (p *AchUsageParams) Put(b []byte) {
	_ = b[SizeAchUsageParams-1]
	copy(b, p[:])
}

// PutControl writes the NWM_CONTROL_ENABLE and NWM_CONTROL_SIGNAL parameters.
func PutControl(b []byte, enable bool) {
	_ = b[SizeControlParams-1]
	b[0] = 0
	b[1] = b2u8(enable)
}

// PutRFChMask writes the NWM_SET_RF_CH_MASK parameters. Only the low 20 bits are used.
func PutRFChMask(b []byte, mask uint32) {
	hostOrder.PutUint32(b, mask&0xfffff)
}

// RxPERParams are the parameters of RFT_RXPER.
type RxPERParams struct {
	CycleCount uint16
	NwkID      uint32
	Timeout    uint32 // Synchronisation timeout in units of 10ms.
	RFChannel  uint8  // 0 uses the configured mask, 1-18 a single channel.
}

func (p *RxPERParams) Put(b []byte) {
	_ = b[SizeRxPERParams-1]
	hostOrder.PutUint16(b, p.CycleCount)
	hostOrder.PutUint32(b[2:], p.NwkID)
	hostOrder.PutUint32(b[6:], p.Timeout)
	b[10] = p.RFChannel
}

// TxPERParams are the parameters of RFT_TXPER.
type TxPERParams struct {
	CycleCount uint16
	NwkID      uint32
	TxPower    int8 // dBm.
	RFChannel  uint8
}

func (p *TxPERParams) Put(b []byte) {
	_ = b[SizeTxPERParams-1]
	hostOrder.PutUint16(b, p.CycleCount)
	hostOrder.PutUint32(b[2:], p.NwkID)
	b[6] = byte(p.TxPower)
	b[7] = p.RFChannel
}

// TxTestParams are the parameters of RFT_TXTST_PN and RFT_TXTST_CW.
type TxTestParams struct {
	Enable  bool
	RFFreq  uint8
	TxPower int8
}

func (p *TxTestParams) Put(b []byte) {
	_ = b[SizeTxTestParams-1]
	b[0] = b2u8(p.Enable)
	b[1] = p.RFFreq
	b[2] = byte(p.TxPower)
}

// GetVolumeParams are the parameters of VC_GET_VOLUME.
type GetVolumeParams struct {
	// IsLocalOrChannelOffset selects local volume on masters and the channel offset on slaves.
	IsLocalOrChannelOffset bool
	IsInVol                bool // Input volume instead of output volume.
	LogChannel             uint8
}

func (p *GetVolumeParams) Put(b []byte) {
	_ = b[SizeGetVolumeParams-1]
	b[0] = b2u8(p.IsLocalOrChannelOffset) | b2u8(p.IsInVol)<<1 | (p.LogChannel&0xf)<<2
}

// VolumeSetOp selects how VC_SET_VOLUME applies its value.
type VolumeSetOp uint8

const (
	VolumeSetNone VolumeSetOp = iota
	VolumeSetAbsolute
	VolumeSetRelative
	VolumeSetChannelOffset
)

// VolumeMuteOp selects the mute action of VC_SET_VOLUME.
type VolumeMuteOp uint8

const (
	VolumeMuteNone VolumeMuteOp = iota
	VolumeMute
	VolumeUnmute
	VolumeMuteToggle
)

// SetVolumeParams are the parameters of VC_SET_VOLUME.
type SetVolumeParams struct {
	Value      int16 // 11 bit signed value, absolute or relative.
	LogChannel uint8
	SetOp      VolumeSetOp
	MuteOp     VolumeMuteOp
	IsLocal    bool
	IsInVol    bool
	Source     uint8 // 0 is EHIF.
}

// Word returns the packed 32 bit parameter word.
func (p *SetVolumeParams) Word() uint32 {
	return uint32(p.Value)&0x7ff |
		uint32(p.LogChannel&0xf)<<16 |
		uint32(p.SetOp&3)<<20 |
		uint32(p.MuteOp&3)<<22 |
		uint32(b2u8(p.IsLocal))<<24 |
		uint32(b2u8(p.IsInVol))<<25 |
		uint32(p.Source&3)<<26
}

func (p *SetVolumeParams) Put(b []byte) {
	hostOrder.PutUint32(b, p.Word())
}

// EvtMaskParams are the parameters of EHC_EVT_MASK.
type EvtMaskParams struct {
	IRQActiveHigh bool   // Active level of the interrupt pin.
	Filter        Status // Event flags raising the interrupt.
}

func (p *EvtMaskParams) Put(b []byte) {
	_ = b[SizeEvtMaskParams-1]
	b[0] = b2u8(p.IRQActiveHigh)
	b[1] = byte(p.Filter & EvtAll)
}

// GenToneParams are the parameters of AT_GEN_TONE.
type GenToneParams struct {
	LogChannel uint8
	Amplitude  uint8
	Freq       uint16
}

func (p *GenToneParams) Put(b []byte) {
	_ = b[SizeGenToneParams-1]
	b[0] = p.LogChannel
	b[1] = 0
	b[2] = p.Amplitude
	hostOrder.PutUint16(b[3:], p.Freq)
}

// IOTestOutputParams are the parameters of IOTST_OUTPUT.
type IOTestOutputParams struct {
	PinMask uint32 // Pins to drive, the rest revert to their original state.
	PinVal  uint32
}

func (p *IOTestOutputParams) Put(b []byte) {
	_ = b[SizeIOTestOutParams-1]
	hostOrder.PutUint32(b, p.PinMask)
	hostOrder.PutUint32(b[4:], p.PinVal)
}

// PutRxTestCont writes the RFT_RXTST_CONT parameters.
func PutRxTestCont(b []byte, enable bool, rfFreq uint8) {
	_ = b[SizeRxContParams-1]
	b[0] = b2u8(enable)
	b[1] = rfFreq
}

// NwkSimParams are the parameters of RFT_NWKSIM. Durations in microseconds.
type NwkSimParams struct {
	TsPeriod       uint16
	TxMinDuration  uint16
	TxMaxDuration  uint16
	RxDuration     uint16
	SPSlotCount    uint8
	TxPower        int8
	ActiveChannels [4]uint8
}

func (p *NwkSimParams) Put(b []byte) {
	_ = b[SizeNwkSimParams-1]
	hostOrder.PutUint16(b, p.TsPeriod)
	hostOrder.PutUint16(b[2:], p.TxMinDuration)
	hostOrder.PutUint16(b[4:], p.TxMaxDuration)
	hostOrder.PutUint16(b[6:], p.RxDuration)
	b[8] = p.SPSlotCount
	b[9] = byte(p.TxPower)
	copy(b[10:14], p.ActiveChannels[:])
}

// CalSetParams are the parameters of CAL_SET_DATA.
type CalSetParams struct {
	WriteKey uint8
	TxPower  int8 // dBm.
}

func (p *CalSetParams) Put(b []byte) {
	_ = b[SizeCalSetParams-1]
	b[0] = p.WriteKey
	hostOrder.PutUint32(b[1:], uint32(uint8(p.TxPower)))
}

// PutNVSSet writes the NVS_SET_DATA parameters for slot index.
func PutNVSSet(b []byte, index uint8, data uint32) {
	_ = b[SizeNVSSetParams-1]
	b[0] = index & 1
	hostOrder.PutUint32(b[1:], data)
}

// PutU8 writes a single byte parameter.
func PutU8(b []byte, v uint8) { b[0] = v }

// PutU16 writes a 16 bit field in host layout.
func PutU16(b []byte, v uint16) { hostOrder.PutUint16(b, v) }

// PutU32 writes a 32 bit field in host layout.
func PutU32(b []byte, v uint32) { hostOrder.PutUint32(b, v) }
