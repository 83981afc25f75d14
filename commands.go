package cc85xx

import (
	"log/slog"

	"github.com/soypat/cc85xx/ehif"
)

// Power states accepted by SetPowerState.
const (
	PowerStateOff            uint8 = 0
	PowerStateNetworkStandby uint8 = 2
	PowerStateLocalStandby   uint8 = 3
	PowerStateLowPower       uint8 = 4
	PowerStateActive         uint8 = 5
)

const scratchLen = 512

func (d *Device) exec(cmd ehif.Cmd, params []byte) error {
	_, err := d.cmdExec(cmd, params)
	return err
}

func (d *Device) execRead(cmd ehif.Cmd, params []byte, n int) ([]byte, error) {
	data := d.dbuf[:n]
	_, err := d.cmdExecWithRead(ehif.ExecAll, cmd, params, data)
	return data, err
}

// Device information.

// DeviceInfo returns the device, manufacturer and product IDs.
func (d *Device) DeviceInfo() (ehif.DeviceInfo, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdDIGetDeviceInfo, nil, ehif.SizeDeviceInfo)
	if err != nil {
		return ehif.DeviceInfo{}, err
	}
	return ehif.DecodeDeviceInfo(b), nil
}

// ChipInfo returns chip family, revisions and capabilities.
func (d *Device) ChipInfo() (ehif.ChipInfo, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeChipInfoParams]
	ehif.PutU16(p, 0)
	b, err := d.execRead(ehif.CmdDIGetChipInfo, p, ehif.SizeChipInfo)
	if err != nil {
		return ehif.ChipInfo{}, err
	}
	return ehif.DecodeChipInfo(b), nil
}

// Host controller events.

// ClearEvents clears the status word event flags set in events.
func (d *Device) ClearEvents(events ehif.Status) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeEvtClrParams]
	ehif.PutU8(p, uint8(events&ehif.EvtAll))
	return d.exec(ehif.CmdEHCEvtClr, p)
}

// SetEventMask selects the events that assert the interrupt pin.
func (d *Device) SetEventMask(mask ehif.EvtMaskParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeEvtMaskParams]
	mask.Put(p)
	return d.exec(ehif.CmdEHCEvtMask, p)
}

// Network management.

// StartScan starts a scan for protocol masters. Collect results with
// ScanResults once the chip is ready, after up to Timeout*10ms.
func (d *Device) StartScan(params ehif.ScanParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeScanParams]
	params.Put(p)
	_, _, err := d.cmdExecWithReadBC(ehif.ExecCmd, ehif.CmdNWMDoScan, p, nil)
	return err
}

// ScanResults returns the results of the scan started by StartScan.
func (d *Device) ScanResults() ([]ehif.ScanResult, error) {
	d.acquire()
	defer d.release()
	_, n, err := d.cmdExecWithReadBC(ehif.ExecData, ehif.CmdNWMDoScan, nil, d.dbuf[:scratchLen])
	if err != nil {
		return nil, err
	}
	res := ehif.DecodeScanResults(d.dbuf[:n])
	d.debug("ehif:scan", slog.Int("len", n), slog.Int("results", len(res)))
	return res, nil
}

// Join joins the network of a protocol master.
func (d *Device) Join(params ehif.JoinParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeJoinParams]
	params.Put(p)
	return d.exec(ehif.CmdNWMDoJoin, p)
}

// MasterStatus returns the network status of a protocol master.
func (d *Device) MasterStatus() (ehif.MasterStatus, error) {
	d.acquire()
	defer d.release()
	_, n, err := d.cmdExecWithReadBC(ehif.ExecAll, ehif.CmdNWMGetStatusM, nil, d.dbuf[:ehif.SizeMasterStatus])
	if err != nil {
		return ehif.MasterStatus{}, err
	}
	if n < ehif.SizeMasterHeader {
		return ehif.MasterStatus{}, ErrShortBuffer
	}
	return ehif.DecodeMasterStatus(d.dbuf[:n]), nil
}

// SlaveStatus returns the network status of a protocol slave.
func (d *Device) SlaveStatus() (ehif.SlaveStatus, error) {
	d.acquire()
	defer d.release()
	_, n, err := d.cmdExecWithReadBC(ehif.ExecAll, ehif.CmdNWMGetStatusS, nil, d.dbuf[:ehif.SizeSlaveStatus])
	if err != nil {
		return ehif.SlaveStatus{}, err
	}
	if n < ehif.SizeSlaveStatus {
		return ehif.SlaveStatus{}, ErrShortBuffer
	}
	return ehif.DecodeSlaveStatus(d.dbuf[:n]), nil
}

// SetAchUsage maps logical audio channels to audio interface DMA indices.
func (d *Device) SetAchUsage(usage ehif.AchUsageParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeAchUsageParams]
	usage.Put(p)
	return d.exec(ehif.CmdNWMAchSetUsage, p)
}

// EnableNetwork enables or disables network maintenance.
func (d *Device) EnableNetwork(enable bool) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeControlParams]
	ehif.PutControl(p, enable)
	return d.exec(ehif.CmdNWMControlEnable, p)
}

// SignalPairing enables or disables the pairing signal of a protocol master.
func (d *Device) SignalPairing(enable bool) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeControlParams]
	ehif.PutControl(p, enable)
	return d.exec(ehif.CmdNWMControlSignal, p)
}

// SetRFChannelMask restricts the RF channels used. Bit n enables channel n+1.
func (d *Device) SetRFChannelMask(mask uint32) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRFChMaskParams]
	ehif.PutRFChMask(p, mask)
	return d.exec(ehif.CmdNWMSetRFChMask, p)
}

// Remote control.

func (d *Device) SetRCData(rc ehif.RCData) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRCData]
	rc.Put(p)
	return d.exec(ehif.CmdRCSetData, p)
}

// RCData returns the remote control state sent by the slave in slot spSlot.
func (d *Device) RCData(spSlot uint8) (ehif.RCData, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRCGetParams]
	ehif.PutU8(p, spSlot)
	b, err := d.execRead(ehif.CmdRCGetData, p, ehif.SizeRCData)
	if err != nil {
		return ehif.RCData{}, err
	}
	return ehif.DecodeRCData(b), nil
}

// Data side channel.

// SendDatagram sends payload over the data side channel to device addr.
func (d *Device) SendDatagram(connReset bool, addr uint32, payload []byte) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeDSCTxParams]
	params := ehif.DSCTxParams{ConnReset: connReset, Addr: addr}
	params.Put(p)
	_, err := d.cmdExecWithWrite(ehif.ExecAll, ehif.CmdDSCTxDatagram, p, payload)
	return err
}

// ReceiveDatagram reads the next datagram into buf. The returned payload
// aliases buf and is empty when no datagram is available.
func (d *Device) ReceiveDatagram(buf []byte) (ehif.Datagram, error) {
	if len(buf) < ehif.SizeDatagramHeader {
		return ehif.Datagram{}, ErrShortBuffer
	}
	d.acquire()
	defer d.release()
	_, n, err := d.cmdExecWithReadBC(ehif.ExecAll, ehif.CmdDSCRxDatagram, nil, buf)
	if err != nil || n == 0 {
		return ehif.Datagram{}, err
	}
	dg, ok := ehif.DecodeDatagram(buf[:n])
	if !ok {
		return dg, ErrShortBuffer
	}
	return dg, nil
}

// Power management.

func (d *Device) SetPowerState(state uint8) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizePMStateParams]
	ehif.PutU8(p, state)
	return d.exec(ehif.CmdPMSetState, p)
}

func (d *Device) PowerData() (ehif.PMData, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdPMGetData, nil, ehif.SizePMData)
	if err != nil {
		return ehif.PMData{}, err
	}
	return ehif.DecodePMData(b), nil
}

// Volume control.

func (d *Device) SetVolume(params ehif.SetVolumeParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeSetVolumeParams]
	params.Put(p)
	return d.exec(ehif.CmdVCSetVolume, p)
}

// Volume returns the volume selected by params in units of 1/16 dB.
func (d *Device) Volume(params ehif.GetVolumeParams) (int16, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeGetVolumeParams]
	params.Put(p)
	b, err := d.execRead(ehif.CmdVCGetVolume, p, ehif.SizeVolume)
	if err != nil {
		return 0, err
	}
	return ehif.DecodeVolume(b), nil
}

// Statistics.

func (d *Device) AudioStats() (ehif.AudioStats, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdPSAudioStats, nil, ehif.SizeAudioStats)
	if err != nil {
		return ehif.AudioStats{}, err
	}
	return ehif.DecodeAudioStats(b), nil
}

func (d *Device) RFStats() (ehif.RFStats, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdPSRFStats, nil, ehif.SizeRFStats)
	if err != nil {
		return ehif.RFStats{}, err
	}
	return ehif.DecodeRFStats(b), nil
}

// IO and non-volatile storage.

// PinValues returns the GIO pin levels. Bit 0 is GIO1.
func (d *Device) PinValues() (uint16, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdIOGetPinVal, nil, ehif.SizePinVal)
	if err != nil {
		return 0, err
	}
	return ehif.DecodePinVal(b), nil
}

// NVSData reads 32 bit non-volatile storage slot index (0 or 1).
func (d *Device) NVSData(index uint8) (uint32, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeNVSGetParams]
	ehif.PutU8(p, index&1)
	b, err := d.execRead(ehif.CmdNVSGetData, p, ehif.SizeNVSData)
	if err != nil {
		return 0, err
	}
	return ehif.DecodeU32(b), nil
}

func (d *Device) SetNVSData(index uint8, v uint32) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeNVSSetParams]
	ehif.PutNVSSet(p, index, v)
	return d.exec(ehif.CmdNVSSetData, p)
}

// Calibration.

func (d *Device) CalData() (ehif.CalData, error) {
	d.acquire()
	defer d.release()
	b, err := d.execRead(ehif.CmdCALGetData, nil, ehif.SizeCalData)
	if err != nil {
		return ehif.CalData{}, err
	}
	return ehif.DecodeCalData(b), nil
}

func (d *Device) SetCalData(params ehif.CalSetParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeCalSetParams]
	params.Put(p)
	return d.exec(ehif.CmdCALSetData, p)
}

// RF test.

func (d *Device) TxPER(params ehif.TxPERParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeTxPERParams]
	params.Put(p)
	return d.exec(ehif.CmdRFTTxPER, p)
}

// StartRxPER starts a packet error rate measurement. Collect the results with
// RxPERResults once the chip is ready.
func (d *Device) StartRxPER(params ehif.RxPERParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRxPERParams]
	params.Put(p)
	_, err := d.cmdExecWithRead(ehif.ExecCmd, ehif.CmdRFTRxPER, p, nil)
	return err
}

func (d *Device) RxPERResults() (ehif.RxPER, error) {
	d.acquire()
	defer d.release()
	data := d.dbuf[:ehif.SizeRxPER]
	_, err := d.cmdExecWithRead(ehif.ExecData, ehif.CmdRFTRxPER, nil, data)
	if err != nil {
		return ehif.RxPER{}, err
	}
	return ehif.DecodeRxPER(data), nil
}

func (d *Device) TxTestPN(params ehif.TxTestParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeTxTestParams]
	params.Put(p)
	return d.exec(ehif.CmdRFTTxTestPN, p)
}

func (d *Device) TxTestCW(params ehif.TxTestParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeTxTestParams]
	params.Put(p)
	return d.exec(ehif.CmdRFTTxTestCW, p)
}

func (d *Device) RxTestCont(enable bool, rfFreq uint8) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRxContParams]
	ehif.PutRxTestCont(p, enable, rfFreq)
	return d.exec(ehif.CmdRFTRxTestCont, p)
}

// RSSI returns the received signal strength in dBm at rfFreq.
func (d *Device) RSSI(rfFreq uint8) (int8, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeRSSIParams]
	ehif.PutU8(p, rfFreq)
	b, err := d.execRead(ehif.CmdRFTRxTestRSSI, p, ehif.SizeRSSI)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (d *Device) NwkSim(params ehif.NwkSimParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeNwkSimParams]
	params.Put(p)
	return d.exec(ehif.CmdRFTNwkSim, p)
}

// Audio test.

func (d *Device) GenTone(params ehif.GenToneParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeGenToneParams]
	params.Put(p)
	return d.exec(ehif.CmdATGenTone, p)
}

func (d *Device) DetectTone(logChannel uint8) (ehif.DetTone, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeDetToneParams]
	ehif.PutU8(p, logChannel)
	b, err := d.execRead(ehif.CmdATDetTone, p, ehif.SizeDetTone)
	if err != nil {
		return ehif.DetTone{}, err
	}
	return ehif.DecodeDetTone(b), nil
}

// IO test.

// IOTestInput returns the levels of the pins selected by mask.
func (d *Device) IOTestInput(mask uint32) (uint32, error) {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeIOTestInParams]
	ehif.PutU32(p, mask)
	b, err := d.execRead(ehif.CmdIOTestInput, p, ehif.SizeIOTestInput)
	if err != nil {
		return 0, err
	}
	return ehif.DecodeU32(b), nil
}

func (d *Device) IOTestOutput(params ehif.IOTestOutputParams) error {
	d.acquire()
	defer d.release()
	p := d.pbuf[:ehif.SizeIOTestOutParams]
	params.Put(p)
	return d.exec(ehif.CmdIOTestOutput, p)
}
