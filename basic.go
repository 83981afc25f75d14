package cc85xx

import (
	"log/slog"
	"time"

	"github.com/soypat/cc85xx/ehif"
)

// rawSpec streams bytes unmodified.
var rawSpec = ehif.Spec{ehif.F8(32), ehif.Jump(-1)}

// GetStatus returns the status word. It does not wait for CMD_REQ_RDY.
func (d *Device) GetStatus() (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.getStatus()
}

// Write performs a WRITE transaction sending data unmodified.
func (d *Device) Write(data []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.write(rawSpec, data)
}

// Read performs a READ transaction of len(data) bytes.
func (d *Device) Read(data []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.read(rawSpec, data)
}

// ReadBC performs a READBC transaction. The device reported length is clamped
// to len(data) and returned as n.
func (d *Device) ReadBC(data []byte) (st ehif.Status, n int, err error) {
	d.acquire()
	defer d.release()
	return d.readBC(rawSpec, data)
}

// CmdReq performs a CMD_REQ transaction sending params unmodified.
func (d *Device) CmdReq(cmd ehif.Cmd, params []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.cmdReq(cmd, rawSpec, params)
}

// SetAddr performs a SET_ADDR transaction. Only the bootloader accepts it.
func (d *Device) SetAddr(addr uint16) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	return d.setAddr(addr)
}

// WaitReadyMs selects the chip and waits up to ms milliseconds for
// CMD_REQ_RDY. It returns false on timeout and latches the wait error.
func (d *Device) WaitReadyMs(ms uint16) bool {
	d.acquire()
	defer d.release()
	return d.waitReadyMs(ms)
}

func (d *Device) getStatus() (ehif.Status, error) {
	d.bus.CSn(false)
	st, err := d.header(ehif.StatusHeader())
	d.bus.CSn(true)
	d.trace("ehif:status", statusAttr(st))
	return st, err
}

func (d *Device) write(spec ehif.Spec, data []byte) (ehif.Status, error) {
	if len(data) > ehif.MaxDataLen {
		return 0, ErrDataTooLong
	}
	d.bus.CSn(false)
	d.waitReady()
	st, err := d.header(ehif.WriteHeader(uint16(len(data))))
	if err == nil {
		err = ehif.Send(d.bus, spec, data)
	}
	d.bus.CSn(true)
	d.trace("ehif:write", slog.Int("len", len(data)), statusAttr(st))
	return st, err
}

func (d *Device) read(spec ehif.Spec, data []byte) (ehif.Status, error) {
	if len(data) > ehif.MaxDataLen {
		return 0, ErrDataTooLong
	}
	d.bus.CSn(false)
	d.waitReady()
	st, err := d.header(ehif.ReadHeader(uint16(len(data))))
	if err == nil {
		err = ehif.Recv(d.bus, spec, data)
	}
	d.bus.CSn(true)
	d.trace("ehif:read", slog.Int("len", len(data)), statusAttr(st))
	return st, err
}

func (d *Device) readBC(spec ehif.Spec, data []byte) (st ehif.Status, n int, err error) {
	d.bus.CSn(false)
	d.waitReady()
	hdr := ehif.ReadBCHeader()
	st, err = d.header(hdr)
	if err != nil {
		d.bus.CSn(true)
		return st, 0, err
	}
	hi, err := d.bus.Transfer(hdr[0])
	if err != nil {
		d.bus.CSn(true)
		return st, 0, err
	}
	lo, err := d.bus.Transfer(hdr[1])
	if err != nil {
		d.bus.CSn(true)
		return st, 0, err
	}
	devlen := int(hi)<<8 | int(lo)
	n = min(devlen, len(data))
	err = ehif.Recv(d.bus, spec, data[:n])
	d.bus.CSn(true)
	d.trace("ehif:readbc", slog.Int("devlen", devlen), slog.Int("len", n), statusAttr(st))
	return st, n, err
}

func (d *Device) cmdReq(cmd ehif.Cmd, spec ehif.Spec, params []byte) (ehif.Status, error) {
	if len(params) > ehif.MaxParamLen {
		return 0, ErrParamTooLong
	}
	d.bus.CSn(false)
	d.waitReady()
	st, err := d.header(ehif.CmdReqHeader(cmd, uint8(len(params))))
	if err == nil {
		err = ehif.Send(d.bus, spec, params)
	}
	d.bus.CSn(true)
	d.trace("ehif:cmdreq", slog.String("cmd", cmd.String()), slog.Int("len", len(params)), statusAttr(st))
	return st, err
}

func (d *Device) setAddr(addr uint16) (ehif.Status, error) {
	d.bus.CSn(false)
	d.waitReady()
	st, err := d.header(ehif.SetAddrHeader(addr))
	d.bus.CSn(true)
	d.trace("ehif:setaddr", slog.Uint64("addr", uint64(addr)), statusAttr(st))
	return st, err
}

// header sends a transaction header and returns the status word clocked in meanwhile.
func (d *Device) header(h [2]byte) (ehif.Status, error) {
	hi, err := d.bus.Transfer(h[0])
	if err != nil {
		return 0, err
	}
	lo, err := d.bus.Transfer(h[1])
	if err != nil {
		return 0, err
	}
	st := ehif.Status(uint16(hi)<<8 | uint16(lo))
	d.lastStatus = st
	return st, nil
}

// waitReady polls MISO with CSn already low. A timeout latches the wait error
// and the transaction proceeds regardless.
func (d *Device) waitReady() bool {
	return d.pollReady(d.readyPolls, d.readyPeriod)
}

func (d *Device) waitReadyMs(ms uint16) bool {
	d.bus.CSn(false)
	ok := d.pollReady(int(ms)*100, d.readyMsPeriod)
	d.bus.CSn(true)
	return ok
}

func (d *Device) pollReady(polls int, period time.Duration) bool {
	for n := polls; ; {
		if d.bus.MISO() {
			return true
		}
		n--
		if n <= 0 {
			break
		}
		d.sleep(period)
	}
	d.waitErr.Store(true)
	d.debug("ehif:ready timeout", slog.Int("polls", polls), slog.Duration("period", period))
	return false
}
