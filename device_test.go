package cc85xx

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/soypat/cc85xx/ehif"
)

var errBus = errors.New("bus fault")

// txn is a CS framed exchange as seen by the chip.
type txn struct {
	hdr ehif.Header
	raw []byte // Every byte sent by the host, header included.
}

// body returns the bytes sent after the two byte header.
func (tx txn) body() []byte {
	if len(tx.raw) < 2 {
		return nil
	}
	return tx.raw[2:]
}

// fakeChip is a scripted CC85xx. It answers the status word during the
// header, the byte count during the second READBC header and serves READ
// data from readData.
type fakeChip struct {
	clk       *sleepClock
	events    []string
	txns      []txn
	cur       *txn
	csLevel   bool
	status    ehif.Status
	readData  []byte
	bcLen     int
	misoReady bool
	polls     int
	transfers int
	failAt    int // Transfer number that fails, 0 never.
	onEnd     func(c *fakeChip, tx txn)
}

func newFakeChip() *fakeChip {
	c := &fakeChip{csLevel: true, misoReady: true, status: ehif.StatusCmdReqRdy}
	c.clk = &sleepClock{Mock: clock.NewMock(), chip: c}
	return c
}

func (c *fakeChip) Transfer(w byte) (byte, error) {
	c.transfers++
	if c.transfers == c.failAt {
		return 0, errBus
	}
	c.events = append(c.events, "x"+strconv.FormatUint(uint64(w), 16))
	if c.cur == nil {
		return 0xff, nil
	}
	tx := c.cur
	idx := len(tx.raw)
	tx.raw = append(tx.raw, w)
	switch {
	case idx == 0:
		return byte(c.status >> 8), nil
	case idx == 1:
		tx.hdr = ehif.DecodeHeader(tx.raw[0], w)
		return byte(c.status), nil
	case tx.hdr.Kind == ehif.KindReadBC && idx == 2:
		return byte(c.bcLen >> 8), nil
	case tx.hdr.Kind == ehif.KindReadBC && idx == 3:
		return byte(c.bcLen), nil
	case tx.hdr.Kind == ehif.KindRead || tx.hdr.Kind == ehif.KindReadBC:
		if len(c.readData) == 0 {
			return 0, nil
		}
		b := c.readData[0]
		c.readData = c.readData[1:]
		return b, nil
	}
	return 0, nil
}

func (c *fakeChip) CSn(level bool) {
	c.events = append(c.events, "cs"+b2s(level))
	if level == c.csLevel {
		return
	}
	c.csLevel = level
	if !level {
		c.cur = &txn{}
		return
	}
	tx := *c.cur
	c.cur = nil
	if len(tx.raw) == 0 {
		return
	}
	c.txns = append(c.txns, tx)
	if c.onEnd != nil {
		c.onEnd(c, tx)
	}
}

func (c *fakeChip) ResetN(level bool)    { c.events = append(c.events, "rst"+b2s(level)) }
func (c *fakeChip) ForceMOSI(level bool) { c.events = append(c.events, "mosi"+b2s(level)) }
func (c *fakeChip) ReleaseMOSI()         { c.events = append(c.events, "mosi-release") }

func (c *fakeChip) MISO() bool {
	c.polls++
	return c.misoReady
}

func (c *fakeChip) countSleeps(d time.Duration) (n int) {
	for _, s := range c.clk.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

func b2s(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// sleepClock records sleeps without blocking.
type sleepClock struct {
	*clock.Mock
	chip   *fakeChip
	sleeps []time.Duration
}

func (c *sleepClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.chip.events = append(c.chip.events, "sleep "+d.String())
}

func newTestDevice(t *testing.T) (*Device, *fakeChip) {
	t.Helper()
	chip := newFakeChip()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelTrace}))
	dev := New(chip, Config{Clock: chip.clk, Logger: logger})
	return dev, chip
}

func TestGetStatusDoesNotWait(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.status = ehif.StatusCmdReqRdy | ehif.EvtVolumeChanged
	chip.misoReady = false
	st, err := dev.GetStatus()
	if err != nil {
		t.Fatal(err)
	}
	if st != chip.status {
		t.Errorf("status %v, want %v", st, chip.status)
	}
	if chip.polls != 0 {
		t.Errorf("GetStatus polled MISO %d times", chip.polls)
	}
	if diff := cmp.Diff([]byte{0x80, 0x00}, chip.txns[0].raw); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if dev.LastStatus() != st {
		t.Error("last status not recorded")
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.misoReady = false
	_, err := dev.Write([]byte{0xAA})
	if err != nil {
		t.Fatal(err)
	}
	if chip.polls != 5000 {
		t.Errorf("polls=%d, want 5000", chip.polls)
	}
	if n := chip.countSleeps(2 * time.Microsecond); n != 4999 {
		t.Errorf("sleeps=%d, want 4999", n)
	}
	if len(chip.txns) != 1 || !cmp.Equal(chip.txns[0].raw, []byte{0x80, 0x01, 0xAA}) {
		t.Errorf("transaction not completed after timeout: %v", chip.txns)
	}
	if !dev.WaitReadyError() {
		t.Error("wait error not latched")
	}
	if dev.WaitReadyError() {
		t.Error("wait error not cleared by read")
	}
}

func TestWaitReadyMs(t *testing.T) {
	dev, chip := newTestDevice(t)
	if !dev.WaitReadyMs(5) {
		t.Error("ready chip reported not ready")
	}
	chip.misoReady = false
	chip.polls = 0
	if dev.WaitReadyMs(3) {
		t.Error("timeout not reported")
	}
	if chip.polls != 300 {
		t.Errorf("polls=%d, want 300", chip.polls)
	}
	if n := chip.countSleeps(10 * time.Microsecond); n != 299 {
		t.Errorf("sleeps=%d, want 299", n)
	}
	if !dev.WaitReadyError() {
		t.Error("wait error not latched")
	}
	if last := chip.events[len(chip.events)-1]; last != "cs1" {
		t.Errorf("CSn left asserted, last event %q", last)
	}
}

func TestReadBCClampsToCapacity(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.bcLen = 244
	chip.readData = make([]byte, 244)
	for i := range chip.readData {
		chip.readData[i] = byte(i)
	}
	buf := make([]byte, 10)
	_, n, err := dev.ReadBC(buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("n=%d, want 10", n)
	}
	if diff := cmp.Diff([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, buf); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	// Two headers plus exactly n data bytes.
	if got := len(chip.txns[0].raw); got != 4+10 {
		t.Errorf("clocked %d bytes, want 14", got)
	}
}

func TestLengthLimits(t *testing.T) {
	dev, chip := newTestDevice(t)
	if _, err := dev.Write(make([]byte, ehif.MaxDataLen+1)); err != ErrDataTooLong {
		t.Errorf("write: got %v", err)
	}
	if _, err := dev.Read(make([]byte, ehif.MaxDataLen+1)); err != ErrDataTooLong {
		t.Errorf("read: got %v", err)
	}
	if _, err := dev.CmdReq(ehif.CmdPMSetState, make([]byte, ehif.MaxParamLen+1)); err != ErrParamTooLong {
		t.Errorf("cmdreq: got %v", err)
	}
	if len(chip.events) != 0 {
		t.Errorf("bus activity on rejected transaction: %v", chip.events)
	}
}

func TestUnknownCommand(t *testing.T) {
	dev, chip := newTestDevice(t)
	data := []byte{1, 2, 3, 4}
	st, err := dev.CmdExecWithRead(ehif.ExecAll, ehif.CmdSDPInjectError, nil, data)
	if err != nil || st != 0 {
		t.Errorf("unlisted command: st=%s err=%v", st, err)
	}
	st, err = dev.CmdExecWithRead(ehif.ExecAll, ehif.Cmd(0x3F), nil, data)
	if err != nil || st != 0 {
		t.Errorf("unassigned id: st=%s err=%v", st, err)
	}
	// Listed command dispatched through the wrong entry point.
	st, err = dev.CmdExecWithRead(ehif.ExecAll, ehif.CmdNWMDoScan, nil, data)
	if err != nil || st != 0 {
		t.Errorf("wrong class: st=%s err=%v", st, err)
	}
	st, n, err := dev.CmdExecWithReadBC(ehif.ExecAll, ehif.CmdDIGetDeviceInfo, nil, data)
	if err != nil || st != 0 || n != 0 {
		t.Errorf("wrong class readbc: st=%s n=%d err=%v", st, n, err)
	}
	st, err = dev.CmdExecWithWrite(ehif.ExecAll, ehif.CmdDIGetDeviceInfo, nil, data)
	if err != nil || st != 0 {
		t.Errorf("wrong class write: st=%s err=%v", st, err)
	}
	if st, err = dev.CmdExec(ehif.Cmd(0x3F), nil); err != nil || st != 0 {
		t.Errorf("exec: st=%s err=%v", st, err)
	}
	if len(chip.events) != 0 {
		t.Errorf("bus activity for unknown command: %v", chip.events)
	}
	if !cmp.Equal(data, []byte{1, 2, 3, 4}) {
		t.Errorf("output modified: %v", data)
	}
	// The internal dispatch still reports the condition to the typed API.
	if _, err = dev.cmdExec(ehif.Cmd(0x3F), nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("internal dispatch: got %v", err)
	}
}

func TestCmdExecWireOrder(t *testing.T) {
	dev, chip := newTestDevice(t)
	err := dev.SetVolume(ehif.SetVolumeParams{
		Value:      -1,
		LogChannel: 3,
		SetOp:      ehif.VolumeSetAbsolute,
		MuteOp:     ehif.VolumeMuteNone,
		IsLocal:    true,
		IsInVol:    false,
	})
	if err != nil {
		t.Fatal(err)
	}
	tx := chip.txns[0]
	if tx.hdr.Kind != ehif.KindCmdReq || tx.hdr.Cmd != ehif.CmdVCSetVolume || tx.hdr.Len != 4 {
		t.Errorf("unexpected header %v", tx.hdr)
	}
	// 0x7ff | 3<<16 | 1<<20 | 1<<24
	want := []byte{0x01, 0x13, 0x07, 0xFF}
	if diff := cmp.Diff(want, tx.body()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestDeviceInfo(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.readData = []byte{
		0x00, 0x01, 0x02, 0x03,
		0x10, 0x20, 0x30, 0x40,
		0xCA, 0xFE, 0xBA, 0xBE,
	}
	di, err := dev.DeviceInfo()
	if err != nil {
		t.Fatal(err)
	}
	want := ehif.DeviceInfo{DeviceID: 0x00010203, MfctID: 0x10203040, ProdID: 0xCAFEBABE}
	if diff := cmp.Diff(want, di); diff != "" {
		t.Errorf("device info mismatch (-want +got):\n%s", diff)
	}
	if len(chip.txns) != 2 {
		t.Fatalf("want CMD_REQ and READ, got %d transactions", len(chip.txns))
	}
	if h := chip.txns[1].hdr; h.Kind != ehif.KindRead || h.Len != ehif.SizeDeviceInfo {
		t.Errorf("unexpected data phase %v", h)
	}
}

func TestSplitPhases(t *testing.T) {
	dev, chip := newTestDevice(t)
	err := dev.StartRxPER(ehif.RxPERParams{CycleCount: 100, NwkID: 0x11223344, Timeout: 50, RFChannel: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(chip.txns) != 1 || chip.txns[0].hdr.Kind != ehif.KindCmdReq {
		t.Fatalf("command phase: %v", chip.txns)
	}
	want := []byte{0x00, 0x64, 0x11, 0x22, 0x33, 0x44, 0x00, 0x00, 0x00, 0x32, 0x02}
	if diff := cmp.Diff(want, chip.txns[0].body()); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	_, err = dev.RxPERResults()
	if err != nil {
		t.Fatal(err)
	}
	if len(chip.txns) != 2 {
		t.Fatalf("data phase: %d transactions", len(chip.txns))
	}
	if h := chip.txns[1].hdr; h.Kind != ehif.KindRead || h.Len != ehif.SizeRxPER {
		t.Errorf("unexpected data phase %v", h)
	}
}

func TestReceiveDatagram(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.bcLen = 8
	chip.readData = []byte{0x01, 0x12, 0x34, 0x56, 0x78, 'a', 'b', 'c'}
	buf := make([]byte, 64)
	dg, err := dev.ReceiveDatagram(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := ehif.Datagram{ConnReset: true, Addr: 0x12345678, Payload: []byte("abc")}
	if diff := cmp.Diff(want, dg); diff != "" {
		t.Errorf("datagram mismatch (-want +got):\n%s", diff)
	}

	chip.bcLen = 0
	dg, err = dev.ReceiveDatagram(buf)
	if err != nil || len(dg.Payload) != 0 {
		t.Errorf("empty fifo: %v %v", dg, err)
	}
	if _, err = dev.ReceiveDatagram(buf[:4]); err != ErrShortBuffer {
		t.Errorf("short buffer: got %v", err)
	}
}

func TestTransportErrorDeselects(t *testing.T) {
	dev, chip := newTestDevice(t)
	chip.failAt = 4
	_, err := dev.Write([]byte{1, 2, 3, 4})
	if !errors.Is(err, errBus) {
		t.Fatalf("got %v, want bus error", err)
	}
	if last := chip.events[len(chip.events)-1]; last != "cs1" {
		t.Errorf("CSn left asserted, last event %q", last)
	}
}

func TestSysResetPin(t *testing.T) {
	dev, chip := newTestDevice(t)
	dev.SysResetPin(false)
	want := []string{"mosi1", "rst0", "cs0", "sleep 2ms", "rst1", "sleep 4µs", "cs1", "mosi-release"}
	if diff := cmp.Diff(want, chip.events); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestBootResetPin(t *testing.T) {
	dev, chip := newTestDevice(t)
	dev.BootResetPin()
	want := []string{
		"mosi0", "rst0", "cs0", "sleep 2ms",
		"rst1", "sleep 4µs", "cs1", "sleep 1µs", "cs0",
		"cs0", "cs1", // WaitReadyMs, chip ready on first poll.
		"cs1", "mosi-release",
	}
	if diff := cmp.Diff(want, chip.events); diff != "" {
		t.Errorf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSpiResets(t *testing.T) {
	dev, chip := newTestDevice(t)
	if err := dev.SysResetSpi(false); err != nil {
		t.Fatal(err)
	}
	want := []string{"cs0", "sleep 2ms", "xbf", "xff", "sleep 2µs", "cs1"}
	if diff := cmp.Diff(want, chip.events); diff != "" {
		t.Errorf("sys reset mismatch (-want +got):\n%s", diff)
	}
	chip.events = nil
	if err := dev.BootResetSpi(); err != nil {
		t.Fatal(err)
	}
	want = []string{
		"cs0", "sleep 2ms", "xb0", "x0", "sleep 2µs", "cs1", "sleep 1µs", "cs0",
		"cs0", "cs1", "cs1",
	}
	if diff := cmp.Diff(want, chip.events); diff != "" {
		t.Errorf("boot reset mismatch (-want +got):\n%s", diff)
	}
	if dev.LastStatus() != 0 {
		t.Error("reset sequence updated the status word")
	}
}

type countingLocker struct{ locks, unlocks int }

func (l *countingLocker) Lock()   { l.locks++ }
func (l *countingLocker) Unlock() { l.unlocks++ }

func TestBootResetCriticalSection(t *testing.T) {
	chip := newFakeChip()
	var crit countingLocker
	dev := New(chip, Config{Clock: chip.clk, CriticalSection: &crit})
	dev.BootResetPin()
	if err := dev.BootResetSpi(); err != nil {
		t.Fatal(err)
	}
	dev.SysResetPin(true)
	if crit.locks != 2 || crit.unlocks != 2 {
		t.Errorf("critical section entered %d and left %d times, want 2", crit.locks, crit.unlocks)
	}
}

func TestLogHexAttrs(t *testing.T) {
	if got := hex32(0x1cdf); got != "00001cdf" {
		t.Errorf("hex32=%q", got)
	}
	if got := hex32(0xdeadbeef); got != "deadbeef" {
		t.Errorf("hex32=%q", got)
	}
	if got := statusAttr(ehif.BLEraseDone).Value.String(); got != "8003" {
		t.Errorf("status attr=%q", got)
	}
}
