package periphbus

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

// echoConn answers every byte with its complement and records writes.
type echoConn struct {
	written []byte
}

func (c *echoConn) String() string               { return "echo" }
func (c *echoConn) Duplex() conn.Duplex          { return conn.Full }
func (c *echoConn) TxPackets([]spi.Packet) error { return errors.New("unsupported") }

func (c *echoConn) Tx(w, r []byte) error {
	c.written = append(c.written, w...)
	for i := range w {
		r[i] = ^w[i]
	}
	return nil
}

type closeRecorder struct {
	closed bool
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.err
}

var errPin = errors.New("pin fault")

type faultyPin struct {
	gpiotest.Pin
}

func (p *faultyPin) Out(gpio.Level) error { return errPin }

func testPins() (Pins, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	cs := &gpiotest.Pin{N: "CS"}
	rst := &gpiotest.Pin{N: "RST"}
	miso := &gpiotest.Pin{N: "MISO"}
	mosi := &gpiotest.Pin{N: "MOSI"}
	return Pins{CS: cs, Reset: rst, MISO: miso, MOSI: mosi}, cs, rst, miso, mosi
}

func TestBus(t *testing.T) {
	pins, cs, rst, miso, mosi := testPins()
	c := &echoConn{}
	b, err := New(c, nil, pins)
	if err != nil {
		t.Fatal(err)
	}
	if cs.L != gpio.High || rst.L != gpio.High {
		t.Error("chip not deselected and out of reset after New")
	}
	b.CSn(false)
	if cs.L != gpio.Low {
		t.Error("CSn(false) did not drive CS low")
	}
	got, err := b.Transfer(0x5A)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xA5 {
		t.Errorf("got %#x, want 0xa5", got)
	}
	b.ResetN(false)
	if rst.L != gpio.Low {
		t.Error("ResetN(false) did not drive RESET low")
	}
	miso.L = gpio.High
	if !b.MISO() {
		t.Error("MISO high not sampled")
	}
	b.ForceMOSI(true)
	if mosi.L != gpio.High {
		t.Error("MOSI not forced high")
	}
	if diff := cmp.Diff([]byte{0x5A}, c.written); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}
}

func TestPinErrorsSurface(t *testing.T) {
	pins, _, _, _, _ := testPins()
	b, err := New(&echoConn{}, nil, pins)
	if err != nil {
		t.Fatal(err)
	}
	b.pins.CS = &faultyPin{}
	b.CSn(false)
	if _, err := b.Transfer(0); !errors.Is(err, errPin) {
		t.Errorf("got %v, want pin error", err)
	}
	if err := b.Err(); err != nil {
		t.Errorf("error not cleared: %v", err)
	}
}

func TestClose(t *testing.T) {
	pins, cs, _, _, _ := testPins()
	closer := &closeRecorder{err: errors.New("port busy")}
	b, err := New(&echoConn{}, closer, pins)
	if err != nil {
		t.Fatal(err)
	}
	b.CSn(false)
	err = b.Close()
	if !closer.closed {
		t.Error("port not closed")
	}
	if err == nil || err.Error() != "port busy" {
		t.Errorf("got %v, want port error", err)
	}
	if cs.L != gpio.High {
		t.Error("chip left selected")
	}
}

func TestNewMissingPin(t *testing.T) {
	pins, _, _, _, _ := testPins()
	pins.MISO = nil
	if _, err := New(&echoConn{}, nil, pins); err == nil {
		t.Error("expected error for missing MISO")
	}
}
