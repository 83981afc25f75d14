// Package cc85xx is a host side driver for the TI CC85xx family of wireless
// audio transceivers controlled over the External Host Interface (EHIF), an
// SPI slave interface with a status word, command requests, data phases and a
// flash bootloader.
package cc85xx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/soypat/cc85xx/ehif"
)

// Bus is the electrical interface to a CC85xx. Levels are line levels:
// CSn(false) selects the chip and ResetN(false) holds it in reset.
type Bus interface {
	// Transfer clocks out w and returns the byte clocked in.
	Transfer(w byte) (byte, error)
	CSn(level bool)
	ResetN(level bool)
	// MISO samples the MISO line. The chip drives it high while CSn is low
	// when it is ready to accept a transaction.
	MISO() bool
	// ForceMOSI takes the MOSI pin away from the SPI peripheral and drives it.
	ForceMOSI(level bool)
	// ReleaseMOSI returns the MOSI pin to the SPI peripheral.
	ReleaseMOSI()
}

// Config configures a Device. Zero fields take their DefaultConfig value.
type Config struct {
	Logger *slog.Logger
	Clock  clock.Clock
	// CriticalSection guards the boot reset window in which no other code
	// may delay the CSn edges. Defaults to disabling interrupts on TinyGo
	// and to a no-op elsewhere.
	CriticalSection sync.Locker
	// ReadyPolls is the number of times MISO is sampled before a transaction
	// gives up waiting for CMD_REQ_RDY.
	ReadyPolls        int
	ReadyPollPeriod   time.Duration
	ReadyMsPollPeriod time.Duration // Poll period of WaitReadyMs.
}

func DefaultConfig() Config {
	return Config{
		Clock:             clock.New(),
		CriticalSection:   defaultCriticalSection(),
		ReadyPolls:        5000,
		ReadyPollPeriod:   2 * time.Microsecond,
		ReadyMsPollPeriod: 10 * time.Microsecond,
	}
}

// Device is a CC85xx reached over EHIF. Its methods are safe for concurrent
// use, transactions never interleave.
type Device struct {
	mu            sync.Mutex
	bus           Bus
	clk           clock.Clock
	crit          sync.Locker
	readyPolls    int
	readyPeriod   time.Duration
	readyMsPeriod time.Duration
	waitErr       atomic.Bool
	lastStatus    ehif.Status
	logger        *slog.Logger
	_traceenabled bool
	// Scratch host layout buffers for the typed API.
	pbuf [ehif.MaxParamLen]byte
	dbuf [scratchLen]byte
}

// New returns a Device driving bus. It performs no bus activity.
func New(bus Bus, cfg Config) *Device {
	def := DefaultConfig()
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.CriticalSection == nil {
		cfg.CriticalSection = def.CriticalSection
	}
	if cfg.ReadyPolls <= 0 {
		cfg.ReadyPolls = def.ReadyPolls
	}
	if cfg.ReadyPollPeriod <= 0 {
		cfg.ReadyPollPeriod = def.ReadyPollPeriod
	}
	if cfg.ReadyMsPollPeriod <= 0 {
		cfg.ReadyMsPollPeriod = def.ReadyMsPollPeriod
	}
	d := &Device{
		bus:           bus,
		clk:           cfg.Clock,
		crit:          cfg.CriticalSection,
		readyPolls:    cfg.ReadyPolls,
		readyPeriod:   cfg.ReadyPollPeriod,
		readyMsPeriod: cfg.ReadyMsPollPeriod,
		logger:        cfg.Logger,
	}
	d._traceenabled = d.logger != nil && d.logger.Handler().Enabled(context.Background(), levelTrace)
	return d
}

// LastStatus returns the status word received during the most recent transaction.
func (d *Device) LastStatus() ehif.Status {
	d.acquire()
	defer d.release()
	return d.lastStatus
}

// WaitReadyError reports whether any wait for CMD_REQ_RDY timed out since the
// last call and clears the condition.
func (d *Device) WaitReadyError() bool {
	return d.waitErr.Swap(false)
}

func (d *Device) acquire() {
	d.mu.Lock()
}

func (d *Device) release() {
	d.mu.Unlock()
}

func (d *Device) sleep(dur time.Duration) {
	d.clk.Sleep(dur)
}

type noCritical struct{}

func (noCritical) Lock()   {}
func (noCritical) Unlock() {}
