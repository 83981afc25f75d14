//go:build tinygo

package cc85xx

import (
	"runtime/interrupt"
	"sync"
)

type interruptLocker struct {
	state interrupt.State
}

func (l *interruptLocker) Lock()   { l.state = interrupt.Disable() }
func (l *interruptLocker) Unlock() { interrupt.Restore(l.state) }

func defaultCriticalSection() sync.Locker { return &interruptLocker{} }
