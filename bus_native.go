//go:build !tinygo

package cc85xx

import "sync"

// Host operating systems cannot mask interrupts from user space. Boot resets
// rely on the bus back end being fast enough.
func defaultCriticalSection() sync.Locker { return noCritical{} }
