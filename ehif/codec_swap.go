//go:build !(armbe || arm64be || m68k || mips || mips64 || mips64p32 || ppc || ppc64 || s390 || s390x || shbe || sparc || sparc64)

package ehif

// Little-endian hosts reverse every multi-byte field on the way to and from the wire.
const hostSwap = true
