//go:build armbe || arm64be || m68k || mips || mips64 || mips64p32 || ppc || ppc64 || s390 || s390x || shbe || sparc || sparc64

package ehif

// Big-endian hosts already hold fields in wire order so specs are ignored.
const hostSwap = false
