package ehif

import (
	"errors"
	"strconv"
	"strings"
)

// OpKind is the kind of a field specification opcode.
type OpKind uint8

const (
	OpStop   OpKind = iota // Ends the walk. The zero Op is a stop.
	OpRepeat               // Count fields of Width bytes each.
	OpJump                 // Moves the opcode cursor by Offset.
)

// Op is a single field specification opcode.
type Op struct {
	Kind   OpKind
	Width  uint8 // 1, 2 or 4. OpRepeat only.
	Count  uint8 // 1..32. OpRepeat only.
	Offset int8  // Negative. OpJump only.
}

// Spec is an ordered list of opcodes describing how the bytes of a host buffer
// are grouped into 8, 16 and 32 bit fields on the wire. A trailing jump makes
// the spec loop until the buffer is exhausted.
type Spec []Op

// F8 returns an opcode for n consecutive 8 bit fields.
func F8(n int) Op { return repeat(1, n) }

// F16 returns an opcode for n consecutive 16 bit fields.
func F16(n int) Op { return repeat(2, n) }

// F32 returns an opcode for n consecutive 32 bit fields.
func F32(n int) Op { return repeat(4, n) }

// Jump returns an opcode moving the cursor by offset opcodes. offset must be negative.
func Jump(offset int) Op { return Op{Kind: OpJump, Offset: int8(offset)} }

func repeat(width uint8, n int) Op {
	if n < 1 || n > maxRepeat {
		panic("ehif: repeat count out of range")
	}
	return Op{Kind: OpRepeat, Width: width, Count: uint8(n)}
}

const maxRepeat = 32

var (
	errBadWidth   = errors.New("ehif: field width not 1, 2 or 4")
	errBadCount   = errors.New("ehif: repeat count out of range")
	errBadJump    = errors.New("ehif: jump out of range")
	errForwardJmp = errors.New("ehif: jump must be negative")
)

// Raw returns the signed byte encoding of op:
// bits 1:0 width code (1, 2, 3 for 1, 2, 4 bytes), bits 6:2 count-1. Zero is a
// stop and negative values are jumps.
func (op Op) Raw() int8 {
	switch op.Kind {
	case OpRepeat:
		var code int8
		switch op.Width {
		case 1:
			code = 1
		case 2:
			code = 2
		case 4:
			code = 3
		}
		return int8(op.Count-1)<<2 | code
	case OpJump:
		return op.Offset
	}
	return 0
}

func (op Op) String() string {
	switch op.Kind {
	case OpRepeat:
		return "F" + strconv.Itoa(8*int(op.Width)) + "(" + strconv.Itoa(int(op.Count)) + ")"
	case OpJump:
		return "J(" + strconv.Itoa(int(op.Offset)) + ")"
	}
	return "STOP"
}

// ParseSpec decodes the signed byte encoding of a field specification. Parsing
// ends at the first zero byte or at the first jump, whichever comes first.
func ParseSpec(raw []int8) (Spec, error) {
	var spec Spec
	for _, v := range raw {
		switch {
		case v == 0:
			return spec, spec.Validate()
		case v < 0:
			spec = append(spec, Jump(int(v)))
			return spec, spec.Validate()
		}
		var width uint8
		switch v & 3 {
		case 1:
			width = 1
		case 2:
			width = 2
		case 3:
			width = 4
		default:
			return nil, errBadWidth
		}
		spec = append(spec, Op{Kind: OpRepeat, Width: width, Count: uint8(v>>2) + 1})
	}
	return spec, spec.Validate()
}

// Raw returns the signed byte encoding of the spec, terminated with a stop
// unless the spec ends in a jump.
func (s Spec) Raw() []int8 {
	raw := make([]int8, 0, len(s)+1)
	for _, op := range s {
		raw = append(raw, op.Raw())
		if op.Kind != OpRepeat {
			return raw
		}
	}
	return append(raw, 0)
}

// Validate checks widths, counts and that every jump lands inside the spec.
func (s Spec) Validate() error {
	for pc, op := range s {
		switch op.Kind {
		case OpRepeat:
			if op.Width != 1 && op.Width != 2 && op.Width != 4 {
				return errBadWidth
			}
			if op.Count == 0 || op.Count > maxRepeat {
				return errBadCount
			}
		case OpJump:
			if op.Offset >= 0 {
				return errForwardJmp
			}
			if pc+int(op.Offset) < 0 {
				return errBadJump
			}
		}
	}
	return nil
}

// Layout returns the number of bytes covered by the spec before the looped
// section and the number of bytes of one loop iteration. record is zero for
// specs without a jump.
func (s Spec) Layout() (fixed, record int) {
	loopStart := len(s)
	for pc, op := range s {
		if op.Kind == OpStop {
			break
		}
		if op.Kind == OpJump {
			loopStart = min(pc, max(0, pc+int(op.Offset)))
			for _, lop := range s[loopStart:pc] {
				record += lop.size()
			}
			break
		}
	}
	for _, op := range s[:loopStart] {
		if op.Kind != OpRepeat {
			break
		}
		fixed += op.size()
	}
	return fixed, record
}

// Size returns the number of bytes covered by one pass through the spec,
// that is the fixed section plus a single loop iteration.
func (s Spec) Size() int {
	fixed, record := s.Layout()
	return fixed + record
}

func (op Op) size() int {
	if op.Kind != OpRepeat {
		return 0
	}
	return int(op.Width) * int(op.Count)
}

func (s Spec) String() string {
	if len(s) == 0 {
		return "STOP"
	}
	var sb strings.Builder
	for i, op := range s {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}

// walk calls fn with the offset and width of every field of an n byte buffer in
// wire order. A field that does not fit in the remaining bytes ends its opcode.
// The walk ends on a stop, at the end of the spec, when the buffer is
// exhausted or when a jump is taken without consuming bytes since the last
// jump, which would otherwise loop forever.
func (s Spec) walk(n int, fn func(off, width int) error) error {
	off, pc := 0, 0
	lastJump := -1
	for off < n && pc < len(s) {
		op := s[pc]
		switch op.Kind {
		case OpRepeat:
			w := int(op.Width)
			if w != 1 && w != 2 && w != 4 {
				return nil
			}
			for i := 0; i < int(op.Count) && w <= n-off; i++ {
				if err := fn(off, w); err != nil {
					return err
				}
				off += w
			}
			pc++
		case OpJump:
			if off == lastJump {
				return nil
			}
			lastJump = off
			pc += int(op.Offset)
			if pc < 0 {
				return nil
			}
		default:
			return nil
		}
	}
	return nil
}
