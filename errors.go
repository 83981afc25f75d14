package cc85xx

import (
	"errors"
	"strconv"

	"github.com/soypat/cc85xx/ehif"
)

var (
	// ErrUnknownCommand is returned by the typed API when a command has no
	// dispatch entry for the requested phase class. No bus activity takes
	// place. The exported CmdExec entry points treat this case as a no-op.
	ErrUnknownCommand = errors.New("cc85xx: unknown command")
	ErrDataTooLong    = errors.New("cc85xx: data exceeds 4095 bytes")
	ErrParamTooLong   = errors.New("cc85xx: parameters exceed 255 bytes")
	ErrShortBuffer    = errors.New("cc85xx: buffer too short")
	// ErrNotReady reports a latched CMD_REQ_RDY timeout to callers that want
	// an error value. The driver itself only latches, see Device.WaitReadyError.
	ErrNotReady       = errors.New("cc85xx: timed out waiting for CMD_REQ_RDY")
)

// BootloaderStep names a stage of the flash programming sequence.
type BootloaderStep uint8

const (
	StepUnlock BootloaderStep = iota + 1
	StepErase
	StepProgram
	StepVerify
)

func (s BootloaderStep) String() string {
	switch s {
	case StepUnlock:
		return "unlock"
	case StepErase:
		return "erase"
	case StepProgram:
		return "program"
	case StepVerify:
		return "verify"
	}
	return "step?"
}

// BootloaderError is returned when the bootloader reports a status other than
// the one expected after a step.
type BootloaderError struct {
	Step   BootloaderStep
	Status ehif.Status
	// Offset is the image offset of the failing page for StepProgram.
	Offset int
}

func (e *BootloaderError) Error() string {
	msg := "cc85xx: bootloader " + e.Step.String() + " failed: " + e.Status.BootloaderString()
	if e.Step == StepProgram {
		msg += " at offset " + strconv.Itoa(e.Offset)
	}
	return msg
}
