package cc85xx

import (
	"log/slog"

	"github.com/soypat/cc85xx/ehif"
)

// CmdExec issues a command that has no data phase. params is in host layout
// and is converted to wire order according to the command's descriptor.
//
// The CmdExec family treats a command absent from the dispatch table, or
// listed with a different data phase, as a no-op: no bus activity takes
// place, outputs are left untouched and the zero status is returned with a
// nil error.
func (d *Device) CmdExec(cmd ehif.Cmd, params []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	st, err := d.cmdExec(cmd, params)
	return st, ignoreUnknown(err)
}

// CmdExecWithRead issues a command followed by a READ of len(data) bytes.
// sel selects the phases performed so that long running commands can be
// started with ehif.ExecCmd and collected later with ehif.ExecData. The
// returned status is that of the last transaction.
func (d *Device) CmdExecWithRead(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	st, err := d.cmdExecWithRead(sel, cmd, params, data)
	return st, ignoreUnknown(err)
}

// CmdExecWithReadBC issues a command followed by a READBC into data. n is the
// number of bytes received, the device reported length clamped to len(data).
func (d *Device) CmdExecWithReadBC(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (st ehif.Status, n int, err error) {
	d.acquire()
	defer d.release()
	st, n, err = d.cmdExecWithReadBC(sel, cmd, params, data)
	return st, n, ignoreUnknown(err)
}

// CmdExecWithWrite issues a command followed by a WRITE of data.
func (d *Device) CmdExecWithWrite(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (ehif.Status, error) {
	d.acquire()
	defer d.release()
	st, err := d.cmdExecWithWrite(sel, cmd, params, data)
	return st, ignoreUnknown(err)
}

// ignoreUnknown drops ErrUnknownCommand, which the internal dispatch returns
// so that the typed API never decodes a buffer no transaction filled.
func ignoreUnknown(err error) error {
	if err == ErrUnknownCommand {
		return nil
	}
	return err
}

func (d *Device) lookup(cmd ehif.Cmd, class ehif.Class) (ehif.Descriptor, error) {
	desc, ok := ehif.Lookup(cmd)
	if !ok || desc.Class != class {
		d.debug("ehif:unknown command", slog.String("cmd", cmd.String()), slog.String("class", class.String()))
		return desc, ErrUnknownCommand
	}
	return desc, nil
}

func (d *Device) cmdExec(cmd ehif.Cmd, params []byte) (ehif.Status, error) {
	desc, err := d.lookup(cmd, ehif.ClassNone)
	if err != nil {
		return 0, err
	}
	return d.cmdReq(cmd, desc.Param, params)
}

func (d *Device) cmdExecWithRead(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (st ehif.Status, err error) {
	desc, err := d.lookup(cmd, ehif.ClassRead)
	if err != nil {
		return 0, err
	}
	if sel&ehif.ExecCmd != 0 {
		st, err = d.cmdReq(cmd, desc.Param, params)
		if err != nil {
			return st, err
		}
	}
	if sel&ehif.ExecData != 0 {
		st, err = d.read(desc.Data, data)
	}
	return st, err
}

func (d *Device) cmdExecWithReadBC(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (st ehif.Status, n int, err error) {
	desc, err := d.lookup(cmd, ehif.ClassReadBC)
	if err != nil {
		return 0, 0, err
	}
	if sel&ehif.ExecCmd != 0 {
		st, err = d.cmdReq(cmd, desc.Param, params)
		if err != nil {
			return st, 0, err
		}
	}
	if sel&ehif.ExecData != 0 {
		st, n, err = d.readBC(desc.Data, data)
	}
	return st, n, err
}

func (d *Device) cmdExecWithWrite(sel ehif.Exec, cmd ehif.Cmd, params, data []byte) (st ehif.Status, err error) {
	desc, err := d.lookup(cmd, ehif.ClassWrite)
	if err != nil {
		return 0, err
	}
	if sel&ehif.ExecCmd != 0 {
		st, err = d.cmdReq(cmd, desc.Param, params)
		if err != nil {
			return st, err
		}
	}
	if sel&ehif.ExecData != 0 {
		st, err = d.write(desc.Data, data)
	}
	return st, err
}
