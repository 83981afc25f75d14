package cc85xx

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/soypat/cc85xx/ehif"
)

const levelTrace slog.Level = slog.LevelDebug - 1

func (d *Device) logerr(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelError, msg, attrs...)
}

func (d *Device) warn(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelWarn, msg, attrs...)
}

func (d *Device) info(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelInfo, msg, attrs...)
}

func (d *Device) debug(msg string, attrs ...slog.Attr) {
	d.logattrs(slog.LevelDebug, msg, attrs...)
}

func (d *Device) trace(msg string, attrs ...slog.Attr) {
	if d._traceenabled {
		d.logattrs(levelTrace, msg, attrs...)
	}
}

func (d *Device) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if d.logger != nil {
		d.logger.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func statusAttr(st ehif.Status) slog.Attr {
	return slog.String("status", st.Hex())
}

// hex32 formats v as eight lowercase hex digits.
func hex32(v uint32) string {
	return strconv.FormatUint(uint64(v)|1<<32, 16)[1:]
}
