package main

import (
	"encoding/json"
	"log/slog"

	"github.com/soypat/cc85xx/ehif"
)

// source is the part of *cc85xx.Device the publisher polls.
type source interface {
	GetStatus() (ehif.Status, error)
	RFStats() (ehif.RFStats, error)
	AudioStats() (ehif.AudioStats, error)
	WaitReadyError() bool
}

type message struct {
	topic   string
	payload []byte
}

type publisher struct {
	src    source
	prefix string
	logger *slog.Logger
	id     uint16
}

type statusPayload struct {
	Status    uint16 `json:"status"`
	Flags     string `json:"flags"`
	Connected bool   `json:"connected"`
	Timeout   bool   `json:"timeout"`
}

func (p *publisher) nextID() uint16 {
	p.id++
	return p.id
}

// poll reads the device and returns the messages to publish. Failed reads
// are logged and skipped.
func (p *publisher) poll() (msgs []message) {
	st, err := p.src.GetStatus()
	if err != nil {
		p.logerr("status", err)
		return nil
	}
	msgs = p.appendJSON(msgs, "status", statusPayload{
		Status:    uint16(st),
		Flags:     st.String(),
		Connected: st.Connected(),
		Timeout:   p.src.WaitReadyError(),
	})
	if rf, err := p.src.RFStats(); err != nil {
		p.logerr("rf", err)
	} else {
		msgs = p.appendJSON(msgs, "rf", rf)
	}
	if audio, err := p.src.AudioStats(); err != nil {
		p.logerr("audio", err)
	} else {
		msgs = p.appendJSON(msgs, "audio", audio)
	}
	return msgs
}

func (p *publisher) appendJSON(msgs []message, sub string, v any) []message {
	b, err := json.Marshal(v)
	if err != nil {
		p.logerr(sub, err)
		return msgs
	}
	return append(msgs, message{topic: p.prefix + "/" + sub, payload: b})
}

func (p *publisher) logerr(what string, err error) {
	if p.logger != nil {
		p.logger.Error("telemetry:read-failed", slog.String("what", what), slog.String("reason", err.Error()))
	}
}
