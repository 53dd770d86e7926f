package models

import "time"

type SignalType string

const (
	SignalOpen  SignalType = "OPEN"
	SignalClose SignalType = "CLOSE"
	SignalAlert SignalType = "ALERT"
	SignalHold  SignalType = "HOLD"
)

// Signal is one strategy decision for one evaluation date. PositionID is set
// on CLOSE signals so the caller knows which position to settle.
type Signal struct {
	Type       SignalType
	Date       time.Time
	Reason     string
	PositionID string
}

func NewSignal(signalType SignalType, date time.Time, reason string) Signal {
	return Signal{
		Type:   signalType,
		Date:   date,
		Reason: reason,
	}
}
