package domain

import (
	"fmt"
	"time"
)

type CommandStatus string

const (
	CommandIssued       CommandStatus = "issued"
	CommandSent         CommandStatus = "sent"
	CommandAcknowledged CommandStatus = "acknowledged"
	CommandFailed       CommandStatus = "failed"
)

func (s CommandStatus) Terminal() bool {
	return s == CommandAcknowledged || s == CommandFailed
}

// KeyChoice selects which of the device's keys encrypts an outbound payload.
type KeyChoice string

const (
	KeyCurrent  KeyChoice = "current"
	KeyPrevious KeyChoice = "previous"
)

func ParseKeyChoice(raw string) (KeyChoice, error) {
	switch KeyChoice(raw) {
	case "", KeyCurrent:
		return KeyCurrent, nil
	case KeyPrevious:
		return KeyPrevious, nil
	default:
		return "", fmt.Errorf("unsupported key choice %q", raw)
	}
}

type CommandEnvelope struct {
	ID        string        `json:"id"`
	DeviceID  DeviceID      `json:"device_id"`
	Code      string        `json:"code"`
	Duration  time.Duration `json:"duration"`
	Key       KeyChoice     `json:"key"`
	Endpoint  string        `json:"endpoint"`
	Status    CommandStatus `json:"status"`
	AckCode   uint8         `json:"ack_code,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	IssuedAt  time.Time     `json:"issued_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Advance moves the envelope along its lifecycle; terminal envelopes stay put.
func (e *CommandEnvelope) Advance(next CommandStatus, at time.Time) error {
	if e.Status.Terminal() {
		return fmt.Errorf("command %s already %s", e.ID, e.Status)
	}
	e.Status = next
	e.UpdatedAt = at
	return nil
}
