package domain

import "errors"

var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrDeviceExists      = errors.New("device already registered")
	ErrUnknownDevice     = errors.New("unknown device")
	ErrDecryptionFailure = errors.New("decryption failure")
	ErrTransportTimeout  = errors.New("transport timeout")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoPreviousKey     = errors.New("no previous key in grace period")
	ErrArtifactTooLarge  = errors.New("artifact too large for chunk mode")
	ErrChecksumMismatch  = errors.New("artifact checksum mismatch")
	ErrTruncatedRecord   = errors.New("truncated sub-record")
	ErrRejected          = errors.New("request rejected by device")
)
