package domain

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const KeySize = 32

// DeviceID is the 32-bit hardware identifier carried in every sub-record.
type DeviceID uint32

func (id DeviceID) String() string {
	return fmt.Sprintf("%08x", uint32(id))
}

func ParseDeviceID(raw string) (DeviceID, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("device id is empty")
	}

	value, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid device id %q", raw)
	}

	return DeviceID(value), nil
}

// Key is an AES-256 device key. It never formats its bytes.
type Key [KeySize]byte

func (k Key) String() string {
	return "[redacted]"
}

func (k Key) GoString() string {
	return "domain.Key{[redacted]}"
}

// Hex exposes the raw key for the key-update payload and at-rest encoding only.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

func ParseKeyHex(raw string) (Key, error) {
	var key Key
	decoded, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return key, fmt.Errorf("decode key: invalid hex")
	}
	if len(decoded) != KeySize {
		return key, fmt.Errorf("decode key: got %d bytes, want %d", len(decoded), KeySize)
	}
	copy(key[:], decoded)
	return key, nil
}

type DeviceKeyRecord struct {
	DeviceID  DeviceID
	Current   Key
	Previous  *Key
	RotatedAt time.Time
}

func (r DeviceKeyRecord) InGracePeriod() bool {
	return r.Previous != nil
}

// KeySet is a consistent snapshot of the keys valid for one device.
type KeySet struct {
	Current  Key
	Previous *Key
}

// Candidates orders keys for decryption attempts, newest first.
func (s KeySet) Candidates() []Key {
	keys := []Key{s.Current}
	if s.Previous != nil {
		keys = append(keys, *s.Previous)
	}
	return keys
}
