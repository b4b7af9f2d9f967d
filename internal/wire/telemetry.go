package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/domain"
)

const (
	SubRecordSize = 21
	ReadingSize   = 16

	ciphertextOffset = 5
)

// SubRecord is one relay-forwarded sample: cleartext routing header plus one
// AES block.
type SubRecord struct {
	DeviceID     domain.DeviceID
	InvertedRSSI byte
	Ciphertext   [ReadingSize]byte
}

// RSSI reconstructs the negative signal strength from its inverted magnitude.
func (s SubRecord) RSSI() int {
	return -(255 - int(s.InvertedRSSI))
}

func InvertRSSI(rssi int) byte {
	magnitude := -rssi
	if magnitude < 0 {
		magnitude = 0
	}
	if magnitude > 255 {
		magnitude = 255
	}
	return byte(255 - magnitude)
}

func (s SubRecord) Marshal() []byte {
	out := make([]byte, SubRecordSize)
	binary.BigEndian.PutUint32(out[0:4], uint32(s.DeviceID))
	out[4] = s.InvertedRSSI
	copy(out[ciphertextOffset:], s.Ciphertext[:])
	return out
}

// SplitBatch slices a batch into sub-records. Trailing bytes that cannot form a
// whole sub-record are reported by count, not treated as an error.
func SplitBatch(batch []byte) ([]SubRecord, int) {
	count := len(batch) / SubRecordSize
	records := make([]SubRecord, 0, count)
	for i := 0; i < count; i++ {
		chunk := batch[i*SubRecordSize : (i+1)*SubRecordSize]
		record := SubRecord{
			DeviceID:     domain.DeviceID(binary.BigEndian.Uint32(chunk[0:4])),
			InvertedRSSI: chunk[4],
		}
		copy(record.Ciphertext[:], chunk[ciphertextOffset:])
		records = append(records, record)
	}
	return records, len(batch) % SubRecordSize
}

// Reading is the decrypted 16-byte sample body.
type Reading struct {
	DeviceID       domain.DeviceID
	VoltageMV      uint16
	TemperatureC   int8
	AcousticEvents uint8
	ElapsedSeconds uint16
	StatusGrowth   byte
	MeshHops       uint8
	Reserved       [4]byte
}

func (r Reading) Status() domain.Status {
	return domain.Status(r.StatusGrowth >> 6)
}

func (r Reading) Growth() uint8 {
	return r.StatusGrowth & 0x3F
}

func (r Reading) Marshal() []byte {
	out := make([]byte, ReadingSize)
	binary.BigEndian.PutUint32(out[0:4], uint32(r.DeviceID))
	binary.BigEndian.PutUint16(out[4:6], r.VoltageMV)
	out[6] = byte(r.TemperatureC)
	out[7] = r.AcousticEvents
	binary.BigEndian.PutUint16(out[8:10], r.ElapsedSeconds)
	out[10] = r.StatusGrowth
	out[11] = r.MeshHops
	copy(out[12:16], r.Reserved[:])
	return out
}

func UnmarshalReading(plaintext []byte) (Reading, error) {
	if len(plaintext) != ReadingSize {
		return Reading{}, fmt.Errorf("reading: got %d bytes, want %d", len(plaintext), ReadingSize)
	}
	r := Reading{
		DeviceID:       domain.DeviceID(binary.BigEndian.Uint32(plaintext[0:4])),
		VoltageMV:      binary.BigEndian.Uint16(plaintext[4:6]),
		TemperatureC:   int8(plaintext[6]),
		AcousticEvents: plaintext[7],
		ElapsedSeconds: binary.BigEndian.Uint16(plaintext[8:10]),
		StatusGrowth:   plaintext[10],
		MeshHops:       plaintext[11],
	}
	copy(r.Reserved[:], plaintext[12:16])
	return r, nil
}
