package wire

import (
	"testing"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadingRoundTrip(t *testing.T) {
	reading := Reading{
		DeviceID:       0x0a0b0c0d,
		VoltageMV:      3712,
		TemperatureC:   -12,
		AcousticEvents: 200,
		ElapsedSeconds: 900,
		StatusGrowth:   0b01_000001,
		MeshHops:       3,
	}

	raw := reading.Marshal()
	require.Len(t, raw, ReadingSize)
	assert.Equal(t, []byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x80, 0xf4, 200, 0x03, 0x84, 0x41, 3, 0, 0, 0, 0}, raw)

	decoded, err := UnmarshalReading(raw)
	require.NoError(t, err)
	assert.Equal(t, reading, decoded)
	assert.Equal(t, domain.StatusStress, decoded.Status())
	assert.Equal(t, uint8(1), decoded.Growth())
}

func TestUnmarshalReadingRejectsWrongSize(t *testing.T) {
	_, err := UnmarshalReading(make([]byte, 15))
	require.Error(t, err)
}

func TestSplitBatch(t *testing.T) {
	first := SubRecord{DeviceID: 1, InvertedRSSI: InvertRSSI(-70), Ciphertext: [16]byte{1}}
	second := SubRecord{DeviceID: 0xdeadbeef, InvertedRSSI: InvertRSSI(-110), Ciphertext: [16]byte{2}}

	batch := append(first.Marshal(), second.Marshal()...)
	batch = append(batch, 0xAA, 0xBB)

	records, trailing := SplitBatch(batch)
	require.Len(t, records, 2)
	assert.Equal(t, 2, trailing)
	assert.Equal(t, first, records[0])
	assert.Equal(t, second, records[1])
	assert.Equal(t, -70, records[0].RSSI())
	assert.Equal(t, -110, records[1].RSSI())
}

func TestRSSIInversionClamps(t *testing.T) {
	assert.Equal(t, byte(255), InvertRSSI(5))
	assert.Equal(t, byte(0), InvertRSSI(-300))
	assert.Equal(t, -255, SubRecord{InvertedRSSI: 0}.RSSI())
	assert.Equal(t, 0, SubRecord{InvertedRSSI: 255}.RSSI())
}
