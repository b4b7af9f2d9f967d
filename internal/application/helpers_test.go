package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bnema/arbor-gateway/internal/blockcipher"
	"github.com/bnema/arbor-gateway/internal/chaos"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return fixedNow }

func mockAnyContext() interface{} {
	return mock.MatchedBy(func(context.Context) bool { return true })
}

// sequenceReader yields 0,1,2,... so generated keys are predictable.
type sequenceReader struct{ next byte }

func (r *sequenceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.next
		r.next++
	}
	return len(p), nil
}

type memoryKeyRepo struct {
	mu      sync.Mutex
	records map[domain.DeviceID]domain.DeviceKeyRecord
}

func newMemoryKeyRepo() *memoryKeyRepo {
	return &memoryKeyRepo{records: map[domain.DeviceID]domain.DeviceKeyRecord{}}
}

func (r *memoryKeyRepo) Get(_ context.Context, id domain.DeviceID) (domain.DeviceKeyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return domain.DeviceKeyRecord{}, domain.ErrDeviceNotFound
	}
	return record, nil
}

func (r *memoryKeyRepo) List(context.Context) ([]domain.DeviceKeyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DeviceKeyRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func (r *memoryKeyRepo) Save(_ context.Context, record domain.DeviceKeyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.DeviceID] = record
	return nil
}

func testKey(fill byte) domain.Key {
	var key domain.Key
	for i := range key {
		key[i] = fill + byte(i)
	}
	return key
}

// sealedSubRecord builds a sub-record whose status byte matches the
// simulation for the given inputs.
func sealedSubRecord(t *testing.T, key domain.Key, id domain.DeviceID, temperature int8, acoustic uint8) []byte {
	t.Helper()
	score := chaos.Score(uint32(id), float64(temperature), uint32(acoustic))
	return sealedWithStatus(t, key, id, temperature, acoustic, score.Packed())
}

func sealedWithStatus(t *testing.T, key domain.Key, id domain.DeviceID, temperature int8, acoustic uint8, statusGrowth byte) []byte {
	t.Helper()
	reading := wire.Reading{
		DeviceID:       id,
		VoltageMV:      3712,
		TemperatureC:   temperature,
		AcousticEvents: acoustic,
		ElapsedSeconds: 900,
		StatusGrowth:   statusGrowth,
		MeshHops:       2,
	}
	ciphertext, err := blockcipher.EncryptBlock(key, reading.Marshal())
	require.NoError(t, err)

	sub := wire.SubRecord{DeviceID: id, InvertedRSSI: wire.InvertRSSI(-71)}
	copy(sub.Ciphertext[:], ciphertext)
	return sub.Marshal()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}
