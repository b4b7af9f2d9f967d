package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/blockcipher"
	"github.com/bnema/arbor-gateway/internal/chaos"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/wire"
)

// KeySource is the decoder's view of the key store.
type KeySource interface {
	Candidates(ctx context.Context, id domain.DeviceID) ([]domain.Key, error)
	ConfirmCurrent(ctx context.Context, id domain.DeviceID, key domain.Key) error
}

// Diagnostic describes one dropped sub-record. Err is always a domain
// sentinel chain; key and plaintext bytes never reach it.
type Diagnostic struct {
	Index    int
	DeviceID domain.DeviceID
	Err      error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("sub-record %d (device %s): %v", d.Index, d.DeviceID, d.Err)
}

// Reason is a short label for metrics and logs.
func (d Diagnostic) Reason() string {
	switch {
	case errors.Is(d.Err, domain.ErrUnknownDevice):
		return "unknown_device"
	case errors.Is(d.Err, domain.ErrDecryptionFailure):
		return "decryption_failure"
	case errors.Is(d.Err, domain.ErrTruncatedRecord):
		return "truncated"
	default:
		return "key_lookup"
	}
}

type DecodeResult struct {
	Records     []domain.TelemetryRecord
	Diagnostics []Diagnostic
	// GraceErrors holds failures to persist a grace-period confirmation.
	// They never drop the record that triggered them.
	GraceErrors []error
}

type Decoder struct {
	keys KeySource
}

func NewDecoder(keys KeySource) *Decoder {
	return &Decoder{keys: keys}
}

// Decode processes a batch one sub-record at a time. No failure aborts the
// batch: each bad sub-record is dropped with a diagnostic.
func (d *Decoder) Decode(ctx context.Context, batch []byte) DecodeResult {
	subRecords, trailing := wire.SplitBatch(batch)

	var result DecodeResult
	for i, sub := range subRecords {
		record, usedCurrent, key, err := d.decodeOne(ctx, sub)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Index: i, DeviceID: sub.DeviceID, Err: err})
			continue
		}
		if usedCurrent {
			if err := d.keys.ConfirmCurrent(ctx, sub.DeviceID, key); err != nil {
				result.GraceErrors = append(result.GraceErrors, err)
			}
		}
		result.Records = append(result.Records, record)
	}

	if trailing > 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Index: len(subRecords),
			Err:   fmt.Errorf("%d trailing bytes: %w", trailing, domain.ErrTruncatedRecord),
		})
	}
	return result
}

func (d *Decoder) decodeOne(ctx context.Context, sub wire.SubRecord) (domain.TelemetryRecord, bool, domain.Key, error) {
	candidates, err := d.keys.Candidates(ctx, sub.DeviceID)
	if err != nil {
		if errors.Is(err, domain.ErrDeviceNotFound) {
			return domain.TelemetryRecord{}, false, domain.Key{}, domain.ErrUnknownDevice
		}
		return domain.TelemetryRecord{}, false, domain.Key{}, fmt.Errorf("lookup keys: %w", err)
	}

	for i, key := range candidates {
		reading, ok := openReading(key, sub)
		if !ok {
			continue
		}
		// Only a success under the current key while an older key is still
		// live confirms the device has switched.
		usedCurrent := i == 0 && len(candidates) > 1
		return buildRecord(sub, reading), usedCurrent, key, nil
	}
	return domain.TelemetryRecord{}, false, domain.Key{}, domain.ErrDecryptionFailure
}

// openReading accepts a key when the decrypted id matches the cleartext id.
func openReading(key domain.Key, sub wire.SubRecord) (wire.Reading, bool) {
	plaintext, err := blockcipher.DecryptBlock(key, sub.Ciphertext[:])
	if err != nil {
		return wire.Reading{}, false
	}
	reading, err := wire.UnmarshalReading(plaintext)
	if err != nil || reading.DeviceID != sub.DeviceID {
		return wire.Reading{}, false
	}
	return reading, true
}

func buildRecord(sub wire.SubRecord, reading wire.Reading) domain.TelemetryRecord {
	record := domain.TelemetryRecord{
		DeviceID:       sub.DeviceID,
		RSSI:           sub.RSSI(),
		VoltageMV:      reading.VoltageMV,
		TemperatureC:   reading.TemperatureC,
		AcousticEvents: reading.AcousticEvents,
		ElapsedSeconds: reading.ElapsedSeconds,
		GrowthPoints:   reading.Growth(),
		MeshHops:       reading.MeshHops,
		Status:         reading.Status(),
	}

	if record.Status == domain.StatusTamper {
		record.Status = domain.StatusAnomaly
		record.Tamper = true
		return record
	}

	expected := chaos.Score(uint32(sub.DeviceID), float64(reading.TemperatureC), uint32(reading.AcousticEvents))
	record.ScoreVerified = expected.Status == record.Status && expected.Points == record.GrowthPoints
	return record
}
