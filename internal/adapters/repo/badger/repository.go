package badger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

const (
	keyPrefix      = "device:"
	indexCacheSize = 16 << 20
	valueLogSize   = 1 << 24
)

// Repository stores device key records in Badger with encryption at rest.
// Each Save is one transaction, so readers see a whole record or the old one.
type Repository struct {
	db *badger.DB
}

var _ ports.KeyRepository = (*Repository)(nil)

type recordSchema struct {
	Current   []byte `cbor:"1,keyasint"`
	Previous  []byte `cbor:"2,keyasint,omitempty"`
	RotatedAt int64  `cbor:"3,keyasint,omitempty"`
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// Open opens or creates the store under dir. masterKey must be 16, 24 or 32
// bytes; Badger refuses to open an existing encrypted store with another key.
func Open(dir string, masterKey []byte, logger *zap.Logger) (*Repository, error) {
	switch len(masterKey) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("open key store: master key must be 16, 24 or 32 bytes, got %d", len(masterKey))
	}

	opts := badger.DefaultOptions(filepath.Clean(dir)).
		WithEncryptionKey(masterKey).
		WithIndexCacheSize(indexCacheSize).
		WithValueLogFileSize(valueLogSize)
	if logger != nil {
		opts = opts.WithLogger(zapLogger{logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, record domain.DeviceKeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value := recordSchema{Current: append([]byte(nil), record.Current[:]...)}
	if record.Previous != nil {
		value.Previous = append([]byte(nil), record.Previous[:]...)
	}
	if !record.RotatedAt.IsZero() {
		value.RotatedAt = record.RotatedAt.UnixNano()
	}

	data, err := encMode.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode device %s: %w", record.DeviceID, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(deviceKey(record.DeviceID), data)
	})
	if err != nil {
		return fmt.Errorf("save device %s: %w", record.DeviceID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id domain.DeviceID) (domain.DeviceKeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceKeyRecord{}, err
	}

	var record domain.DeviceKeyRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(deviceKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrDeviceNotFound
			}
			return err
		}
		return item.Value(func(v []byte) error {
			record, err = decodeRecord(id, v)
			return err
		})
	})
	if err != nil {
		return domain.DeviceKeyRecord{}, err
	}
	return record, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.DeviceKeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := []domain.DeviceKeyRecord{}
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id, err := domain.ParseDeviceID(string(item.Key()[len(keyPrefix):]))
			if err != nil {
				return fmt.Errorf("decode key %q: %w", item.Key(), err)
			}
			err = item.Value(func(v []byte) error {
				record, err := decodeRecord(id, v)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return records, nil
}

func deviceKey(id domain.DeviceID) []byte {
	return []byte(keyPrefix + id.String())
}

func decodeRecord(id domain.DeviceID, data []byte) (domain.DeviceKeyRecord, error) {
	var value recordSchema
	if err := cbor.Unmarshal(data, &value); err != nil {
		return domain.DeviceKeyRecord{}, fmt.Errorf("decode device %s: %w", id, err)
	}
	if len(value.Current) != domain.KeySize || (value.Previous != nil && len(value.Previous) != domain.KeySize) {
		return domain.DeviceKeyRecord{}, fmt.Errorf("decode device %s: bad key length", id)
	}

	record := domain.DeviceKeyRecord{DeviceID: id}
	copy(record.Current[:], value.Current)
	if value.Previous != nil {
		var previous domain.Key
		copy(previous[:], value.Previous)
		record.Previous = &previous
	}
	if value.RotatedAt != 0 {
		record.RotatedAt = time.Unix(0, value.RotatedAt).UTC()
	}
	return record, nil
}

// zapLogger routes Badger's internal logging through zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Errorf(format string, args ...interface{})   { l.s.Errorf(format, args...) }
func (l zapLogger) Warningf(format string, args ...interface{}) { l.s.Warnf(format, args...) }
func (l zapLogger) Infof(format string, args ...interface{})    { l.s.Debugf(format, args...) }
func (l zapLogger) Debugf(format string, args ...interface{})   { l.s.Debugf(format, args...) }
