package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	keysPathKey       = "keys.path"
	keysPassphraseKey = "keys.passphrase"
	keysFileMode      = 0o600
	keysDirMode       = 0o700
	keysConfigDir     = ".arbor"
	keysConfigFile    = "keys.toml"
	tempFilePattern   = ".keys-*.toml.tmp"

	slotCurrent  = "current"
	slotPrevious = "previous"
)

// Repository keeps device key records in one TOML file. Every key is sealed
// with a passphrase-derived key; writes replace the file atomically.
type Repository struct {
	keysPath   string
	passphrase string
	params     ScryptParams
	mu         *sync.RWMutex

	sealerMu   sync.Mutex
	sealerSalt string
	sealer     *sealer
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.KeyRepository = (*Repository)(nil)

type Option func(*Repository)

func WithScryptParams(params ScryptParams) Option {
	return func(r *Repository) { r.params = params }
}

func NewRepository(cfg *viper.Viper, opts ...Option) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	keysPath := cfg.GetString(keysPathKey)
	if keysPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		keysPath = filepath.Join(homeDir, keysConfigDir, keysConfigFile)
	}

	passphrase := cfg.GetString(keysPassphraseKey)
	if passphrase == "" {
		return nil, errors.New("keys passphrase is empty")
	}

	keysPath, err := normalizeKeysPath(keysPath)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		keysPath:   keysPath,
		passphrase: passphrase,
		params:     DefaultScryptParams(),
		mu:         lockForPath(keysPath),
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *Repository) Path() string {
	return r.keysPath
}

func (r *Repository) Save(ctx context.Context, record domain.DeviceKeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if file.KDF.Salt == "" {
		if file.KDF, err = newKDF(r.params); err != nil {
			return err
		}
	}

	s, err := r.sealerFor(file.KDF)
	if err != nil {
		return err
	}
	encoded, err := toSchema(s, record)
	if err != nil {
		return err
	}

	updated := false
	for i := range file.Devices {
		if file.Devices[i].ID == encoded.ID {
			file.Devices[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Devices = append(file.Devices, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Get(ctx context.Context, id domain.DeviceID) (domain.DeviceKeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.DeviceKeyRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.DeviceKeyRecord{}, err
	}

	for _, entry := range file.Devices {
		if entry.ID != id.String() {
			continue
		}
		s, err := r.sealerFor(file.KDF)
		if err != nil {
			return domain.DeviceKeyRecord{}, err
		}
		return fromSchema(s, entry)
	}

	return domain.DeviceKeyRecord{}, domain.ErrDeviceNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.DeviceKeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}
	if len(file.Devices) == 0 {
		return []domain.DeviceKeyRecord{}, nil
	}

	s, err := r.sealerFor(file.KDF)
	if err != nil {
		return nil, err
	}

	records := make([]domain.DeviceKeyRecord, 0, len(file.Devices))
	for _, entry := range file.Devices {
		record, err := fromSchema(s, entry)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// sealerFor caches the derived key; scrypt runs once per salt.
func (r *Repository) sealerFor(kdf kdfSchema) (*sealer, error) {
	r.sealerMu.Lock()
	defer r.sealerMu.Unlock()

	if r.sealer != nil && r.sealerSalt == kdf.Salt {
		return r.sealer, nil
	}
	s, err := newSealer(r.passphrase, kdf)
	if err != nil {
		return nil, err
	}
	r.sealer, r.sealerSalt = s, kdf.Salt
	return s, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.keysPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read keys file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode keys file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizeKeysPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve keys path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.keysPath), keysDirMode); err != nil {
		return fmt.Errorf("create keys directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode keys file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.keysPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp keys file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp keys file: %w", err)
	}

	if err := tempFile.Chmod(keysFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp keys file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp keys file: %w", err)
	}

	if err := os.Rename(tempName, r.keysPath); err != nil {
		return fmt.Errorf("replace keys file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(r.keysPath, keysFileMode); err != nil {
		return fmt.Errorf("chmod keys file: %w", err)
	}

	return nil
}

func toSchema(s *sealer, record domain.DeviceKeyRecord) (deviceSchema, error) {
	current, err := s.seal(record.DeviceID, slotCurrent, record.Current)
	if err != nil {
		return deviceSchema{}, fmt.Errorf("seal key for %s: %w", record.DeviceID, err)
	}

	entry := deviceSchema{
		ID:        record.DeviceID.String(),
		Current:   current,
		RotatedAt: formatTime(record.RotatedAt),
	}
	if record.Previous != nil {
		if entry.Previous, err = s.seal(record.DeviceID, slotPrevious, *record.Previous); err != nil {
			return deviceSchema{}, fmt.Errorf("seal key for %s: %w", record.DeviceID, err)
		}
	}
	return entry, nil
}

func fromSchema(s *sealer, entry deviceSchema) (domain.DeviceKeyRecord, error) {
	id, err := domain.ParseDeviceID(entry.ID)
	if err != nil {
		return domain.DeviceKeyRecord{}, fmt.Errorf("decode keys file: %w", err)
	}

	current, err := s.open(id, slotCurrent, entry.Current)
	if err != nil {
		return domain.DeviceKeyRecord{}, fmt.Errorf("open key for %s: %w", id, err)
	}

	record := domain.DeviceKeyRecord{
		DeviceID:  id,
		Current:   current,
		RotatedAt: parseTime(entry.RotatedAt),
	}
	if entry.Previous != "" {
		previous, err := s.open(id, slotPrevious, entry.Previous)
		if err != nil {
			return domain.DeviceKeyRecord{}, fmt.Errorf("open key for %s: %w", id, err)
		}
		record.Previous = &previous
	}
	return record, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
