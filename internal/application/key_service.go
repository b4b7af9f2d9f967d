package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"go.uber.org/zap"
)

// KeyService owns the per-device key lifecycle. Rotation and grace-period
// clearing hold the device's write lock and key reads hold its read lock, so a
// decrypt sees either the full pre-rotation or post-rotation pair.
type KeyService struct {
	repo    ports.KeyRepository
	clock   ports.Clock
	random  io.Reader
	logger  *zap.Logger
	metrics ports.Metrics
	locks   sync.Map
}

type KeyServiceOption func(*KeyService)

func WithKeyRandom(r io.Reader) KeyServiceOption {
	return func(s *KeyService) { s.random = r }
}

func WithKeyLogger(logger *zap.Logger) KeyServiceOption {
	return func(s *KeyService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithKeyMetrics(m ports.Metrics) KeyServiceOption {
	return func(s *KeyService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewKeyService(repo ports.KeyRepository, clock ports.Clock, opts ...KeyServiceOption) *KeyService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	s := &KeyService{
		repo:    repo,
		clock:   clock,
		random:  rand.Reader,
		logger:  zap.NewNop(),
		metrics: ports.NopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register provisions a device with a freshly generated first key.
func (s *KeyService) Register(ctx context.Context, id domain.DeviceID) (domain.Key, error) {
	key, err := s.newKey()
	if err != nil {
		return domain.Key{}, err
	}
	if err := s.provision(ctx, id, key); err != nil {
		return domain.Key{}, err
	}
	return key, nil
}

// Import provisions a device with a key that already lives on its firmware,
// such as a per-deployment fleet key or a test fixture.
func (s *KeyService) Import(ctx context.Context, id domain.DeviceID, key domain.Key) error {
	if key == (domain.Key{}) {
		return fmt.Errorf("import device %s: key is all zeroes", id)
	}
	return s.provision(ctx, id, key)
}

func (s *KeyService) provision(ctx context.Context, id domain.DeviceID, key domain.Key) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.repo.Get(ctx, id); err == nil {
		return fmt.Errorf("register device %s: %w", id, domain.ErrDeviceExists)
	} else if !errors.Is(err, domain.ErrDeviceNotFound) {
		return fmt.Errorf("get device %s: %w", id, err)
	}

	record := domain.DeviceKeyRecord{DeviceID: id, Current: key, RotatedAt: s.clock.Now()}
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("save device %s: %w", id, err)
	}

	s.logger.Info("device registered", zap.Stringer("device", id))
	return nil
}

func (s *KeyService) ActiveKeys(ctx context.Context, id domain.DeviceID) (domain.KeySet, error) {
	mu := s.lockFor(id)
	mu.RLock()
	defer mu.RUnlock()

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.KeySet{}, fmt.Errorf("get device %s: %w", id, err)
	}
	return domain.KeySet{Current: record.Current, Previous: record.Previous}, nil
}

// Candidates lists the keys to try for id, newest first.
func (s *KeyService) Candidates(ctx context.Context, id domain.DeviceID) ([]domain.Key, error) {
	set, err := s.ActiveKeys(ctx, id)
	if err != nil {
		return nil, err
	}
	return set.Candidates(), nil
}

// Rotate installs a fresh current key and returns it.
func (s *KeyService) Rotate(ctx context.Context, id domain.DeviceID) (domain.Key, error) {
	set, err := s.RotateKeys(ctx, id)
	if err != nil {
		return domain.Key{}, err
	}
	return set.Current, nil
}

// RotateKeys rotates and returns the resulting pair in one critical section.
// The replaced key stays valid as previous until the grace period is cleared.
func (s *KeyService) RotateKeys(ctx context.Context, id domain.DeviceID) (domain.KeySet, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.KeySet{}, fmt.Errorf("rotate device %s: %w", id, err)
	}
	return s.rotateLocked(ctx, record)
}

// PendingKeyUpdate returns the pair a key update must carry. While a grace
// period is open the undelivered pair is returned unchanged, so resending
// never replaces the key the device still holds. Otherwise it rotates.
func (s *KeyService) PendingKeyUpdate(ctx context.Context, id domain.DeviceID) (domain.KeySet, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.KeySet{}, fmt.Errorf("rotate device %s: %w", id, err)
	}
	if record.Previous != nil {
		previous := *record.Previous
		s.logger.Info("key update pending, resending", zap.Stringer("device", id))
		return domain.KeySet{Current: record.Current, Previous: &previous}, nil
	}
	return s.rotateLocked(ctx, record)
}

func (s *KeyService) rotateLocked(ctx context.Context, record domain.DeviceKeyRecord) (domain.KeySet, error) {
	id := record.DeviceID
	key, err := s.newKey()
	if err != nil {
		return domain.KeySet{}, err
	}

	previous := record.Current
	record.Previous = &previous
	record.Current = key
	record.RotatedAt = s.clock.Now()

	if err := s.repo.Save(ctx, record); err != nil {
		return domain.KeySet{}, fmt.Errorf("save rotated device %s: %w", id, err)
	}

	s.metrics.KeyRotated()
	s.logger.Info("device key rotated", zap.Stringer("device", id))
	return domain.KeySet{Current: key, Previous: &previous}, nil
}

func (s *KeyService) ClearGracePeriod(ctx context.Context, id domain.DeviceID) error {
	return s.clearGrace(ctx, id, nil)
}

// ConfirmCurrent ends the grace period once the device proves it holds key.
// It does nothing when key is no longer current, so a confirmation racing a
// newer rotation cannot drop that rotation's previous key.
func (s *KeyService) ConfirmCurrent(ctx context.Context, id domain.DeviceID, key domain.Key) error {
	return s.clearGrace(ctx, id, &key)
}

func (s *KeyService) clearGrace(ctx context.Context, id domain.DeviceID, confirmed *domain.Key) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("clear grace period for %s: %w", id, err)
	}
	if record.Previous == nil {
		return nil
	}
	if confirmed != nil && *confirmed != record.Current {
		return nil
	}

	record.Previous = nil
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("save device %s: %w", id, err)
	}

	s.metrics.GraceCleared()
	s.logger.Info("grace period cleared", zap.Stringer("device", id))
	return nil
}

func (s *KeyService) List(ctx context.Context) ([]domain.DeviceKeyRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list device keys: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].DeviceID < records[j].DeviceID
	})
	return records, nil
}

func (s *KeyService) newKey() (domain.Key, error) {
	var key domain.Key
	if _, err := io.ReadFull(s.random, key[:]); err != nil {
		return domain.Key{}, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

func (s *KeyService) lockFor(id domain.DeviceID) *sync.RWMutex {
	v, _ := s.locks.LoadOrStore(id, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}
