package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastScrypt = WithScryptParams(ScryptParams{N: 16, R: 1, P: 1})

func newTestRepository(t *testing.T, keysPath, passphrase string) *Repository {
	t.Helper()
	config := viper.New()
	config.Set("keys.path", keysPath)
	config.Set("keys.passphrase", passphrase)

	repo, err := NewRepository(config, fastScrypt)
	require.NoError(t, err)
	return repo
}

func keyOf(fill byte) domain.Key {
	var key domain.Key
	for i := range key {
		key[i] = fill ^ byte(i)
	}
	return key
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	repo := newTestRepository(t, keysPath, "correct horse")

	previous := keyOf(0x11)
	rotatedAt := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)
	first := domain.DeviceKeyRecord{DeviceID: 0x2a, Current: keyOf(0x22), Previous: &previous, RotatedAt: rotatedAt}
	second := domain.DeviceKeyRecord{DeviceID: 0x00c0ffee, Current: keyOf(0x33)}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.Get(context.Background(), first.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.DeviceKeyRecord{first, second}, records)
}

func TestRepositorySaveReplacesRecord(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "keys.toml"), "pw")
	previous := keyOf(1)

	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 7, Current: keyOf(1)}))
	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 7, Current: keyOf(2), Previous: &previous}))
	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 7, Current: keyOf(2)}))

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, keyOf(2), records[0].Current)
	assert.Nil(t, records[0].Previous)
}

func TestRepositoryFileNeverHoldsRawKeys(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	repo := newTestRepository(t, keysPath, "pw")
	key := keyOf(0x5a)

	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 1, Current: key}))

	data, err := os.ReadFile(keysPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), key.Hex())
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "id = '00000001'")
}

func TestRepositoryWrongPassphrase(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	require.NoError(t, newTestRepository(t, keysPath, "right").Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 1, Current: keyOf(1)}))

	_, err := newTestRepository(t, keysPath, "wrong").Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrWrongPassphrase)
	assert.NotContains(t, err.Error(), keyOf(1).Hex())
}

func TestRepositorySealedValuesAreBoundToDevice(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	repo := newTestRepository(t, keysPath, "pw")
	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 1, Current: keyOf(1)}))

	data, err := os.ReadFile(keysPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(keysPath, []byte(strings.Replace(string(data), "'00000001'", "'00000002'", 1)), 0o600))

	_, err = repo.Get(context.Background(), 2)
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestNewRepositoryRequiresPassphrase(t *testing.T) {
	config := viper.New()
	config.Set("keys.path", filepath.Join(t.TempDir(), "keys.toml"))

	_, err := NewRepository(config)
	require.Error(t, err)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	config := viper.New()
	config.Set("keys.passphrase", "pw")
	repo, err := NewRepository(config, fastScrypt)
	require.NoError(t, err)

	require.NoError(t, repo.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: 1, Current: keyOf(1)}))

	keysPath := filepath.Join(homeDir, ".arbor", "keys.toml")
	assert.Equal(t, keysPath, repo.Path())
	info, err := os.Stat(keysPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "keys.toml"), "pw")

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = repo.Get(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	require.NoError(t, os.WriteFile(keysPath, []byte("devices = ["), 0o600))

	_, err := newTestRepository(t, keysPath, "pw").List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode keys file")
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "keys.toml"), "pw")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.DeviceKeyRecord{DeviceID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveBothDevices(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	repoA := newTestRepository(t, keysPath, "pw")
	repoB := newTestRepository(t, keysPath, "pw")

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoA.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: domain.DeviceID(0x1000 + i), Current: keyOf(byte(i))})
		}
	}()

	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repoB.Save(context.Background(), domain.DeviceKeyRecord{DeviceID: domain.DeviceID(0x2000 + i), Current: keyOf(byte(i))})
		}
	}()

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	records, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, perRepoWrites*2)
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	keysPath := filepath.Join(t.TempDir(), "keys.toml")
	require.NoError(t, os.WriteFile(keysPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"devices = []",
		"",
	}, "\n")), 0o600))

	_, err := newTestRepository(t, keysPath, "pw").List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported keys schema version")
}
