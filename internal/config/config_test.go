package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	v, cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, BackendTOML, cfg.Keys.Backend)
	assert.Equal(t, filepath.Join(home, ".arbor", "keys.toml"), cfg.Keys.Path)
	assert.Equal(t, 7*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, 5683, cfg.Transport.Port)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ARBOR_KEYS_PASSPHRASE", "from-env")

	path := filepath.Join(t.TempDir(), "gateway.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[keys]
backend = "badger"
master_key = "000102030405060708090a0b0c0d0e0f"

[transport]
timeout = "3s"

[ingest]
listen = "127.0.0.1:6000"

[[ingest.relays]]
addr = "10.0.0.5"
id = "relay-north"
`), 0o600))

	_, cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Keys.Backend)
	assert.Equal(t, "from-env", cfg.Keys.Passphrase)
	assert.Equal(t, 3*time.Second, cfg.Transport.Timeout)
	assert.Equal(t, "127.0.0.1:6000", cfg.Ingest.Listen)
	assert.Equal(t, map[string]string{"10.0.0.5": "relay-north"}, cfg.Ingest.RelayMap())

	key, err := cfg.Keys.MasterKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, 16)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, _, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ARBOR_KEYS_BACKEND", "etcd")

	_, _, err := Load("")
	require.ErrorContains(t, err, "keys.backend")
}

func TestMasterKeyBytesValidation(t *testing.T) {
	_, err := KeysConfig{}.MasterKeyBytes()
	require.Error(t, err)

	_, err = KeysConfig{MasterKey: "zz"}.MasterKeyBytes()
	require.Error(t, err)

	_, err = KeysConfig{MasterKey: "0001"}.MasterKeyBytes()
	require.Error(t, err)
}

func TestLoadRejectsIncompleteRelay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "gateway.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[ingest.relays]]\naddr = \"10.0.0.5\"\n"), 0o600))

	_, _, err := Load(path)
	require.ErrorContains(t, err, "ingest.relays[0]")
}
