// Package config loads gateway settings from ~/.arbor/config.toml and ARBOR_*
// environment variables. Secrets such as the key-store passphrase and master
// key only ever arrive through here.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".arbor"
	envPrefix  = "ARBOR"

	BackendTOML   = "toml"
	BackendBadger = "badger"
)

type Config struct {
	Keys      KeysConfig      `mapstructure:"keys"`
	Transport TransportConfig `mapstructure:"transport"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type KeysConfig struct {
	Backend    string `mapstructure:"backend"`
	Path       string `mapstructure:"path"`
	BadgerDir  string `mapstructure:"badger_dir"`
	Passphrase string `mapstructure:"passphrase"`
	MasterKey  string `mapstructure:"master_key"`
	// PassphraseRef and MasterKeyRef name entries in pass, or files under
	// SecretsDir, used when the literal values are unset.
	PassphraseRef string `mapstructure:"passphrase_ref"`
	MasterKeyRef  string `mapstructure:"master_key_ref"`
	SecretsDir    string `mapstructure:"secrets_dir"`
}

// MasterKeyBytes decodes the Badger encryption key.
func (k KeysConfig) MasterKeyBytes() ([]byte, error) {
	if k.MasterKey == "" {
		return nil, errors.New("keys.master_key is required for the badger backend")
	}
	key, err := hex.DecodeString(strings.TrimSpace(k.MasterKey))
	if err != nil {
		return nil, errors.New("keys.master_key is not valid hex")
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("keys.master_key must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}

type TransportConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Port    int           `mapstructure:"port"`
}

type IngestConfig struct {
	Listen string        `mapstructure:"listen"`
	Relays []RelayConfig `mapstructure:"relays"`
}

// RelayConfig names a relay by its sender address, either host or host:port.
// A list rather than a table because viper splits keys on dots.
type RelayConfig struct {
	Addr string `mapstructure:"addr"`
	ID   string `mapstructure:"id"`
}

func (c IngestConfig) RelayMap() map[string]string {
	relays := make(map[string]string, len(c.Relays))
	for _, relay := range c.Relays {
		relays[relay.Addr] = relay.ID
	}
	return relays
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the config file at path, or ~/.arbor/config.toml when path is
// empty. A missing default file is not an error; a missing explicit one is.
func Load(path string) (*viper.Viper, Config, error) {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	setDefaults(v, filepath.Join(homeDir, configDir))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(filepath.Join(homeDir, configDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, Config{}, err
	}
	return v, cfg, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("keys.backend", BackendTOML)
	v.SetDefault("keys.path", filepath.Join(dir, "keys.toml"))
	v.SetDefault("keys.badger_dir", filepath.Join(dir, "keys.db"))
	v.SetDefault("keys.passphrase", "")
	v.SetDefault("keys.master_key", "")
	v.SetDefault("keys.passphrase_ref", "")
	v.SetDefault("keys.master_key_ref", "")
	v.SetDefault("keys.secrets_dir", filepath.Join(dir, "secrets"))
	v.SetDefault("transport.timeout", 7*time.Second)
	v.SetDefault("transport.port", 5683)
	v.SetDefault("ingest.listen", ":5683")
	v.SetDefault("nats.url", "")
	v.SetDefault("metrics.listen", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func (c Config) validate() error {
	switch c.Keys.Backend {
	case BackendTOML, BackendBadger:
	default:
		return fmt.Errorf("keys.backend must be %q or %q, got %q", BackendTOML, BackendBadger, c.Keys.Backend)
	}
	if c.Transport.Timeout <= 0 {
		return fmt.Errorf("transport.timeout must be positive, got %s", c.Transport.Timeout)
	}
	if c.Transport.Port <= 0 || c.Transport.Port > 65535 {
		return fmt.Errorf("transport.port out of range: %d", c.Transport.Port)
	}
	for i, relay := range c.Ingest.Relays {
		if relay.Addr == "" || relay.ID == "" {
			return fmt.Errorf("ingest.relays[%d] needs both addr and id", i)
		}
	}
	return nil
}
