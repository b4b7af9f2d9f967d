package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	KDF     kdfSchema      `toml:"kdf"`
	Devices []deviceSchema `toml:"devices"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported keys schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// kdfSchema records the scrypt parameters the sealing key was derived with.
type kdfSchema struct {
	Salt string `toml:"salt"`
	N    int    `toml:"n"`
	R    int    `toml:"r"`
	P    int    `toml:"p"`
}

// deviceSchema stores each key sealed; the file never holds raw key bytes.
type deviceSchema struct {
	ID        string `toml:"id"`
	Current   string `toml:"current"`
	Previous  string `toml:"previous,omitempty"`
	RotatedAt string `toml:"rotated_at,omitempty"`
}
