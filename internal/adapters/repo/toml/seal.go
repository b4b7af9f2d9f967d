package toml

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/domain"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const saltSize = 16

// ErrWrongPassphrase is returned when a sealed key cannot be opened.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted key file")

type ScryptParams struct {
	N, R, P int
}

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1}
}

type sealer struct {
	aead cipher.AEAD
}

func newSealer(passphrase string, kdf kdfSchema) (*sealer, error) {
	salt, err := base64.StdEncoding.DecodeString(kdf.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode kdf salt: %w", err)
	}
	derived, err := scrypt.Key([]byte(passphrase), salt, kdf.N, kdf.R, kdf.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	aead, err := chacha20poly1305.New(derived)
	if err != nil {
		return nil, fmt.Errorf("init sealing cipher: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func newKDF(params ScryptParams) (kdfSchema, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return kdfSchema{}, fmt.Errorf("generate kdf salt: %w", err)
	}
	return kdfSchema{
		Salt: base64.StdEncoding.EncodeToString(salt),
		N:    params.N,
		R:    params.R,
		P:    params.P,
	}, nil
}

// seal binds the ciphertext to the device and slot so sealed values cannot be
// swapped between records.
func (s *sealer) seal(id domain.DeviceID, slot string, key domain.Key) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, key[:], associatedData(id, slot))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *sealer) open(id domain.DeviceID, slot, encoded string) (domain.Key, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < s.aead.NonceSize() {
		return domain.Key{}, ErrWrongPassphrase
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, associatedData(id, slot))
	if err != nil || len(plain) != domain.KeySize {
		return domain.Key{}, ErrWrongPassphrase
	}

	var key domain.Key
	copy(key[:], plain)
	return key, nil
}

func associatedData(id domain.DeviceID, slot string) []byte {
	return []byte(id.String() + "/" + slot)
}
