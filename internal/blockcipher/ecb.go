// Package blockcipher implements the AES-256-ECB framing shared with the node
// firmware: one raw block per telemetry sub-record, zero padding for commands.
package blockcipher

import (
	"crypto/aes"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/domain"
)

const BlockSize = aes.BlockSize

func EncryptBlock(key domain.Key, plaintext []byte) ([]byte, error) {
	if len(plaintext) != BlockSize {
		return nil, fmt.Errorf("encrypt block: got %d bytes, want %d", len(plaintext), BlockSize)
	}
	return crypt(key, plaintext, true)
}

func DecryptBlock(key domain.Key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != BlockSize {
		return nil, fmt.Errorf("decrypt block: got %d bytes, want %d", len(ciphertext), BlockSize)
	}
	return crypt(key, ciphertext, false)
}

// EncryptPadded zero-pads plaintext to the block boundary and encrypts each
// block independently. Empty input yields one block of zeros.
func EncryptPadded(key domain.Key, plaintext []byte) ([]byte, error) {
	return crypt(key, ZeroPad(plaintext), true)
}

// DecryptPadded reverses EncryptPadded, trimming trailing zero bytes.
func DecryptPadded(key domain.Key, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("decrypt: length %d is not a positive multiple of %d", len(ciphertext), BlockSize)
	}
	plaintext, err := crypt(key, ciphertext, false)
	if err != nil {
		return nil, err
	}
	end := len(plaintext)
	for end > 0 && plaintext[end-1] == 0 {
		end--
	}
	return plaintext[:end], nil
}

func ZeroPad(data []byte) []byte {
	padded := len(data)
	if rem := padded % BlockSize; rem != 0 || padded == 0 {
		padded += BlockSize - rem
	}
	out := make([]byte, padded)
	copy(out, data)
	return out
}

func crypt(key domain.Key, in []byte, encrypt bool) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init aes: %w", err)
	}

	out := make([]byte, len(in))
	for off := 0; off < len(in); off += BlockSize {
		if encrypt {
			block.Encrypt(out[off:off+BlockSize], in[off:off+BlockSize])
		} else {
			block.Decrypt(out[off:off+BlockSize], in[off:off+BlockSize])
		}
	}
	return out, nil
}
