package blockcipher

import (
	"encoding/hex"
	"testing"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FIPS-197 appendix C.3 AES-256 vector.
func TestEncryptBlockMatchesFIPS197(t *testing.T) {
	key, err := domain.ParseKeyHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	plaintext, _ := hex.DecodeString("00112233445566778899aabbccddeeff")

	ciphertext, err := EncryptBlock(key, plaintext)
	require.NoError(t, err)
	assert.Equal(t, "8ea2b7ca516745bfeafc49904b496089", hex.EncodeToString(ciphertext))

	back, err := DecryptBlock(key, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, back)
}

func TestBlockFunctionsRejectWrongLength(t *testing.T) {
	_, err := EncryptBlock(domain.Key{}, make([]byte, 15))
	require.Error(t, err)
	_, err = DecryptBlock(domain.Key{}, make([]byte, 17))
	require.Error(t, err)
}

func TestZeroPad(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "empty", in: 0, want: 16},
		{name: "partial", in: 5, want: 16},
		{name: "exact", in: 16, want: 16},
		{name: "spill", in: 17, want: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, ZeroPad(make([]byte, tt.in)), tt.want)
		})
	}
}

func TestEncryptPaddedRoundTrip(t *testing.T) {
	key := domain.Key{9, 9, 9}
	plaintext := []byte("CMD:WATER:30:0000002a")

	ciphertext, err := EncryptPadded(key, plaintext)
	require.NoError(t, err)
	assert.Len(t, ciphertext, 32)

	got, err := DecryptPadded(key, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestECBEncryptsIdenticalBlocksIdentically(t *testing.T) {
	key := domain.Key{1}
	ciphertext, err := EncryptPadded(key, make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, ciphertext[:16], ciphertext[16:])
}
