package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrowFrameRoundTrip(t *testing.T) {
	frame, err := NarrowFrame(2, 9, []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x99, 2, 9}, frame[:3])

	index, total, payload, err := ParseNarrowFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Equal(t, 9, total)
	assert.Equal(t, []byte("payload"), payload)
}

func TestNarrowFrameRejectsInvalidHeaders(t *testing.T) {
	_, err := NarrowFrame(3, 3, nil)
	require.ErrorIs(t, err, ErrBadNarrowFrame)
	_, err = NarrowFrame(0, 256, nil)
	require.ErrorIs(t, err, ErrBadNarrowFrame)

	_, _, _, err = ParseNarrowFrame([]byte{0x98, 0, 1})
	require.ErrorIs(t, err, ErrBadNarrowFrame)
	_, _, _, err = ParseNarrowFrame([]byte{0x99, 1})
	require.ErrorIs(t, err, ErrBadNarrowFrame)
}
