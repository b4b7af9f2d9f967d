package wire

import (
	"errors"
	"fmt"
)

const (
	NarrowMarker     = 0x99
	NarrowHeaderSize = 3
	MaxNarrowChunks  = 255
)

var ErrBadNarrowFrame = errors.New("invalid narrowband chunk frame")

// NarrowFrame prefixes a narrowband firmware chunk with [0x99][index][total].
func NarrowFrame(index, total int, payload []byte) ([]byte, error) {
	if index < 0 || total <= 0 || index >= total || total > MaxNarrowChunks {
		return nil, fmt.Errorf("narrow frame %d/%d: %w", index, total, ErrBadNarrowFrame)
	}
	out := make([]byte, 0, NarrowHeaderSize+len(payload))
	out = append(out, NarrowMarker, byte(index), byte(total))
	return append(out, payload...), nil
}

func ParseNarrowFrame(frame []byte) (index, total int, payload []byte, err error) {
	if len(frame) < NarrowHeaderSize || frame[0] != NarrowMarker {
		return 0, 0, nil, ErrBadNarrowFrame
	}
	index, total = int(frame[1]), int(frame[2])
	if total == 0 || index >= total {
		return 0, 0, nil, ErrBadNarrowFrame
	}
	return index, total, frame[NarrowHeaderSize:], nil
}
