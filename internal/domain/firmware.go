package domain

import "fmt"

type ChunkMode string

const (
	ChunkModeWide   ChunkMode = "wide"
	ChunkModeNarrow ChunkMode = "narrow"

	WideChunkSize   = 512
	NarrowChunkSize = 13
)

func ParseChunkMode(raw string) (ChunkMode, error) {
	switch ChunkMode(raw) {
	case ChunkModeWide:
		return ChunkModeWide, nil
	case ChunkModeNarrow:
		return ChunkModeNarrow, nil
	default:
		return "", fmt.Errorf("unsupported chunk mode %q", raw)
	}
}

func (m ChunkMode) ChunkSize() int {
	if m == ChunkModeNarrow {
		return NarrowChunkSize
	}
	return WideChunkSize
}

type FirmwareManifest struct {
	Version     string    `json:"version"`
	TotalSize   int       `json:"total_size"`
	Checksum    string    `json:"checksum"`
	TotalChunks int       `json:"total_chunks"`
	ChunkSize   int       `json:"chunk_size"`
	Mode        ChunkMode `json:"mode"`
}

type FirmwareChunk struct {
	Index   int
	Total   int
	Payload []byte
}
