package application

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"
	"time"

	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/bnema/arbor-gateway/internal/wire"
	"go.uber.org/zap"
)

func Checksum(artifact []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(artifact))
}

// Package splits an artifact into ordered chunks and describes it with a
// manifest. Narrowband indices are single bytes, capping that mode at 255 chunks.
func Package(version string, artifact []byte, mode domain.ChunkMode) (domain.FirmwareManifest, []domain.FirmwareChunk, error) {
	if len(artifact) == 0 {
		return domain.FirmwareManifest{}, nil, errors.New("package artifact: artifact is empty")
	}
	if _, err := domain.ParseChunkMode(string(mode)); err != nil {
		return domain.FirmwareManifest{}, nil, fmt.Errorf("package artifact: %w", err)
	}

	size := mode.ChunkSize()
	total := (len(artifact) + size - 1) / size
	if mode == domain.ChunkModeNarrow && total > wire.MaxNarrowChunks {
		return domain.FirmwareManifest{}, nil, fmt.Errorf("package artifact: %d chunks: %w", total, domain.ErrArtifactTooLarge)
	}

	chunks := make([]domain.FirmwareChunk, 0, total)
	for i := 0; i < total; i++ {
		end := min((i+1)*size, len(artifact))
		chunks = append(chunks, domain.FirmwareChunk{
			Index:   i,
			Total:   total,
			Payload: append([]byte(nil), artifact[i*size:end]...),
		})
	}

	manifest := domain.FirmwareManifest{
		Version:     version,
		TotalSize:   len(artifact),
		Checksum:    Checksum(artifact),
		TotalChunks: total,
		ChunkSize:   size,
		Mode:        mode,
	}
	return manifest, chunks, nil
}

// Reassemble concatenates chunks after checking they form a complete sequence.
func Reassemble(chunks []domain.FirmwareChunk) ([]byte, error) {
	var out []byte
	for i, chunk := range chunks {
		if chunk.Index != i || chunk.Total != len(chunks) {
			return nil, fmt.Errorf("reassemble: chunk %d/%d at position %d", chunk.Index, chunk.Total, i)
		}
		out = append(out, chunk.Payload...)
	}
	return out, nil
}

func Verify(manifest domain.FirmwareManifest, artifact []byte) error {
	if len(artifact) != manifest.TotalSize {
		return fmt.Errorf("verify artifact: size %d, manifest says %d: %w", len(artifact), manifest.TotalSize, domain.ErrChecksumMismatch)
	}
	if sum := Checksum(artifact); sum != manifest.Checksum {
		return fmt.Errorf("verify artifact: checksum %s, manifest says %s: %w", sum, manifest.Checksum, domain.ErrChecksumMismatch)
	}
	return nil
}

// ChunkError reports the first chunk that failed; a transfer resumes from zero.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("transmit chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

type Progress func(sent, total int)

type Transmitter struct {
	transport ports.Transport
	timeout   time.Duration
	logger    *zap.Logger
	metrics   ports.Metrics
}

func NewTransmitter(transport ports.Transport, timeout time.Duration, logger *zap.Logger, metrics ports.Metrics) *Transmitter {
	if timeout <= 0 {
		timeout = DefaultTransportTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Transmitter{transport: transport, timeout: timeout, logger: logger, metrics: metrics}
}

// Transmit sends every chunk in order, one exchange at a time. Wide chunks are
// addressed with a chunk=<index> query, narrow chunks carry their own header.
func (t *Transmitter) Transmit(ctx context.Context, endpoint string, manifest domain.FirmwareManifest, chunks []domain.FirmwareChunk, progress Progress) error {
	if len(chunks) != manifest.TotalChunks {
		return fmt.Errorf("transmit %s: have %d chunks, manifest says %d", manifest.Version, len(chunks), manifest.TotalChunks)
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return &ChunkError{Index: chunk.Index, Err: err}
		}

		url, payload, err := chunkRequest(endpoint, manifest.Mode, chunk)
		if err != nil {
			return &ChunkError{Index: chunk.Index, Err: err}
		}

		response, err := t.transport.Put(ctx, url, payload, t.timeout)
		t.metrics.TransportResult("firmware", err)
		if err != nil {
			t.logger.Warn("chunk failed", zap.Int("chunk", chunk.Index), zap.Error(err))
			return &ChunkError{Index: chunk.Index, Err: err}
		}
		if !response.Success {
			return &ChunkError{Index: chunk.Index, Err: fmt.Errorf("code %d: %w", response.Code, domain.ErrRejected)}
		}

		if progress != nil {
			progress(chunk.Index+1, manifest.TotalChunks)
		}
	}

	t.logger.Info("firmware transmitted",
		zap.String("version", manifest.Version),
		zap.Int("chunks", manifest.TotalChunks),
	)
	return nil
}

func chunkRequest(endpoint string, mode domain.ChunkMode, chunk domain.FirmwareChunk) (string, []byte, error) {
	if mode == domain.ChunkModeNarrow {
		frame, err := wire.NarrowFrame(chunk.Index, chunk.Total, chunk.Payload)
		return endpoint, frame, err
	}
	return wire.WithQuery(endpoint, "chunk", strconv.Itoa(chunk.Index)), chunk.Payload, nil
}
