package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/arbor-gateway/internal/ports"
)

// Chain asks each source in order and returns the first hit.
type Chain struct {
	sources []ports.SecretSource
}

var _ ports.SecretSource = (*Chain)(nil)

var errNoSources = errors.New("secret chain has no sources")

func NewChain(sources ...ports.SecretSource) (*Chain, error) {
	if len(sources) == 0 {
		return nil, errNoSources
	}
	for i, source := range sources {
		if source == nil {
			return nil, fmt.Errorf("secret source %d is nil", i)
		}
	}
	return &Chain{sources: sources}, nil
}

// NewPassFirstWithFileFallback tries pass, then files under fileRoot.
func NewPassFirstWithFileFallback(fileRoot string) *Chain {
	return &Chain{sources: []ports.SecretSource{NewPass(), NewFile(fileRoot)}}
}

func (c *Chain) Lookup(ctx context.Context, ref string) (string, error) {
	var errs []error
	for i, source := range c.sources {
		value, err := source.Lookup(ctx, ref)
		if err == nil {
			return value, nil
		}
		if shouldStop(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("source %d: %w", i, err))
	}

	return "", fmt.Errorf("lookup secret %q: %w", ref, errors.Join(errs...))
}

func shouldStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
