package ports

import (
	"context"
	"time"
)

type Response struct {
	Success bool
	Code    uint8
	Payload []byte
}

// Transport performs one confirmable PUT exchange. Implementations never
// retransmit; retry policy belongs to the caller.
type Transport interface {
	Put(ctx context.Context, rawURL string, payload []byte, timeout time.Duration) (Response, error)
}
