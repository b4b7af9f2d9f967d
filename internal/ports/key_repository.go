package ports

import (
	"context"

	"github.com/bnema/arbor-gateway/internal/domain"
)

// KeyRepository persists device key records. Save must replace a record
// atomically so readers observe either the old or the new key pair.
type KeyRepository interface {
	Get(ctx context.Context, id domain.DeviceID) (domain.DeviceKeyRecord, error)
	List(ctx context.Context) ([]domain.DeviceKeyRecord, error)
	Save(ctx context.Context, record domain.DeviceKeyRecord) error
}
