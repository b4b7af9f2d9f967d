package ports

import "context"

// SecretSource resolves a named secret such as the key-store passphrase.
type SecretSource interface {
	Lookup(ctx context.Context, ref string) (string, error)
}
