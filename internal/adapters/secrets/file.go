package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/arbor-gateway/internal/ports"
)

var (
	ErrEmptySecret = errors.New("secret is empty")
	ErrExposedFile = errors.New("secret file is readable by group or others")
)

// File reads secrets stored one per file under root, for hosts without pass.
type File struct {
	root string
}

var _ ports.SecretSource = (*File)(nil)

func NewFile(root string) *File {
	return &File{root: filepath.Clean(root)}
}

func (f *File) Lookup(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := f.pathFor(ref)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file secret %q not found: %w", ref, err)
		}
		return "", fmt.Errorf("stat file secret %q: %w", ref, err)
	}
	if info.Mode().Perm()&0o077 != 0 {
		return "", fmt.Errorf("file secret %q (mode %#o): %w", ref, info.Mode().Perm(), ErrExposedFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file secret %q: %w", ref, err)
	}

	value := strings.TrimRight(string(data), "\r\n")
	if value == "" {
		return "", fmt.Errorf("file secret %q: %w", ref, ErrEmptySecret)
	}
	return value, nil
}

func (f *File) pathFor(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", errors.New("secret ref is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid secret ref %q", ref)
	}

	return filepath.Join(f.root, cleaned), nil
}
