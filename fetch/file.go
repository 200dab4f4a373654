package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

// FileFetcher reads file:///absolute/path. Development only.
type FileFetcher struct {
	maxBytes int64
}

func NewFileFetcher(maxBytes int64) *FileFetcher {
	return &FileFetcher{maxBytes: maxBytes}
}

func (*FileFetcher) Name() string { return "file" }

func (b *FileFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u.Path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI", ErrInvalidURI)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f, b.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
