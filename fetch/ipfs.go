package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	shell "github.com/ipfs/go-ipfs-api"
)

// IPFSFetcher reads ipfs://<cid>[/path] through an IPFS node's HTTP API.
type IPFSFetcher struct {
	shell    *shell.Shell
	apiAddr  string
	maxBytes int64
}

func NewIPFSFetcher(apiAddr string, maxBytes int64) *IPFSFetcher {
	return &IPFSFetcher{
		shell:    shell.NewShell(apiAddr),
		apiAddr:  apiAddr,
		maxBytes: maxBytes,
	}
}

func (b *IPFSFetcher) Name() string { return fmt.Sprintf("ipfs-%s", b.apiAddr) }

func (b *IPFSFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: expected ipfs://<cid>", ErrInvalidURI)
	}
	path := "/ipfs/" + u.Host
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		path += "/" + p
	}

	resp, err := b.shell.Request("cat", path).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer resp.Close()
	if resp.Error != nil {
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", resp.Error)
	}

	data, err := readLimited(resp.Output, b.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read data from IPFS: %w", err)
	}
	return data, nil
}
