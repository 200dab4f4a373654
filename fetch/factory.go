package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 256 << 20
)

var (
	ErrContentTooLarge   = errors.New("content exceeds maximum size")
	ErrUnsupportedScheme = errors.New("unsupported dataset URI scheme")
	ErrInvalidURI        = errors.New("invalid dataset URI")
)

// Fetcher retrieves the full content addressed by u.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
	Name() string
}

type Config struct {
	Timeout  time.Duration
	MaxBytes int64

	// AllowFile enables file:// references. Off in production: the dataset
	// must come from a location the caller cannot control on the host.
	AllowFile bool

	S3Region   string
	S3Endpoint string

	// IPFSAPI is the host:port of an IPFS node's HTTP API.
	IPFSAPI string

	HTTPClient *http.Client
}

// Factory creates fetchers from dataset URIs. Backends are created lazily and
// shared between requests.
type Factory struct {
	cfg Config
	log *slog.Logger

	httpFetcher *HTTPFetcher

	mu   sync.Mutex
	s3   *S3Fetcher
	ipfs *IPFSFetcher
}

func NewFactory(cfg Config, log *slog.Logger) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Factory{
		cfg:         cfg,
		log:         log,
		httpFetcher: NewHTTPFetcher(cfg.HTTPClient, cfg.Timeout, cfg.MaxBytes),
	}
}

// MaxBytes is the effective size limit.
func (f *Factory) MaxBytes() int64 {
	return f.cfg.MaxBytes
}

// FetcherFor parses rawURI and returns the fetcher for its scheme.
func (f *Factory) FetcherFor(rawURI string) (Fetcher, *url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURI))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return nil, nil, fmt.Errorf("%w: missing host", ErrInvalidURI)
		}
		return f.httpFetcher, u, nil
	case "s3":
		fetcher, err := f.s3Fetcher()
		return fetcher, u, err
	case "ipfs":
		fetcher, err := f.ipfsFetcher()
		return fetcher, u, err
	case "file":
		if !f.cfg.AllowFile {
			return nil, nil, fmt.Errorf("%w: file", ErrUnsupportedScheme)
		}
		return NewFileFetcher(f.cfg.MaxBytes), u, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// Fetch resolves rawURI and retrieves it within the configured timeout.
func (f *Factory) Fetch(ctx context.Context, rawURI string) ([]byte, error) {
	fetcher, u, err := f.FetcherFor(rawURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	start := time.Now()
	data, err := fetcher.Fetch(ctx, u)
	if err != nil {
		f.log.Warn("Dataset fetch failed",
			slog.String("backend", fetcher.Name()),
			slog.String("uri", redact(u)),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, err
	}

	f.log.Debug("Fetched dataset",
		slog.String("backend", fetcher.Name()),
		slog.String("uri", redact(u)),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

func (f *Factory) s3Fetcher() (*S3Fetcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.s3 == nil {
		fetcher, err := NewS3Fetcher(f.cfg.S3Region, f.cfg.S3Endpoint, f.cfg.MaxBytes)
		if err != nil {
			return nil, err
		}
		f.s3 = fetcher
	}
	return f.s3, nil
}

func (f *Factory) ipfsFetcher() (*IPFSFetcher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ipfs == nil {
		if f.cfg.IPFSAPI == "" {
			return nil, fmt.Errorf("%w: ipfs (no IPFS API configured)", ErrUnsupportedScheme)
		}
		f.ipfs = NewIPFSFetcher(f.cfg.IPFSAPI, f.cfg.MaxBytes)
	}
	return f.ipfs, nil
}

// readLimited reads r fully, failing once more than max bytes arrive.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (%d bytes)", ErrContentTooLarge, max)
	}
	return data, nil
}

// redact drops credentials and query parameters before logging a URI.
func redact(u *url.URL) string {
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}
