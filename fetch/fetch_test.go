package fetch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(cfg Config) *Factory {
	return NewFactory(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFactory_FetcherFor(t *testing.T) {
	f := newTestFactory(Config{IPFSAPI: "localhost:5001"})

	tests := []struct {
		name    string
		uri     string
		backend string
		wantErr error
	}{
		{name: "http", uri: "http://example.com/data.csv", backend: "http"},
		{name: "https", uri: "https://example.com/data.csv", backend: "http"},
		{name: "uppercase scheme", uri: "HTTPS://example.com/data.csv", backend: "http"},
		{name: "s3", uri: "s3://bucket/path/data.csv", backend: "s3-us-east-1"},
		{name: "ipfs", uri: "ipfs://bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", backend: "ipfs-localhost:5001"},
		{name: "file disabled", uri: "file:///etc/passwd", wantErr: ErrUnsupportedScheme},
		{name: "unknown scheme", uri: "ftp://example.com/data.csv", wantErr: ErrUnsupportedScheme},
		{name: "no scheme", uri: "example.com/data.csv", wantErr: ErrUnsupportedScheme},
		{name: "http without host", uri: "http:///data.csv", wantErr: ErrInvalidURI},
		{name: "unparsable", uri: "http://[::1", wantErr: ErrInvalidURI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, _, err := f.FetcherFor(tt.uri)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, fetcher.Name())
		})
	}
}

func TestFactory_IPFSRequiresAPI(t *testing.T) {
	f := newTestFactory(Config{})
	_, _, err := f.FetcherFor("ipfs://bafy")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestFactory_Defaults(t *testing.T) {
	f := newTestFactory(Config{})
	assert.Equal(t, int64(DefaultMaxBytes), f.MaxBytes())
	assert.Equal(t, DefaultTimeout, f.cfg.Timeout)
}

func TestHTTPFetch(t *testing.T) {
	payload := []byte("id,value\n1,42\n")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data.csv":
			_, _ = w.Write(payload)
		case "/big":
			_, _ = w.Write(bytes.Repeat([]byte{'x'}, 2048))
		case "/chunked":
			// Flushing before the body is written forces chunked encoding
			// so no Content-Length is announced.
			w.(http.Flusher).Flush()
			_, _ = w.Write(bytes.Repeat([]byte{'y'}, 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := newTestFactory(Config{MaxBytes: 1024})

	data, err := f.Fetch(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(context.Background(), srv.URL+"/big")
	assert.ErrorIs(t, err, ErrContentTooLarge)

	_, err = f.Fetch(context.Background(), srv.URL+"/chunked")
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func TestHTTPFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFactory(Config{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHTTPFetch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFactory(Config{})
	_, err := f.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileFetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rows":3}`), 0o600))

	f := newTestFactory(Config{AllowFile: true, MaxBytes: 16})

	data, err := f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, `{"rows":3}`, string(data))

	_, err = f.Fetch(context.Background(), "file://"+filepath.Join(dir, "missing"))
	assert.Error(t, err)

	big := filepath.Join(dir, "big")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte{'z'}, 17), 0o600))
	_, err = f.Fetch(context.Background(), "file://"+big)
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(bytes.NewReader([]byte("abcd")), 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = readLimited(bytes.NewReader([]byte("abcde")), 4)
	assert.ErrorIs(t, err, ErrContentTooLarge)
}

func newS3TestFetcher(t *testing.T, srv *httptest.Server, maxBytes int64) *S3Fetcher {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	fetcher, err := NewS3Fetcher("", srv.URL, maxBytes)
	require.NoError(t, err)
	return fetcher
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestS3Fetch(t *testing.T) {
	content := []byte("id,label\n1,dog\n")
	var (
		mu        sync.Mutex
		requested []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/datasets/train/data.csv":
			_, _ = w.Write(content)
		case "/datasets/announced.csv":
			w.Header().Set("Content-Length", "4096")
			_, _ = w.Write(make([]byte, 4096))
		case "/datasets/chunked.csv":
			_, _ = w.Write(make([]byte, 64))
			w.(http.Flusher).Flush()
			_, _ = w.Write(make([]byte, 512))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
				`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		}
	}))
	defer srv.Close()

	fetcher := newS3TestFetcher(t, srv, 256)
	assert.Equal(t, "s3-us-east-1", fetcher.Name())

	data, err := fetcher.Fetch(context.Background(), mustParse(t, "s3://datasets/train/data.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, data)
	mu.Lock()
	assert.Contains(t, requested, "GET /datasets/train/data.csv")
	mu.Unlock()

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "s3://datasets/announced.csv"))
	assert.ErrorIs(t, err, ErrContentTooLarge)

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "s3://datasets/chunked.csv"))
	assert.ErrorIs(t, err, ErrContentTooLarge)

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "s3://datasets/missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datasets/missing.csv not found")
}

func TestS3Fetch_InvalidURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))
	defer srv.Close()

	fetcher := newS3TestFetcher(t, srv, 256)
	for _, raw := range []string{"s3://datasets", "s3://datasets/", "s3:///data.csv"} {
		_, err := fetcher.Fetch(context.Background(), mustParse(t, raw))
		assert.ErrorIs(t, err, ErrInvalidURI, raw)
	}
}

func TestIPFSFetch(t *testing.T) {
	content := bytes.Repeat([]byte("a"), 100)
	var (
		mu   sync.Mutex
		args []string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/cat" {
			http.NotFound(w, r)
			return
		}
		arg := r.URL.Query().Get("arg")
		mu.Lock()
		args = append(args, r.Method+" "+arg)
		mu.Unlock()
		if arg == "/ipfs/bafymissing" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"Message":"block was not found locally","Code":0,"Type":"error"}`))
			return
		}
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	addr := mustParse(t, srv.URL).Host

	fetcher := NewIPFSFetcher(addr, 500)
	assert.Equal(t, "ipfs-"+addr, fetcher.Name())

	data, err := fetcher.Fetch(context.Background(), mustParse(t, "ipfs://bafyabc/dir/file.csv"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "ipfs://bafyabc"))
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, []string{
		"POST /ipfs/bafyabc/dir/file.csv",
		"POST /ipfs/bafyabc",
	}, args)
	mu.Unlock()

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "ipfs://bafymissing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block was not found locally")

	_, err = NewIPFSFetcher(addr, 50).Fetch(context.Background(), mustParse(t, "ipfs://bafyabc/dir/file.csv"))
	assert.ErrorIs(t, err, ErrContentTooLarge)

	_, err = fetcher.Fetch(context.Background(), mustParse(t, "ipfs:///file.csv"))
	assert.ErrorIs(t, err, ErrInvalidURI)
}
