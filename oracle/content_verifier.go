package oracle

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/fetch"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/signer"
)

// Fetcher retrieves the content behind a dataset reference.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// ContentVerifier signs the SHA-256 of fetched dataset content.
type ContentVerifier struct {
	key     signer.KeyContext
	fetcher Fetcher
	clock   Clock
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewContentVerifier(key signer.KeyContext, fetcher Fetcher, clock Clock, log *slog.Logger, m *metrics.Metrics) *ContentVerifier {
	return &ContentVerifier{
		key:     key,
		fetcher: fetcher,
		clock:   clock,
		log:     log,
		metrics: m,
	}
}

func (*ContentVerifier) Mode() string { return ModeContent }

// Verify fetches req.DatasetURL and signs its hash. When req.ExpectedHash is
// set the content hash must equal it, otherwise nothing is signed.
func (v *ContentVerifier) Verify(ctx context.Context, req DatasetRequest) (*signer.ProcessedDataResponse[DatasetVerification], error) {
	datasetURL := strings.TrimSpace(req.DatasetURL)
	if datasetURL == "" {
		return nil, NewError(KindInvalidRequest, "dataset_url is required", nil)
	}

	var expected []byte
	if req.ExpectedHash != nil {
		var err error
		expected, err = cryptoutils.DecodeHexHash(*req.ExpectedHash)
		if err != nil {
			return nil, NewError(KindHashFormat, "invalid expected hash format", err)
		}
	}

	timestamp, err := nowMillis(v.clock)
	if err != nil {
		return nil, err
	}

	v.log.Info("Processing dataset", "url", datasetURL)

	content, err := v.fetcher.Fetch(ctx, datasetURL)
	if err != nil {
		return nil, fetchError(err)
	}
	if v.metrics != nil {
		v.metrics.FetchedBytes.Observe(float64(len(content)))
	}

	hash := cryptoutils.ContentHash(content)
	if expected != nil && !bytes.Equal(hash, expected) {
		v.log.Warn("Dataset hash mismatch",
			"url", datasetURL,
			"computed", hex.EncodeToString(hash),
			"expected", hex.EncodeToString(expected))
		return nil, NewError(KindHashMismatch, "dataset hash mismatch", nil)
	}

	v.log.Info("Dataset verified", "hash", hex.EncodeToString(hash), "size", len(content))

	return sign(v.key, v.metrics, ModeContent, DatasetVerification{
		DatasetHash:           hash,
		DatasetURL:            []byte(datasetURL),
		Format:                []byte(req.Format),
		SchemaVersion:         []byte(req.SchemaVersion),
		VerificationTimestamp: timestamp,
	}, timestamp), nil
}

// fetchError separates references the oracle can never serve from upstream
// failures that may clear on retry.
func fetchError(err error) error {
	switch {
	case errors.Is(err, fetch.ErrUnsupportedScheme), errors.Is(err, fetch.ErrInvalidURI):
		return NewError(KindInvalidRequest, "invalid dataset_url", err)
	case errors.Is(err, fetch.ErrContentTooLarge):
		return NewError(KindContentTooLarge, "dataset too large", err)
	default:
		return NewError(KindFetchFailed, "failed to fetch dataset", err)
	}
}
