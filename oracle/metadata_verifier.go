package oracle

import (
	"context"
	"log/slog"

	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/signer"
)

// MetadataVerifier signs caller-assembled metadata claims without fetching
// anything. The envelope timestamp is the claim's own VerificationTimestamp.
type MetadataVerifier struct {
	key     signer.KeyContext
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewMetadataVerifier(key signer.KeyContext, log *slog.Logger, m *metrics.Metrics) *MetadataVerifier {
	return &MetadataVerifier{key: key, log: log, metrics: m}
}

func (*MetadataVerifier) Mode() string { return ModeMetadata }

func (v *MetadataVerifier) Verify(_ context.Context, req MetadataRequest) (*signer.ProcessedDataResponse[MetadataVerification], error) {
	payload, err := req.Payload()
	if err != nil {
		return nil, err
	}

	v.log.Info("Metadata verified",
		"dataset_id", req.DatasetID,
		"walrus_blob_id", req.WalrusBlobID,
		"size", req.Size)

	return sign(v.key, v.metrics, ModeMetadata, payload, req.VerificationTimestamp), nil
}
