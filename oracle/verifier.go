package oracle

import (
	"context"

	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/sealtrust/nautilus-oracle/intent"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/signer"
)

// Verification modes, used as metric labels and in logs.
const (
	ModeContent  = "content"
	ModeMetadata = "metadata"
)

// Verifier turns a request into a signed response or rejects it with an
// *Error.
type Verifier[R any, T bcs.Marshaler] interface {
	Verify(ctx context.Context, req R) (*signer.ProcessedDataResponse[T], error)
	Mode() string
}

// sign is the one signing path shared by every verifier.
func sign[T bcs.Marshaler](key signer.KeyContext, m *metrics.Metrics, mode string, payload T, timestampMs uint64) *signer.ProcessedDataResponse[T] {
	resp := signer.ToSignedResponse(key, payload, timestampMs, intent.ProcessData)
	if m != nil {
		m.SignedResponses.WithLabelValues(mode).Inc()
	}
	return resp
}

var (
	_ Verifier[DatasetRequest, DatasetVerification]   = (*ContentVerifier)(nil)
	_ Verifier[MetadataRequest, MetadataVerification] = (*MetadataVerifier)(nil)
)
