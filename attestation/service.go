// Package attestation binds the ephemeral public key to a document issued by
// the hardware root of trust.
package attestation

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"time"

	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/oracle"
)

// DefaultTimeout bounds a single hardware attestation request.
const DefaultTimeout = 10 * time.Second

type PublicKeyer interface {
	PublicKey() ed25519.PublicKey
}

// Service requests a fresh document for every call. Documents are never
// cached: the key only changes on restart, and a restart also discards the
// service, so a document for a previous key cannot be served.
type Service struct {
	key      PublicKeyer
	provider cryptoutils.AttestationProvider
	timeout  time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewService(key PublicKeyer, provider cryptoutils.AttestationProvider, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		key:      key,
		provider: provider,
		timeout:  timeout,
		log:      log,
		metrics:  m,
	}
}

// ProviderType names the configured hardware provider.
func (s *Service) ProviderType() string {
	return s.provider.AttestationType().StringID
}

// GetAttestation returns a document embedding the current public key. Any
// provider failure, including the timeout, is KindAttestationUnavailable.
func (s *Service) GetAttestation(ctx context.Context) (*cryptoutils.AttestationDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pub := s.key.PublicKey()
	start := time.Now()

	type result struct {
		doc []byte
		err error
	}
	done := make(chan result, 1)

	// Device ioctls do not observe ctx, so the call runs on its own goroutine
	// and is abandoned on timeout.
	go func() {
		doc, err := s.provider.Attest(ctx, cryptoutils.AttestationRequest{PublicKey: pub})
		done <- result{doc: doc, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if res.err != nil {
		s.observe("error", start)
		s.log.Error("Attestation request failed", "err", res.err, "provider", s.ProviderType(), "duration", time.Since(start))
		return nil, oracle.NewError(oracle.KindAttestationUnavailable, "could not obtain attestation document", res.err)
	}

	s.observe("ok", start)
	s.log.Debug("Attestation document issued", "provider", s.ProviderType(), "size", len(res.doc), "duration", time.Since(start))

	return &cryptoutils.AttestationDocument{
		Type:      s.ProviderType(),
		Document:  res.doc,
		PublicKey: []byte(pub),
	}, nil
}

func (s *Service) observe(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.AttestationLatency.WithLabelValues(s.ProviderType(), result).Observe(time.Since(start).Seconds())
}
