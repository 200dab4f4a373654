package attestation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/ephemeral"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) AttestationType() cryptoutils.AttestationType {
	return cryptoutils.NitroAttestation
}

func (m *MockProvider) Attest(ctx context.Context, req cryptoutils.AttestationRequest) ([]byte, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type blockingProvider struct{}

func (blockingProvider) AttestationType() cryptoutils.AttestationType {
	return cryptoutils.NitroAttestation
}

func (blockingProvider) Attest(context.Context, cryptoutils.AttestationRequest) ([]byte, error) {
	time.Sleep(time.Second)
	return []byte("late"), nil
}

func setup(t *testing.T) (*slog.Logger, *ephemeral.KeyContext) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	key, err := ephemeral.New(nil)
	require.NoError(t, err)
	return logger, key
}

func TestGetAttestation_DummyProvider(t *testing.T) {
	logger, key := setup(t)
	provider, err := cryptoutils.NewDummyAttestationProvider()
	require.NoError(t, err)

	svc := NewService(key, provider, 0, logger, nil)
	doc, err := svc.GetAttestation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "dummy", doc.Type)
	assert.Equal(t, []byte(key.PublicKey()), []byte(doc.PublicKey))

	parsed, err := provider.Verify(doc.Document)
	require.NoError(t, err)
	assert.Equal(t, []byte(key.PublicKey()), parsed.PublicKey)
}

func TestGetAttestation_FreshPerRequest(t *testing.T) {
	logger, key := setup(t)
	provider := new(MockProvider)
	provider.On("Attest", mock.Anything, cryptoutils.AttestationRequest{PublicKey: key.PublicKey()}).
		Return([]byte("doc"), nil).Twice()

	svc := NewService(key, provider, time.Second, logger, nil)
	_, err := svc.GetAttestation(context.Background())
	require.NoError(t, err)
	_, err = svc.GetAttestation(context.Background())
	require.NoError(t, err)

	provider.AssertExpectations(t)
}

func TestGetAttestation_ProviderFailure(t *testing.T) {
	logger, key := setup(t)
	provider := new(MockProvider)
	provider.On("Attest", mock.Anything, mock.Anything).
		Return(nil, cryptoutils.ErrAttestationUnsupported)

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("test", reg)

	svc := NewService(key, provider, time.Second, logger, m)
	_, err := svc.GetAttestation(context.Background())
	require.Error(t, err)

	kind, ok := oracle.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, oracle.KindAttestationUnavailable, kind)
	assert.True(t, errors.Is(err, cryptoutils.ErrAttestationUnsupported))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AttestationLatency))
}

func TestGetAttestation_Timeout(t *testing.T) {
	logger, key := setup(t)

	svc := NewService(key, blockingProvider{}, 20*time.Millisecond, logger, nil)
	start := time.Now()
	_, err := svc.GetAttestation(context.Background())
	require.Error(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	kind, _ := oracle.KindOf(err)
	assert.Equal(t, oracle.KindAttestationUnavailable, kind)
}
