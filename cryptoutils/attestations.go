package cryptoutils

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_client "github.com/google/go-tdx-guest/client"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
)

// maxQuoteSize bounds the body accepted from a remote quote provider.
const maxQuoteSize = 64 * 1024

var (
	NitroAttestation = AttestationType{StringID: "nitro"}
	DCAPAttestation  = AttestationType{StringID: "qemu-tdx"}
	DummyAttestation = AttestationType{StringID: "dummy"}
)

// ErrAttestationUnsupported is returned when the hardware interface a provider
// needs is not present on this host.
var ErrAttestationUnsupported = errors.New("attestation hardware not available")

type AttestationType struct {
	StringID string
}

func (t AttestationType) String() string { return t.StringID }

func AttestationTypeFromString(str string) (AttestationType, error) {
	switch str {
	case NitroAttestation.StringID:
		return NitroAttestation, nil
	case DCAPAttestation.StringID, "tdx":
		return DCAPAttestation, nil
	case DummyAttestation.StringID:
		return DummyAttestation, nil
	default:
		return AttestationType{}, errors.ErrUnsupported
	}
}

// AttestationRequest carries what the hardware should bind into the document.
type AttestationRequest struct {
	PublicKey ed25519.PublicKey
	UserData  []byte
	Nonce     []byte
}

// ReportData is the 64-byte TDX report data committing to the public key.
func (r AttestationRequest) ReportData() [64]byte {
	return sha512.Sum512(r.PublicKey)
}

// AttestationDocument is what GET /get_attestation returns: the raw hardware
// document plus the key it was issued for.
type AttestationDocument struct {
	Type      string        `json:"type"`
	Document  hexutil.Bytes `json:"attestation"`
	PublicKey hexutil.Bytes `json:"public_key"`
}

type AttestationProvider interface {
	AttestationType() AttestationType
	Attest(ctx context.Context, req AttestationRequest) ([]byte, error)
}

// RemoteAttestationProvider asks a quote service running next to the
// enclave, addressed as {Address}/attest/{hex report data}.
type RemoteAttestationProvider struct {
	Address string
	Client  *http.Client
}

func (*RemoteAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (p *RemoteAttestationProvider) Attest(ctx context.Context, req AttestationRequest) ([]byte, error) {
	reportData := req.ReportData()
	url := fmt.Sprintf("%s/attest/%s", strings.TrimSuffix(p.Address, "/"), hex.EncodeToString(reportData[:]))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building quote request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteSize))
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}

// DCAPAttestationProvider produces TDX quotes through configfs-tsm, falling
// back to the legacy /dev/tdx_guest device.
type DCAPAttestationProvider struct{}

func (DCAPAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (DCAPAttestationProvider) Attest(_ context.Context, req AttestationRequest) ([]byte, error) {
	reportData := req.ReportData()

	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttestationUnsupported, err)
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// VerifyDCAPAttestation checks a TDX quote against Intel collateral and that
// its report data commits to publicKey. It returns the measurement registers
// keyed as MRTD=0, RTMR0..3=1..4.
func VerifyDCAPAttestation(publicKey ed25519.PublicKey, report []byte) (map[int]string, error) {
	protoQuote, err := tdx_abi.QuoteToProto(report)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return nil, fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	if err := verify.TdxQuote(protoQuote, verify.DefaultOptions()); err != nil {
		return nil, fmt.Errorf("quote verification failed: %w", err)
	}

	expected := AttestationRequest{PublicKey: publicKey}.ReportData()
	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, expected[:]) {
		return nil, fmt.Errorf("invalid report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, expected[:])
	}

	measurements := map[int]string{
		0: hex.EncodeToString(v4Quote.TdQuoteBody.MrTd),
		1: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[0]),
		2: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[1]),
		3: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[2]),
		4: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[3]),
	}
	return measurements, nil
}
