package cryptoutils

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/hf/nsm"
	"github.com/hf/nsm/request"
	"github.com/veraison/go-cose"
)

// Nitro limits each auxiliary field of an attestation request to 1024 bytes.
const nitroAuxFieldLen = 1024

// NitroDocument is the payload of an AWS Nitro attestation document.
type NitroDocument struct {
	ModuleID    string          `cbor:"module_id" json:"module_id"`
	Timestamp   uint64          `cbor:"timestamp" json:"timestamp"`
	Digest      string          `cbor:"digest" json:"digest"`
	PCRs        map[uint][]byte `cbor:"pcrs" json:"pcrs"`
	Certificate []byte          `cbor:"certificate" json:"certificate"`
	CABundle    [][]byte        `cbor:"cabundle" json:"cabundle"`
	PublicKey   []byte          `cbor:"public_key" json:"public_key,omitempty"`
	UserData    []byte          `cbor:"user_data" json:"user_data,omitempty"`
	Nonce       []byte          `cbor:"nonce" json:"nonce,omitempty"`
}

// ParseNitroDocument decodes the untagged COSE_Sign1 envelope and its CBOR
// payload. It does not check the signature or the certificate chain.
func ParseNitroDocument(raw []byte) (*NitroDocument, error) {
	var msg cose.UntaggedSign1Message
	if err := msg.UnmarshalCBOR(raw); err != nil {
		return nil, fmt.Errorf("decoding COSE_Sign1: %w", err)
	}

	var doc NitroDocument
	if err := cbor.Unmarshal(msg.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding attestation payload: %w", err)
	}
	return &doc, nil
}

// VerifyNitroDocument checks the COSE_Sign1 signature against the signing
// certificate carried in the document. When roots is non-nil the certificate
// must also chain to one of them through the document's CA bundle, evaluated
// at the document timestamp. With nil roots the signer's identity is
// unverified.
func VerifyNitroDocument(raw []byte, roots *x509.CertPool) (*NitroDocument, error) {
	var msg cose.UntaggedSign1Message
	if err := msg.UnmarshalCBOR(raw); err != nil {
		return nil, fmt.Errorf("decoding COSE_Sign1: %w", err)
	}

	var doc NitroDocument
	if err := cbor.Unmarshal(msg.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding attestation payload: %w", err)
	}

	leaf, err := x509.ParseCertificate(doc.Certificate)
	if err != nil {
		return nil, fmt.Errorf("parsing signing certificate: %w", err)
	}
	pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("signing certificate has %T key, want ECDSA", leaf.PublicKey)
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, pub)
	if err != nil {
		return nil, err
	}
	if err := (*cose.Sign1Message)(&msg).Verify(nil, verifier); err != nil {
		return nil, fmt.Errorf("attestation signature: %w", err)
	}

	if roots == nil {
		return &doc, nil
	}

	intermediates := x509.NewCertPool()
	for i, der := range doc.CABundle {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("parsing cabundle[%d]: %w", i, err)
		}
		intermediates.AddCert(cert)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		CurrentTime:   time.UnixMilli(int64(doc.Timestamp)),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}); err != nil {
		return nil, fmt.Errorf("signing certificate chain: %w", err)
	}
	return &doc, nil
}

func checkAuxFields(req AttestationRequest) error {
	if len(req.PublicKey) > nitroAuxFieldLen || len(req.UserData) > nitroAuxFieldLen || len(req.Nonce) > nitroAuxFieldLen {
		return fmt.Errorf("attestation auxiliary field exceeds %d bytes", nitroAuxFieldLen)
	}
	return nil
}

// NitroAttestationProvider talks to the Nitro Secure Module through /dev/nsm.
// The document embeds the public key verbatim and PCR0..2 measure the
// enclave image file.
type NitroAttestationProvider struct{}

func (NitroAttestationProvider) AttestationType() AttestationType { return NitroAttestation }

func (NitroAttestationProvider) Attest(_ context.Context, req AttestationRequest) ([]byte, error) {
	if err := checkAuxFields(req); err != nil {
		return nil, err
	}

	sess, err := nsm.OpenDefaultSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttestationUnsupported, err)
	}
	defer sess.Close()

	res, err := sess.Send(&request.Attestation{
		PublicKey: req.PublicKey,
		UserData:  req.UserData,
		Nonce:     req.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("nsm attestation request: %w", err)
	}
	if res.Error != "" {
		return nil, fmt.Errorf("nsm returned error: %s", res.Error)
	}
	if res.Attestation == nil || len(res.Attestation.Document) == 0 {
		return nil, errors.New("nsm returned no attestation document")
	}
	return res.Attestation.Document, nil
}

// DummyAttestationProvider builds Nitro-shaped documents signed by a key it
// generates itself, under a self-signed certificate that doubles as the CA
// bundle. PCRs are all zero, as on a Nitro enclave in debug mode.
// It exists so the API can be exercised outside an enclave and proves nothing.
type DummyAttestationProvider struct {
	cert   *x509.Certificate
	signer cose.Signer
	now    func() time.Time
}

func NewDummyAttestationProvider() (*DummyAttestationProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := cose.NewSigner(cose.AlgorithmES384, key)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(now.UnixNano()),
		Subject:               pkix.Name{CommonName: "dummy-enclave"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating dummy certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}

	return &DummyAttestationProvider{cert: cert, signer: signer, now: time.Now}, nil
}

// Roots returns a pool holding the provider's self-signed certificate.
func (p *DummyAttestationProvider) Roots() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(p.cert)
	return pool
}

func (*DummyAttestationProvider) AttestationType() AttestationType { return DummyAttestation }

func (p *DummyAttestationProvider) Attest(_ context.Context, req AttestationRequest) ([]byte, error) {
	if err := checkAuxFields(req); err != nil {
		return nil, err
	}

	pcrs := make(map[uint][]byte, 3)
	for i := uint(0); i < 3; i++ {
		pcrs[i] = make([]byte, sha512.Size384)
	}

	payload, err := cbor.Marshal(NitroDocument{
		ModuleID:    "i-dummy-enc0000000000000",
		Timestamp:   uint64(p.now().UnixMilli()),
		Digest:      "SHA384",
		PCRs:        pcrs,
		Certificate: p.cert.Raw,
		CABundle:    [][]byte{p.cert.Raw},
		PublicKey:   req.PublicKey,
		UserData:    req.UserData,
		Nonce:       req.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding attestation payload: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmES384)
	msg.Payload = payload
	if err := msg.Sign(rand.Reader, nil, p.signer); err != nil {
		return nil, fmt.Errorf("signing attestation document: %w", err)
	}

	untagged := cose.UntaggedSign1Message(*msg)
	return untagged.MarshalCBOR()
}

// Verify checks a document produced by this provider and returns its payload.
func (p *DummyAttestationProvider) Verify(raw []byte) (*NitroDocument, error) {
	return VerifyNitroDocument(raw, p.Roots())
}
