package oraclehandler

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sealtrust/nautilus-oracle/api"
	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/oracle"
	"github.com/sealtrust/nautilus-oracle/signer"
)

// maxResponseBytes bounds responses read by the client.
const maxResponseBytes = 4 << 20

// APIError is a non-2xx answer from the oracle.
type APIError struct {
	StatusCode int
	Response   api.ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response.Kind != "" {
		return fmt.Sprintf("oracle returned %d (%s): %s", e.StatusCode, e.Response.Kind, e.Response.Error)
	}
	return fmt.Sprintf("oracle returned %d: %s", e.StatusCode, e.Response.Error)
}

// Client calls the oracle API and checks every signed response against the
// public key it carries before returning it.
type Client struct {
	BaseURL string
	Client  *http.Client

	// PinnedKey, when set, must equal the public key of every signed
	// response. The client does not check where the key came from; callers
	// pin a key only after verifying the attestation that binds it.
	PinnedKey ed25519.PublicKey
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  http.DefaultClient,
	}
}

// ProcessData asks the oracle to fetch, hash and sign a dataset.
func (c *Client) ProcessData(ctx context.Context, req oracle.DatasetRequest) (*signer.ProcessedDataResponse[oracle.DatasetVerification], error) {
	var resp signer.ProcessedDataResponse[oracle.DatasetVerification]
	if err := c.do(ctx, http.MethodPost, "/process_data", api.ProcessDataRequest{Payload: req}, &resp); err != nil {
		return nil, err
	}
	if err := checkSignature(c.PinnedKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMetadata asks the oracle to sign a metadata claim.
func (c *Client) VerifyMetadata(ctx context.Context, req oracle.MetadataRequest) (*signer.ProcessedDataResponse[oracle.MetadataVerification], error) {
	var resp signer.ProcessedDataResponse[oracle.MetadataVerification]
	if err := c.do(ctx, http.MethodPost, "/verify_metadata", api.VerifyMetadataRequest{Metadata: req}, &resp); err != nil {
		return nil, err
	}
	if err := checkSignature(c.PinnedKey, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAttestation fetches a fresh attestation document. The caller verifies
// it against the platform's root of trust.
func (c *Client) GetAttestation(ctx context.Context) (*cryptoutils.AttestationDocument, error) {
	var doc cryptoutils.AttestationDocument
	if err := c.do(ctx, http.MethodGet, "/get_attestation", nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) HealthCheck(ctx context.Context) (*api.HealthCheckResponse, error) {
	var resp api.HealthCheckResponse
	if err := c.do(ctx, http.MethodGet, "/health_check", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func checkSignature[T bcs.Marshaler](pinned ed25519.PublicKey, resp *signer.ProcessedDataResponse[T]) error {
	if pinned != nil && !bytes.Equal(pinned, resp.PublicKey) {
		return fmt.Errorf("response signed by %x, expected %x", []byte(resp.PublicKey), []byte(pinned))
	}
	if err := signer.Verify(resp); err != nil {
		return fmt.Errorf("could not verify oracle signature: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not request oracle: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("could not read oracle response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(respBody, &apiErr.Response) != nil || apiErr.Response.Error == "" {
			apiErr.Response.Error = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse oracle response: %w", err)
	}
	return nil
}
