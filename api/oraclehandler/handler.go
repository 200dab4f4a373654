package oraclehandler

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sealtrust/nautilus-oracle/api"
	"github.com/sealtrust/nautilus-oracle/bcs"
	"github.com/sealtrust/nautilus-oracle/cryptoutils"
	"github.com/sealtrust/nautilus-oracle/metrics"
	"github.com/sealtrust/nautilus-oracle/oracle"
	"golang.org/x/sync/errgroup"
)

// probeTimeout bounds a single upstream reachability check.
const probeTimeout = 5 * time.Second

// KeyInfo exposes the public half of the ephemeral key.
type KeyInfo interface {
	PublicKey() ed25519.PublicKey
	SuiAddress() string
}

// Attestor issues attestation documents for the current key.
type Attestor interface {
	GetAttestation(ctx context.Context) (*cryptoutils.AttestationDocument, error)
	ProviderType() string
}

type (
	ContentVerifier  = oracle.Verifier[oracle.DatasetRequest, oracle.DatasetVerification]
	MetadataVerifier = oracle.Verifier[oracle.MetadataRequest, oracle.MetadataVerification]
)

// Handler serves the oracle API.
type Handler struct {
	key      KeyInfo
	content  ContentVerifier
	metadata MetadataVerifier
	attestor Attestor
	log      *slog.Logger
	metrics  *metrics.Metrics

	endpoints   []string
	probeClient *http.Client
}

// NewHandler creates the oracle API handler. m may be nil.
func NewHandler(key KeyInfo, content ContentVerifier, metadata MetadataVerifier, attestor Attestor, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		key:         key,
		content:     content,
		metadata:    metadata,
		attestor:    attestor,
		log:         log,
		metrics:     m,
		probeClient: &http.Client{Timeout: probeTimeout},
	}
}

// WithHealthEndpoints sets the upstream URLs probed by /health_check.
func (h *Handler) WithHealthEndpoints(endpoints []string) *Handler {
	h.endpoints = endpoints
	return h
}

// RegisterRoutes configures the HTTP router with the oracle endpoints:
//   - POST /process_data - fetch, hash and sign a dataset
//   - POST /verify_metadata - sign a metadata claim
//   - GET /get_attestation - attestation document for the signing key
//   - GET /health_check - key, address and upstream status
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/process_data", h.HandleProcessData)
	r.Post("/verify_metadata", h.HandleVerifyMetadata)
	r.Get("/get_attestation", h.HandleGetAttestation)
	r.Get("/health_check", h.HandleHealthCheck)
}

// HandleProcessData processes POST /process_data with an
// api.ProcessDataRequest body.
//
// Status codes:
//   - 200 OK: dataset fetched, hash matched (if given) and signed
//   - 400 Bad Request: malformed body or expected_hash
//   - 422 Unprocessable Entity: content hash differs from expected_hash
//   - 502 Bad Gateway: dataset could not be fetched
func (h *Handler) HandleProcessData(w http.ResponseWriter, r *http.Request) {
	serveVerification(h, w, r, h.content, func(body io.Reader) (oracle.DatasetRequest, error) {
		var req api.ProcessDataRequest
		err := json.NewDecoder(body).Decode(&req)
		return req.Payload, err
	})
}

// HandleVerifyMetadata processes POST /verify_metadata with an
// api.VerifyMetadataRequest body. A claim with any required field empty is
// rejected with 400 and nothing is signed.
func (h *Handler) HandleVerifyMetadata(w http.ResponseWriter, r *http.Request) {
	serveVerification(h, w, r, h.metadata, func(body io.Reader) (oracle.MetadataRequest, error) {
		var req api.VerifyMetadataRequest
		err := json.NewDecoder(body).Decode(&req)
		return req.Metadata, err
	})
}

func serveVerification[R any, T bcs.Marshaler](h *Handler, w http.ResponseWriter, r *http.Request, v oracle.Verifier[R, T], decode func(io.Reader) (R, error)) {
	req, err := decode(http.MaxBytesReader(w, r.Body, api.MaxRequestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, oracle.NewError(oracle.KindInvalidRequest, "request body too large", err))
			return
		}
		h.writeError(w, 0, oracle.NewError(oracle.KindInvalidRequest, "invalid request body", err))
		return
	}

	resp, err := v.Verify(r.Context(), req)
	if err != nil {
		h.log.Warn("Verification rejected", "mode", v.Mode(), "err", err)
		h.writeError(w, 0, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetAttestation returns a fresh attestation document binding the
// current public key. 503 when the hardware provider is unavailable.
func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	doc, err := h.attestor.GetAttestation(r.Context())
	if err != nil {
		h.writeError(w, 0, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// HandleHealthCheck reports the public key, its Sui address and whether each
// configured upstream endpoint answered with a 2xx status.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := make(map[string]bool, len(h.endpoints))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(r.Context())
	for _, endpoint := range h.endpoints {
		g.Go(func() error {
			ok := h.probe(ctx, endpoint)
			mu.Lock()
			status[endpoint] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	h.writeJSON(w, http.StatusOK, api.HealthCheckResponse{
		PublicKey:       []byte(h.key.PublicKey()),
		SuiAddress:      h.key.SuiAddress(),
		AttestationType: h.attestor.ProviderType(),
		EndpointsStatus: status,
	})
}

func (h *Handler) probe(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		h.log.Debug("Invalid health endpoint", "endpoint", endpoint, "err", err)
		return false
	}
	resp, err := h.probeClient.Do(req)
	if err != nil {
		h.log.Debug("Health endpoint unreachable", "endpoint", endpoint, "err", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// writeError maps err to its status and JSON body. A zero status is derived
// from the error kind; unclassified errors are 500.
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	body := api.ErrorResponse{Error: err.Error()}

	kind, ok := oracle.KindOf(err)
	if ok {
		body.Kind = kind.String()
		body.Retryable = kind.Retryable()
		if status == 0 {
			status = kind.StatusCode()
		}
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if h.metrics != nil {
		label := body.Kind
		if label == "" {
			label = "internal"
		}
		h.metrics.RejectedRequests.WithLabelValues(label).Inc()
	}

	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
