package api

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sealtrust/nautilus-oracle/oracle"
)

// MaxRequestBodyBytes bounds JSON request bodies.
const MaxRequestBodyBytes = 1 << 20

// ProcessDataRequest is the body of POST /process_data.
type ProcessDataRequest struct {
	Payload oracle.DatasetRequest `json:"payload"`
}

// VerifyMetadataRequest is the body of POST /verify_metadata.
type VerifyMetadataRequest struct {
	Metadata oracle.MetadataRequest `json:"metadata"`
}

// ErrorResponse is returned with every non-2xx status. Kind is the
// snake_case oracle.Kind name; Retryable tells callers whether the same
// request may succeed later.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

// HealthCheckResponse is returned by GET /health_check.
type HealthCheckResponse struct {
	PublicKey       hexutil.Bytes   `json:"pk"`
	SuiAddress      string          `json:"sui_address"`
	AttestationType string          `json:"attestation_type"`
	EndpointsStatus map[string]bool `json:"endpoints_status"`
}
