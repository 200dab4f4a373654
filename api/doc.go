/*
Package api holds the wire types shared by the oracle's HTTP surface.

Subpackages:

1. server - HTTP server config and lifecycle: routing, CORS, health, drain and metrics
2. oraclehandler - the oracle endpoints and a Go client for them

# Endpoints

	POST /process_data      fetch, hash and sign a dataset (legacy mode)
	POST /verify_metadata   sign a caller-assembled metadata claim
	GET  /get_attestation   hardware document binding the signing key
	GET  /health_check      public key, address and upstream reachability
	GET  /health            plain "OK"

Successful verification responses carry the signed envelope, the signature
and the public key; byte fields are 0x-prefixed hex. Failures carry an
ErrorResponse whose kind separates caller faults (4xx) from environment
faults (5xx).
*/
package api
