// Package main (cmd/oracle) runs the dataset verification oracle inside an
// enclave.
//
// At startup it generates the ephemeral Ed25519 signing key, selects the
// hardware attestation provider and only then starts serving. The key lives
// in memory for the lifetime of the process; after a restart the new public
// key has to be attested and registered on-chain again.
//
// Example usage inside a Nitro enclave:
//
//	oracle --listen-addr=0.0.0.0:3000 \
//	    --attestation-provider=nitro \
//	    --fetch-timeout=30s --fetch-max-bytes=268435456
//
// Local development without hardware:
//
//	oracle --attestation-provider=dummy --allow-file-fetch --log-debug
//
// Every flag can also be set through its ORACLE_* environment variable.
package main
