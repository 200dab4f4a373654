// Package cryptoutils provides the hardware attestation providers and the
// hashing helpers used by the oracle.
//
// # Attestation providers
//
// Every provider implements AttestationProvider and binds the enclave's
// ephemeral Ed25519 public key into a hardware-signed document:
//
//   - NitroAttestationProvider: AWS Nitro Secure Module (/dev/nsm). The key is
//     embedded verbatim in the document's public_key field; PCR0..2 measure the
//     enclave image.
//   - DCAPAttestationProvider: Intel TDX quote. The 64-byte report data is
//     SHA-512(public key); MRTD and RTMRs measure the image.
//   - RemoteAttestationProvider: a quote service reachable over HTTP, used when
//     the process cannot open the quote device itself.
//   - DummyAttestationProvider: Nitro-shaped documents signed by a throwaway
//     key, for local development only.
//
// # Hashing
//
// ContentHash is SHA-256 over unencrypted dataset content; DecodeHexHash parses
// the caller-supplied hex digests compared against it.
package cryptoutils
