// Package oracle implements the two verification modes that end in a signed
// response.
//
// ContentVerifier fetches the referenced dataset, hashes it, optionally
// compares the hash with one supplied by the caller and signs a
// DatasetVerification stamped with the server clock. MetadataVerifier signs a
// caller-assembled MetadataVerification after checking that every required
// field is present; it keeps the caller's timestamp and makes no claim about
// its freshness.
//
// Both verifiers implement Verifier and share the same signing path, so the
// envelope, scope and key handling cannot diverge between modes. Rejections
// are *Error values carrying a Kind.
package oracle
