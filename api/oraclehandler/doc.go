// Package oraclehandler implements the oracle's HTTP endpoints and a client
// for them.
//
// The handler decodes requests, hands them to the content or metadata
// verifier and writes either the signed response or an api.ErrorResponse
// whose status follows the oracle error kind. The client performs the
// reverse and checks every signature it receives before returning, so a
// caller never sees an unverified response:
//
//	client := oraclehandler.NewClient("https://oracle.example.com")
//	doc, _ := client.GetAttestation(ctx)
//	// verify doc against the platform root of trust, then pin its key
//	client.PinnedKey = ed25519.PublicKey(doc.PublicKey)
//	resp, err := client.VerifyMetadata(ctx, claim)
package oraclehandler
