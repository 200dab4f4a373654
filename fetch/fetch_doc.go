// Package fetch retrieves dataset content for the content-verification mode.
//
// A Factory resolves a dataset reference to a Fetcher by URI scheme:
//
//   - http://, https:// - plain HTTP GET, 2xx required
//   - s3://bucket/key - Amazon S3 or a compatible endpoint
//   - ipfs://<cid>[/path] - IPFS through a node's HTTP API
//   - file:///path - local file, only when explicitly enabled
//
// Every fetch is bounded by the factory timeout and by MaxBytes; content
// larger than MaxBytes fails with ErrContentTooLarge instead of being
// truncated, so a hash is never computed over partial content. Cancelling
// the context aborts the transfer.
package fetch
