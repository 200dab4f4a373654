// Package bcs implements the subset of the Binary Canonical Serialization
// format needed to produce messages that the on-chain Move verifier decodes
// with its own bcs module.
//
// The layout rules are fixed:
//
//   - integers are fixed-width little-endian (u8, u64)
//   - byte strings are a ULEB128 length followed by the raw bytes
//   - enum variants are a single discriminant byte
//   - struct fields are written in declaration order with nothing in between
//
// Encoding never validates values. A value either has a MarshalBCS method
// that writes its fields in order, or it is not encodable.
package bcs
