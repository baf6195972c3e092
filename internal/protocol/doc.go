// Package protocol owns the LiNa wire contract and its codec primitives.
//
// Ownership boundary:
// - flag and status bytes
// - fixed field widths and offsets
// - integer and name field encoding
//
// Frame assembly and parsing live in protocol/frame; the CRC32 accumulator
// lives in protocol/checksum.
package protocol
