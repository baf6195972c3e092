package protocol

import "errors"

var (
	ErrNameTooLong      = errors.New("protocol: name too long")
	ErrMalformedHeader  = errors.New("protocol: malformed header")
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrBodyTooLarge     = errors.New("protocol: body exceeds limit")
	ErrUnknownOperation = errors.New("protocol: unknown operation flags")
)
