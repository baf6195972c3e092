// Package transport owns the byte-stream capability set the LiNa client runs on.
//
// Ownership boundary:
// - dial (open + connect) to a host:port
// - gathered send reporting total bytes written
// - receive with io.Reader semantics (0, io.EOF when the peer closes)
// - close
package transport
