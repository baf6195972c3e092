package transport

import (
	"context"
	"errors"
	"io"
	"syscall"
)

// Endpoint is one connected byte stream. It is not safe for concurrent use.
type Endpoint interface {
	// SendAll writes bufs in order as one logical write and reports the
	// total bytes actually written.
	SendAll(ctx context.Context, bufs [][]byte) (int64, error)
	// Recv reads up to len(p) bytes. It returns 0, io.EOF once the peer closes.
	Recv(ctx context.Context, p []byte) (int, error)
	Close() error
	RemoteAddr() string
}

// Dialer opens a stream and connects it to addr.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Endpoint, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, addr string) (Endpoint, error)

func (f DialerFunc) Dial(ctx context.Context, addr string) (Endpoint, error) {
	return f(ctx, addr)
}

// Reader exposes ep.Recv as an io.Reader bound to ctx.
func Reader(ctx context.Context, ep Endpoint) io.Reader {
	return &endpointReader{ctx: ctx, ep: ep}
}

type endpointReader struct {
	ctx context.Context
	ep  Endpoint
}

func (r *endpointReader) Read(p []byte) (int, error) {
	return r.ep.Recv(r.ctx, p)
}

// Errno extracts the OS error code from err, or 0 when there is none.
func Errno(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
