package transport

import (
	"context"
	"net"
)

// TCPDialer dials plain TCP endpoints.
type TCPDialer struct {
	cfg Config
}

func NewTCPDialer(cfg Config) *TCPDialer {
	return &TCPDialer{cfg: cfg.WithDefaults()}
}

func (d *TCPDialer) Dial(ctx context.Context, addr string) (Endpoint, error) {
	dialer := net.Dialer{Timeout: d.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConnEndpoint(conn, d.cfg), nil
}

// ConnEndpoint adapts a net.Conn. On *net.TCPConn the gathered send is a
// single writev.
type ConnEndpoint struct {
	conn net.Conn
	cfg  Config
}

func NewConnEndpoint(conn net.Conn, cfg Config) *ConnEndpoint {
	return &ConnEndpoint{conn: conn, cfg: cfg.WithDefaults()}
}

func (e *ConnEndpoint) SendAll(ctx context.Context, bufs [][]byte) (int64, error) {
	ctxDeadline, ok := ctx.Deadline()
	if err := e.conn.SetWriteDeadline(deadline(ctxDeadline, ok, e.cfg.WriteTimeout)); err != nil {
		return 0, err
	}
	// WriteTo consumes the slice header it is called on.
	gathered := make(net.Buffers, len(bufs))
	copy(gathered, bufs)
	return gathered.WriteTo(e.conn)
}

func (e *ConnEndpoint) Recv(ctx context.Context, p []byte) (int, error) {
	ctxDeadline, ok := ctx.Deadline()
	if err := e.conn.SetReadDeadline(deadline(ctxDeadline, ok, e.cfg.ReadTimeout)); err != nil {
		return 0, err
	}
	return e.conn.Read(p)
}

func (e *ConnEndpoint) Close() error {
	return e.conn.Close()
}

func (e *ConnEndpoint) RemoteAddr() string {
	if addr := e.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
