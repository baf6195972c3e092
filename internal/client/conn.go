package client

import (
	"context"

	"github.com/danmuck/lina/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConnState is the lifecycle state of a connection handle.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Conn owns at most one live endpoint. Connect and Disconnect are idempotent.
type Conn struct {
	dialer transport.Dialer
	addr   string
	ep     transport.Endpoint
	logger zerolog.Logger
}

func NewConn(dialer transport.Dialer, addr string) *Conn {
	return &Conn{
		dialer: dialer,
		addr:   addr,
		logger: log.With().Str("component", "lina.conn").Str("addr", addr).Logger(),
	}
}

func (c *Conn) State() ConnState {
	if c.ep == nil {
		return Disconnected
	}
	return Connected
}

func (c *Conn) Addr() string {
	return c.addr
}

// Connect dials the server unless already connected. On failure the handle
// stays Disconnected.
func (c *Conn) Connect(ctx context.Context) error {
	if c.ep != nil {
		return nil
	}
	ep, err := c.dialer.Dial(ctx, c.addr)
	if err != nil {
		return newError("connect", "", ErrConnectFailed, transport.Errno(err), err)
	}
	c.ep = ep
	c.logger.Trace().Str("remote", ep.RemoteAddr()).Msg("connected")
	return nil
}

// Disconnect closes the endpoint unless already disconnected. The handle is
// Disconnected afterwards even when Close fails; the close error is returned
// for diagnostics only.
func (c *Conn) Disconnect() error {
	if c.ep == nil {
		return nil
	}
	ep := c.ep
	c.ep = nil
	if err := ep.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("close failed")
		return err
	}
	c.logger.Trace().Msg("disconnected")
	return nil
}

func (c *Conn) endpoint() (transport.Endpoint, error) {
	if c.ep == nil {
		return nil, ErrNotConnected
	}
	return c.ep, nil
}
