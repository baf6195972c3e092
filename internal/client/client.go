package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/lina/internal/observability"
	"github.com/danmuck/lina/internal/protocol"
	"github.com/danmuck/lina/internal/protocol/frame"
	"github.com/danmuck/lina/internal/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	OpUpload   = "upload"
	OpDownload = "download"
	OpDelete   = "delete"
)

// Config names the server and bounds the transport.
type Config struct {
	Host      string
	Port      int
	Transport transport.Config
	Limits    frame.Limits
}

func DefaultConfig() Config {
	return Config{
		Host:      "127.0.0.1",
		Port:      8096,
		Transport: transport.DefaultConfig(),
		Limits:    frame.DefaultLimits(),
	}
}

// Address renders host:port.
func (c Config) Address() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrAddressRequired
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrAddressRequired, c.Port)
	}
	return nil
}

// Client is one LiNa connection handle plus the transaction engine on top.
type Client struct {
	cfg    Config
	conn   *Conn
	logger zerolog.Logger
}

// New builds a Client that dials plain TCP.
func New(cfg Config) (*Client, error) {
	return NewWithDialer(cfg, transport.NewTCPDialer(cfg.Transport))
}

// NewWithDialer builds a Client over an arbitrary transport.
func NewWithDialer(cfg Config, dialer transport.Dialer) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	addr := cfg.Address()
	return &Client{
		cfg:    cfg,
		conn:   NewConn(dialer, addr),
		logger: log.With().Str("component", "lina.client").Str("addr", addr).Logger(),
	}, nil
}

func (c *Client) Addr() string {
	return c.conn.Addr()
}

// State reports the connection handle state. Between calls it is always
// Disconnected.
func (c *Client) State() ConnState {
	return c.conn.State()
}

// Upload stores payload under name. Only the cover and compress bits of opts
// are honored; the write bit is always set.
func (c *Client) Upload(ctx context.Context, name string, payload []byte, opts protocol.Flags) error {
	flags := protocol.FlagWrite | opts&protocol.OptionMask
	_, err := c.run(ctx, OpUpload, name, flags, payload)
	return err
}

// Download fetches name. The body is returned only after its checksum
// verified; on any error it is nil.
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	return c.run(ctx, OpDownload, name, protocol.FlagRead, nil)
}

// Delete removes name on the server.
func (c *Client) Delete(ctx context.Context, name string) error {
	_, err := c.run(ctx, OpDelete, name, protocol.FlagDelete, nil)
	return err
}

func (c *Client) run(ctx context.Context, op, name string, flags protocol.Flags, payload []byte) ([]byte, error) {
	start := time.Now()
	tx := &transaction{op: op, name: name}
	body, err := c.transact(ctx, tx, flags, payload)
	observability.RecordOperation(op, KindName(err), time.Since(start), tx.sent, tx.received)

	if err != nil {
		c.logger.Warn().
			Str("op", op).
			Str("name", name).
			Str("kind", KindName(err)).
			Err(err).
			Msg("transaction failed")
		return nil, err
	}
	c.logger.Debug().
		Str("op", op).
		Str("name", name).
		Str("flags", flags.String()).
		Int64("sent", tx.sent).
		Int64("received", tx.received).
		Dur("duration", time.Since(start)).
		Msg("transaction complete")
	return body, nil
}

type transaction struct {
	op       string
	name     string
	sent     int64
	received int64
}

func (tx *transaction) fail(kind error, code int, cause error) *Error {
	return newError(tx.op, tx.name, kind, code, cause)
}

func (c *Client) transact(ctx context.Context, tx *transaction, flags protocol.Flags, payload []byte) ([]byte, error) {
	req, err := frame.BuildRequest(flags, tx.name, payload)
	if err != nil {
		switch {
		case errors.Is(err, protocol.ErrNameTooLong):
			return nil, tx.fail(ErrNameTooLong, 0, nil)
		case errors.Is(err, protocol.ErrPayloadTooLarge):
			return nil, tx.fail(ErrPayloadTooLarge, 0, nil)
		}
		return nil, tx.fail(ErrSendFailed, 0, err)
	}

	if err := c.conn.Connect(ctx); err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Op, cerr.Name = tx.op, tx.name
		}
		return nil, err
	}
	defer func() {
		_ = c.conn.Disconnect()
	}()

	ep, err := c.conn.endpoint()
	if err != nil {
		return nil, tx.fail(ErrNotConnected, 0, nil)
	}

	if err := c.send(ctx, tx, ep, req); err != nil {
		return nil, err
	}

	head, err := c.readHeader(ctx, tx, ep)
	if err != nil {
		return nil, err
	}
	if status := protocol.Status(head.Lead); !status.OK() {
		return nil, tx.fail(ErrServerError, int(status), nil)
	}
	if flags.Op() != protocol.FlagRead {
		return nil, nil
	}
	return c.readBody(ctx, tx, ep, head)
}

// send performs the gathered write. Anything short of the full frame fails
// the call; a partial write is never resumed.
func (c *Client) send(ctx context.Context, tx *transaction, ep transport.Endpoint, req frame.Request) error {
	want := int64(req.Size())
	n, err := ep.SendAll(ctx, req.Segments())
	tx.sent = n
	if err != nil {
		if n > 0 && n < want {
			return tx.fail(ErrPartialSend, transport.Errno(err), fmt.Errorf("sent %d of %d bytes: %w", n, want, err))
		}
		return tx.fail(ErrSendFailed, transport.Errno(err), err)
	}
	if n != want {
		return tx.fail(ErrPartialSend, 0, fmt.Errorf("sent %d of %d bytes", n, want))
	}
	return nil
}

func (c *Client) readHeader(ctx context.Context, tx *transaction, ep transport.Endpoint) (frame.Header, error) {
	buf := make([]byte, protocol.HeaderLen)
	n, err := io.ReadFull(transport.Reader(ctx, ep), buf)
	tx.received += int64(n)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return frame.Header{}, tx.fail(ErrConnectionClosed, 0, nil)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return frame.Header{}, tx.fail(ErrConnectionClosed, 0,
			fmt.Errorf("%w: got %d of %d bytes", protocol.ErrMalformedHeader, n, protocol.HeaderLen))
	default:
		return frame.Header{}, tx.fail(ErrRecvFailed, transport.Errno(err), err)
	}

	head, err := frame.ParseResponseHeader(buf)
	if err != nil {
		return frame.Header{}, tx.fail(ErrMalformedHeader, 0, err)
	}
	return head, nil
}

// readBody reads exactly head.Length bytes and verifies the response
// checksum over the echoed name, the length field and the body.
func (c *Client) readBody(ctx context.Context, tx *transaction, ep transport.Endpoint, head frame.Header) ([]byte, error) {
	if err := c.cfg.Limits.CheckBody(head.Length); err != nil {
		return nil, tx.fail(ErrBodyTooLarge, 0, err)
	}
	body := make([]byte, head.Length)
	n, err := io.ReadFull(transport.Reader(ctx, ep), body)
	tx.received += int64(n)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, tx.fail(ErrConnectionClosed, 0, fmt.Errorf("body: got 0 of %d bytes", head.Length))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, tx.fail(ErrIncompleteBody, 0, fmt.Errorf("got %d of %d bytes", n, head.Length))
	default:
		return nil, tx.fail(ErrRecvFailed, transport.Errno(err), err)
	}

	if err := head.Verify(body); err != nil {
		return nil, tx.fail(ErrChecksumMismatch, 0, err)
	}
	return body, nil
}
