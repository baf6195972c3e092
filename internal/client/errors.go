package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/lina/internal/protocol"
)

var (
	ErrNameTooLong      = protocol.ErrNameTooLong
	ErrMalformedHeader  = protocol.ErrMalformedHeader
	ErrPayloadTooLarge  = protocol.ErrPayloadTooLarge
	ErrChecksumMismatch = protocol.ErrChecksumMismatch
	ErrBodyTooLarge     = protocol.ErrBodyTooLarge

	ErrAddressRequired  = errors.New("client: server address required")
	ErrConnectFailed    = errors.New("client: connect failed")
	ErrNotConnected     = errors.New("client: not connected")
	ErrSendFailed       = errors.New("client: send failed")
	ErrPartialSend      = errors.New("client: partial send")
	ErrRecvFailed       = errors.New("client: receive failed")
	ErrConnectionClosed = errors.New("client: connection closed by peer")
	ErrIncompleteBody   = errors.New("client: incomplete body")
	ErrServerError      = errors.New("client: server error")
)

var kindNames = []struct {
	kind error
	name string
}{
	{ErrNameTooLong, "name_too_long"},
	{ErrPayloadTooLarge, "payload_too_large"},
	{ErrConnectFailed, "connect_failed"},
	{ErrNotConnected, "not_connected"},
	{ErrSendFailed, "send_failed"},
	{ErrPartialSend, "partial_send"},
	{ErrRecvFailed, "recv_failed"},
	{ErrConnectionClosed, "connection_closed"},
	{ErrIncompleteBody, "incomplete_body"},
	{ErrMalformedHeader, "malformed_header"},
	{ErrBodyTooLarge, "body_too_large"},
	{ErrServerError, "server_error"},
	{ErrChecksumMismatch, "checksum_mismatch"},
}

// Error is the failure half of every operation result.
type Error struct {
	Op   string
	Name string
	Kind error
	// Code is the OS error number for transport failures and the status
	// byte for ErrServerError. Zero when not applicable.
	Code int
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Name != "" {
		fmt.Fprintf(&b, " %q", e.Name)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	switch {
	case e.Kind == ErrServerError:
		fmt.Fprintf(&b, " status=%s(%d)", protocol.Status(e.Code), e.Code)
	case e.Code != 0:
		fmt.Fprintf(&b, " code=%d", e.Code)
	}
	if e.Err != nil && e.Err != e.Kind {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Status returns the server status for ErrServerError failures.
func (e *Error) Status() (protocol.Status, bool) {
	if e.Kind != ErrServerError {
		return 0, false
	}
	return protocol.Status(e.Code), true
}

// StatusOf extracts the server status from err, if it carries one.
func StatusOf(err error) (protocol.Status, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.Status()
}

// KindName renders err as a short label; nil is "ok".
func KindName(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if errors.As(err, &e) {
		err = e.Kind
	}
	for _, k := range kindNames {
		if errors.Is(err, k.kind) {
			return k.name
		}
	}
	return "unknown"
}

func newError(op, name string, kind error, code int, cause error) *Error {
	return &Error{Op: op, Name: name, Kind: kind, Code: code, Err: cause}
}
