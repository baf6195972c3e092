package frame

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"

	"github.com/danmuck/lina/internal/protocol"
	"github.com/danmuck/lina/internal/protocol/checksum"
)

// DefaultMaxBodyBytes matches the store's default payload ceiling.
const DefaultMaxBodyBytes uint64 = 0x4000000

// Header is the fixed 0x108-byte prefix shared by requests and responses.
// Lead carries the flags byte on requests and the status byte on responses.
type Header struct {
	Lead     byte
	Name     []byte
	Length   uint32
	Checksum uint32
}

// Request is one outbound frame: flags, padded name, length, checksum and,
// for writes, the payload.
type Request struct {
	Header  Header
	Payload []byte
}

// Response is one inbound frame. Body is only meaningful on success.
type Response struct {
	Header Header
	Body   []byte
}

// Limits constrains body allocation while reading frames.
type Limits struct {
	MaxBodyBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: DefaultMaxBodyBytes}
}

// CheckBody rejects declared lengths above the limit. Zero disables it.
func (l Limits) CheckBody(length uint32) error {
	if l.MaxBodyBytes > 0 && uint64(length) > l.MaxBodyBytes {
		return fmt.Errorf("%w: %d > %d", protocol.ErrBodyTooLarge, length, l.MaxBodyBytes)
	}
	return nil
}

// BuildRequest frames one operation. The checksum covers the padded name,
// the length field and the payload, never the flags byte.
func BuildRequest(flags protocol.Flags, name string, payload []byte) (Request, error) {
	if flags.Op() != protocol.FlagWrite {
		payload = nil
	}
	h, err := newHeader(byte(flags), name, payload)
	if err != nil {
		return Request{}, err
	}
	return Request{Header: h, Payload: payload}, nil
}

// BuildResponse frames one reply. Non-success replies carry no body.
func BuildResponse(status protocol.Status, name string, body []byte) (Response, error) {
	if !status.OK() {
		body = nil
	}
	h, err := newHeader(byte(status), name, body)
	if err != nil {
		return Response{}, err
	}
	return Response{Header: h, Body: body}, nil
}

func newHeader(lead byte, name string, body []byte) (Header, error) {
	padded, err := protocol.PadName([]byte(name))
	if err != nil {
		return Header{}, err
	}
	if uint64(len(body)) > math.MaxUint32 {
		return Header{}, protocol.ErrPayloadTooLarge
	}
	h := Header{Lead: lead, Name: padded, Length: uint32(len(body))}
	h.Checksum = h.Sum(body)
	return h, nil
}

func (r Request) Flags() protocol.Flags {
	return protocol.Flags(r.Header.Lead)
}

// Segments returns the scatter-gather send list: flags, name, length and
// checksum trailer, then the payload for writes.
func (r Request) Segments() [][]byte {
	segs := r.Header.segments()
	if r.Flags().Op() == protocol.FlagWrite {
		segs = append(segs, r.Payload)
	}
	return segs
}

// Size is the total byte count Segments will put on the wire.
func (r Request) Size() int {
	return segmentsLen(r.Segments())
}

func (r Request) Bytes() []byte {
	return join(r.Segments())
}

func (r Response) Status() protocol.Status {
	return protocol.Status(r.Header.Lead)
}

func (r Response) Segments() [][]byte {
	segs := r.Header.segments()
	if len(r.Body) > 0 {
		segs = append(segs, r.Body)
	}
	return segs
}

func (r Response) Bytes() []byte {
	return join(r.Segments())
}

func (h Header) segments() [][]byte {
	trailer := make([]byte, protocol.LengthLen+protocol.ChecksumLen)
	protocol.PutUint32LE(trailer[:protocol.LengthLen], h.Length)
	protocol.PutUint32LE(trailer[protocol.LengthLen:], h.Checksum)
	return [][]byte{{h.Lead}, h.Name, trailer}
}

// Sum computes the checksum this header should carry for body.
func (h Header) Sum(body []byte) uint32 {
	crc := checksum.New()
	crc.Update(h.Name)
	crc.Update(protocol.EncodeUint(uint64(h.Length), protocol.LengthLen, true))
	crc.Update(body)
	return crc.Finalize()
}

// Verify recomputes the checksum over the received name, length and body.
func (h Header) Verify(body []byte) error {
	if got := h.Sum(body); got != h.Checksum {
		return fmt.Errorf("%w: computed=%#08x received=%#08x", protocol.ErrChecksumMismatch, got, h.Checksum)
	}
	return nil
}

func (h Header) NameString() string {
	return protocol.TrimName(h.Name)
}

func EncodeHeader(h Header) []byte {
	return join(h.segments())
}

// DecodeHeader parses the first 0x108 bytes of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < protocol.HeaderLen {
		return Header{}, fmt.Errorf("%w: got %d bytes, want %d", protocol.ErrMalformedHeader, len(b), protocol.HeaderLen)
	}
	name := make([]byte, protocol.NameLen)
	copy(name, b[protocol.NameOffset:protocol.LengthOffset])
	return Header{
		Lead:     b[protocol.FlagsOffset],
		Name:     name,
		Length:   protocol.Uint32LE(b[protocol.LengthOffset:protocol.ChecksumOffset]),
		Checksum: protocol.Uint32LE(b[protocol.ChecksumOffset:protocol.HeaderLen]),
	}, nil
}

// ParseResponseHeader decodes the fixed response prefix.
func ParseResponseHeader(b []byte) (Header, error) {
	return DecodeHeader(b)
}

// ReadRequest reads and verifies one request frame. A clean close before
// the first byte returns io.EOF.
func ReadRequest(r io.Reader, limits Limits) (Request, error) {
	var fixed [protocol.HeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Request{}, protocol.ErrMalformedHeader
		}
		return Request{}, err
	}
	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Request{}, err
	}
	req := Request{Header: h}
	switch req.Flags().Op() {
	case protocol.FlagWrite:
		if err := limits.CheckBody(h.Length); err != nil {
			return Request{}, err
		}
		req.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, req.Payload); err != nil {
			return Request{}, err
		}
	case protocol.FlagRead, protocol.FlagDelete:
	default:
		return Request{}, fmt.Errorf("%w: %#02x", protocol.ErrUnknownOperation, h.Lead)
	}
	if err := h.Verify(req.Payload); err != nil {
		return Request{}, err
	}
	return req, nil
}

// WriteResponse sends resp as one gathered write.
func WriteResponse(w io.Writer, resp Response) error {
	bufs := net.Buffers(resp.Segments())
	_, err := bufs.WriteTo(w)
	return err
}

func segmentsLen(segs [][]byte) int {
	n := 0
	for _, s := range segs {
		n += len(s)
	}
	return n
}

func join(segs [][]byte) []byte {
	out := make([]byte, 0, segmentsLen(segs))
	for _, s := range segs {
		out = append(out, s...)
	}
	return out
}
