package frame

import (
	"bytes"
	"errors"
	"hash/crc32"
	"io"
	"strings"
	"testing"

	"github.com/danmuck/lina/internal/protocol"
)

func TestBuildUploadRequestLayout(t *testing.T) {
	payload := []byte{0x41, 0x42, 0x43}
	req, err := BuildRequest(protocol.FlagWrite, "a.txt", payload)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	segs := req.Segments()
	if len(segs) != 4 {
		t.Fatalf("segments=%d want=4", len(segs))
	}
	wire := req.Bytes()
	if len(wire) != 267 || req.Size() != 267 {
		t.Fatalf("wire len=%d size=%d want=267", len(wire), req.Size())
	}
	if wire[0] != 0x80 {
		t.Fatalf("flags=%#x", wire[0])
	}
	padded, _ := protocol.PadName([]byte("a.txt"))
	if !bytes.Equal(wire[1:256], padded) {
		t.Fatalf("name field mismatch")
	}
	if !bytes.Equal(wire[256:260], []byte{0x03, 0, 0, 0}) {
		t.Fatalf("length field=%x", wire[256:260])
	}
	want := crc32.ChecksumIEEE(append(append(append([]byte{}, padded...), 0x03, 0, 0, 0), payload...))
	if got := protocol.Uint32LE(wire[260:264]); got != want {
		t.Fatalf("checksum=%#08x want=%#08x", got, want)
	}
	if !bytes.Equal(wire[264:], payload) {
		t.Fatalf("payload=%x", wire[264:])
	}
}

func TestReadAndDeleteRequestsDifferOnlyInFlags(t *testing.T) {
	read, err := BuildRequest(protocol.FlagRead, "obj", nil)
	if err != nil {
		t.Fatalf("build read: %v", err)
	}
	del, err := BuildRequest(protocol.FlagDelete, "obj", nil)
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	if len(read.Segments()) != 3 || len(del.Segments()) != 3 {
		t.Fatalf("segments read=%d delete=%d", len(read.Segments()), len(del.Segments()))
	}
	rb, db := read.Bytes(), del.Bytes()
	if len(rb) != protocol.HeaderLen || len(db) != protocol.HeaderLen {
		t.Fatalf("len read=%d delete=%d", len(rb), len(db))
	}
	if rb[0] != 0x40 || db[0] != 0xC0 {
		t.Fatalf("flags read=%#x delete=%#x", rb[0], db[0])
	}
	if !bytes.Equal(rb[1:], db[1:]) {
		t.Fatalf("read and delete differ beyond flags")
	}
	if !bytes.Equal(rb[256:260], []byte{0, 0, 0, 0}) {
		t.Fatalf("length field=%x", rb[256:260])
	}
}

func TestBuildRequestIgnoresPayloadForNonWrite(t *testing.T) {
	req, err := BuildRequest(protocol.FlagRead, "obj", []byte("ignored"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if req.Header.Length != 0 || req.Payload != nil {
		t.Fatalf("read carried payload len=%d", req.Header.Length)
	}
}

func TestBuildRequestNameTooLong(t *testing.T) {
	_, err := BuildRequest(protocol.FlagRead, strings.Repeat("n", 256), nil)
	if !errors.Is(err, protocol.ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}

func TestChecksumExcludesFlags(t *testing.T) {
	a, _ := BuildRequest(protocol.FlagWrite, "x", []byte("1"))
	b, _ := BuildRequest(protocol.FlagWrite|protocol.FlagCover|protocol.FlagCompress, "x", []byte("1"))
	if a.Header.Checksum != b.Header.Checksum {
		t.Fatalf("option bits changed checksum")
	}
}

func TestParseResponseHeader(t *testing.T) {
	resp, err := BuildResponse(protocol.StatusSuccess, "doc", []byte("hello"))
	if err != nil {
		t.Fatalf("build response: %v", err)
	}
	wire := resp.Bytes()
	h, err := ParseResponseHeader(wire[:protocol.HeaderLen])
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Lead != 0 || h.Length != 5 || h.NameString() != "doc" {
		t.Fatalf("header=%+v", h)
	}
	if err := h.Verify(wire[protocol.HeaderLen:]); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestParseResponseHeaderShort(t *testing.T) {
	_, err := ParseResponseHeader(make([]byte, protocol.HeaderLen-1))
	if !errors.Is(err, protocol.ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestVerifyDetectsCorruptBody(t *testing.T) {
	resp, _ := BuildResponse(protocol.StatusSuccess, "doc", []byte("hello"))
	if err := resp.Header.Verify([]byte("hellO")); !errors.Is(err, protocol.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestBuildResponseDropsBodyOnFailure(t *testing.T) {
	resp, err := BuildResponse(protocol.StatusFileNotFound, "doc", []byte("x"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if resp.Header.Length != 0 || len(resp.Bytes()) != protocol.HeaderLen {
		t.Fatalf("failure response carried body")
	}
	if resp.Status() != protocol.StatusFileNotFound {
		t.Fatalf("status=%v", resp.Status())
	}
}

func TestReadRequestRoundTrip(t *testing.T) {
	req, _ := BuildRequest(protocol.FlagWrite|protocol.FlagCover, "a/b", []byte("payload"))
	got, err := ReadRequest(bytes.NewReader(req.Bytes()), DefaultLimits())
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if got.Flags() != req.Flags() || got.Header.NameString() != "a/b" || string(got.Payload) != "payload" {
		t.Fatalf("decoded=%+v", got)
	}
}

func TestReadRequestCleanClose(t *testing.T) {
	if _, err := ReadRequest(bytes.NewReader(nil), DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if _, err := ReadRequest(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits()); !errors.Is(err, protocol.ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestReadRequestRejectsBadChecksum(t *testing.T) {
	req, _ := BuildRequest(protocol.FlagDelete, "obj", nil)
	wire := req.Bytes()
	wire[protocol.ChecksumOffset] ^= 0xff
	if _, err := ReadRequest(bytes.NewReader(wire), DefaultLimits()); !errors.Is(err, protocol.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestReadRequestBodyLimit(t *testing.T) {
	req, _ := BuildRequest(protocol.FlagWrite, "big", make([]byte, 64))
	_, err := ReadRequest(bytes.NewReader(req.Bytes()), Limits{MaxBodyBytes: 32})
	if !errors.Is(err, protocol.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestReadRequestUnknownOperation(t *testing.T) {
	req, _ := BuildRequest(protocol.FlagRead, "obj", nil)
	wire := req.Bytes()
	wire[0] = byte(protocol.FlagCover)
	if _, err := ReadRequest(bytes.NewReader(wire), DefaultLimits()); !errors.Is(err, protocol.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestWriteResponse(t *testing.T) {
	resp, _ := BuildResponse(protocol.StatusSuccess, "doc", []byte("body"))
	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		t.Fatalf("write response: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), resp.Bytes()) {
		t.Fatalf("gathered write mismatch")
	}
}
